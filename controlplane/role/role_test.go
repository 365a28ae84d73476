package role

import (
	"testing"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/queue"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempQueues(t *testing.T) {
	t.Helper()
	old := queue.BaseDir
	queue.BaseDir = t.TempDir()
	t.Cleanup(func() { queue.BaseDir = old })
}

func newRunningApp(t *testing.T, name string, r app.Role) (*app.Application, <-chan struct{}) {
	t.Helper()
	cfg := config.New(
		config.WithReceiveDeadline(10*time.Millisecond),
		config.WithHeartPeriod(5*time.Second),
		config.WithWorkerPoolSize(2),
	)
	a, err := app.New(name, nil, cfg)
	require.NoError(t, err)
	a.SetAbortFunc(func() {})
	require.NoError(t, a.Setup())
	if r != nil {
		a.SetRole(r)
	}
	done := make(chan struct{})
	go func() {
		_ = a.Run()
		close(done)
	}()
	return a, done
}

// TestMarshalAppliesAndFansOutWrite covers the write-convergence path:
// a set received by the marshal is applied locally and fanned out to
// every soldier, the originating one included, and the replica.
func TestMarshalAppliesAndFansOutWrite(t *testing.T) {
	withTempQueues(t)

	marshal, marshalDone := newRunningApp(t, topology.Marshal, NewMarshal(nil))
	replica, replicaDone := newRunningApp(t, topology.Replica, NewReplica(time.Hour, nil)) // disable periodic dump noise in this test
	motor, motorDone := newRunningApp(t, topology.Motor, NewSoldier(nil))

	// motor forwards a local-intent write to the marshal.
	_, err := motor.Communicate(topology.Motor, topology.HeaderSet, []string{"torque", "7"}, 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, ok := marshal.Get("torque")
		return ok && v == "7"
	}, time.Second, 10*time.Millisecond, "marshal must apply the forwarded write")

	require.Eventually(t, func() bool {
		v, ok := motor.Get("torque")
		return ok && v == "7"
	}, time.Second, 10*time.Millisecond, "motor must converge after marshal's echo")

	require.Eventually(t, func() bool {
		v, ok := replica.Get("torque")
		return ok && v == "7"
	}, time.Second, 10*time.Millisecond, "replica must converge within one fan-out round")

	motor.RequestStop()
	replica.RequestStop()
	marshal.RequestStop()
	<-motorDone
	<-replicaDone
	<-marshalDone
}

func TestReplicaBootSyncDeliversPreloadedState(t *testing.T) {
	withTempQueues(t)

	replica, replicaDone := newRunningApp(t, topology.Replica, NewReplica(time.Hour, nil))
	replica.WriteLocal([]string{"mode", "idle"})

	marshalRole := NewMarshal(nil)
	marshal, marshalDone := newRunningApp(t, topology.Marshal, marshalRole)

	require.NoError(t, marshalRole.BootSync(marshal))

	v, ok := marshal.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "idle", v)

	marshal.RequestStop()
	replica.RequestStop()
	<-marshalDone
	<-replicaDone
}
