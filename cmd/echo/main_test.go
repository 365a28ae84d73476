package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/queue"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

func TestReverseEcho(t *testing.T) {
	msg := message.New("client", "echo", topology.HeaderData, []string{"a", "b", "c"}, 0)
	out, err := reverseEcho(nil, msg)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, out)
}

// TestEchoEndpointRepliesReversed exercises cmd/echo end to end over the
// real queue transport: a client communicates with a running echo
// Application and gets its data back in reverse order.
func TestEchoEndpointRepliesReversed(t *testing.T) {
	old := queue.BaseDir
	queue.BaseDir = t.TempDir()
	t.Cleanup(func() { queue.BaseDir = old })

	cfg := config.New(
		config.WithReceiveDeadline(10*time.Millisecond),
		config.WithHeartPeriod(5*time.Second),
		config.WithWorkerPoolSize(2),
	)
	a, err := app.New("echo", nil, cfg)
	require.NoError(t, err)
	a.SetAbortFunc(func() {})
	require.NoError(t, a.Setup())
	for _, h := range echoedHeaders {
		a.RegisterHandler(h, reverseEcho)
	}

	done := make(chan struct{})
	go func() {
		_ = a.Run()
		close(done)
	}()
	t.Cleanup(func() {
		a.RequestStop()
		<-done
	})

	client, err := app.New("echo_client", nil, config.New(
		config.WithReceiveDeadline(10*time.Millisecond),
		config.WithHeartPeriod(5*time.Second),
	))
	require.NoError(t, err)
	client.SetAbortFunc(func() {})
	require.NoError(t, client.Setup())
	go func() { _ = client.Run() }()
	t.Cleanup(func() { client.RequestStop() })

	resp, err := client.Communicate("echo", topology.HeaderData, []string{"x", "y", "z"}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"z", "y", "x"}, resp.Data)
}
