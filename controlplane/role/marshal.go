package role

import (
	"fmt"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// Marshal is the coordinator: it applies every write it receives and
// fans the same write out to every soldier and the replica so they
// converge, the originating soldier included (it forwarded the write
// without applying it and waits on this echo). It is the single
// serialization point for writes.
type Marshal struct {
	logger logging.Logger
}

// NewMarshal constructs a Marshal role.
func NewMarshal(logger logging.Logger) *Marshal {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Marshal{logger: logger}
}

// OnWrite implements app.Role. A soldier forwards a write without
// applying it and converges on the echo, so the fan-out must include the
// original sender. The replica's periodic dumps are snapshots of state it
// has already applied; echoing one back would only bounce it, so the
// replica is excluded when it is the origin.
func (m *Marshal) OnWrite(a *app.Application, msg message.Message, pairs []string) {
	a.WriteLocal(pairs)
	exclude := ""
	if msg.Sender == topology.Replica {
		exclude = topology.Replica
	}
	fanOut(a, m.logger, exclude, pairs, msg.Priority)
}

// BootSync pulls the initial state dump from the replica and applies it
// locally, restoring the marshal's view after a restart.
func (m *Marshal) BootSync(a *app.Application) error {
	resp, err := a.Communicate(topology.Replica, topology.HeaderSync, nil, 0)
	if err != nil {
		return fmt.Errorf("role: marshal boot sync: %w", err)
	}
	a.WriteLocal(resp.Data)
	return nil
}
