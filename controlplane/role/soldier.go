package role

import (
	"fmt"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// Soldier is a peripheral endpoint: a local-intent write is forwarded to
// the marshal rather than applied directly; a write whose sender IS the
// marshal is applied directly; a write from any other sender is
// forwarded to the marshal.
type Soldier struct {
	logger logging.Logger
}

// NewSoldier constructs a Soldier role.
func NewSoldier(logger logging.Logger) *Soldier {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Soldier{logger: logger}
}

// OnWrite implements app.Role.
func (s *Soldier) OnWrite(a *app.Application, msg message.Message, pairs []string) {
	forwardOrApply(a, s.logger, msg, pairs)
}

// BootSync sends a sync to the marshal and waits for its dump, applying
// the result locally.
func (s *Soldier) BootSync(a *app.Application) error {
	resp, err := a.Communicate(topology.Marshal, topology.HeaderSync, nil, 0)
	if err != nil {
		return fmt.Errorf("role: soldier boot sync: %w", err)
	}
	a.WriteLocal(resp.Data)
	return nil
}
