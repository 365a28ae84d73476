package app

import "github.com/revolution-robotics/control-plane/controlplane/message"

// Role is the write-path capability an Application holds and calls from
// the shared write handler. controlplane/role implements Marshal,
// Soldier, and Replica against this interface.
type Role interface {
	// OnWrite is invoked by the base set/write/reset handler instead of
	// applying pairs directly to local state. Implementations decide
	// whether to apply locally, forward to the marshal, or fan out to
	// every other soldier.
	OnWrite(a *Application, msg message.Message, pairs []string)
}

// SetRole installs r as this Application's write-path capability. Must be
// called during setup, before Run.
func (a *Application) SetRole(r Role) {
	a.role = r
}

// WriteLocal applies pairs directly to local state, bypassing any
// installed Role. Exposed for Role implementations that, having decided a
// write should land locally, need the base behavior without recursing
// back through OnWrite.
func (a *Application) WriteLocal(pairs []string) {
	a.state.WritePairs(pairs, func(oddKey string) {
		a.logger.Warn("odd_trailing_element_in_write", "endpoint", a.endpoint, "key", oddKey)
	})
}
