// Package role implements the replication protocol overlaying the
// Application runtime: Marshal (coordinator), Soldier (peripheral), and
// Replica (persistent mirror), plus the PeripheralBase convenience layer
// built atop Application.Communicate.
//
// Each role is a capability satisfying app.Role; the Application calls it
// from the shared write handler.
package role

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/observability"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// forwardOrApply is the shared Soldier/Replica write-path decision: a
// write whose sender is the marshal is applied directly; a write from any
// other sender (including this endpoint's own local-intent writes) is
// forwarded to the marshal instead of being applied locally.
func forwardOrApply(a *app.Application, logger logging.Logger, msg message.Message, pairs []string) {
	if msg.Sender == topology.Marshal {
		a.WriteLocal(pairs)
		return
	}
	if _, err := a.SendFireAndForget(topology.Marshal, topology.HeaderSet, pairs, msg.Priority); err != nil {
		logger.Error("forward_to_marshal_failed", "endpoint", a.Endpoint(), "err", err)
	}
}

// fanOut sends a `set` carrying pairs to every soldier and the replica
// except the excluded endpoint (empty = none), used by Marshal to
// propagate a write so every endpoint converges. Every call is tagged
// with a fresh round id so log lines emitted on different endpoints for
// the same fan-out round can be correlated after the fact; the round id
// is not part of the wire protocol, only of the logging/tracing side
// channel.
func fanOut(a *app.Application, logger logging.Logger, exclude string, pairs []string, priority int) {
	round := uuid.NewString()
	_, end := observability.StartSpan(context.Background(), a.Endpoint(), "fan_out")
	defer end()

	start := time.Now()
	targets := append(append([]string{}, topology.Soldiers...), topology.Replica)
	for _, t := range targets {
		if t == exclude {
			continue
		}
		if _, err := a.SendFireAndForget(t, topology.HeaderSet, pairs, priority); err != nil {
			logger.Warn("fan_out_send_failed", "endpoint", a.Endpoint(), "round", round, "target", t, "err", err)
		} else {
			logger.Debug("fan_out_send", "endpoint", a.Endpoint(), "round", round, "target", t)
		}
	}
	observability.RecordFanOut(topology.HeaderSet, time.Since(start).Seconds())
}
