package role

import (
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// Replica is the persistence endpoint: it mirrors state like any
// soldier (a write from the marshal is applied directly, any other
// sender's write is forwarded to the marshal) and additionally pushes
// its full in-memory state to the marshal on a fixed period, refreshing
// the marshal's view after the marshal restarts.
type Replica struct {
	logger logging.Logger
	period time.Duration

	done chan struct{}
}

// NewReplica constructs a Replica role with the given periodic
// full-state sync interval (500ms by default in config).
func NewReplica(period time.Duration, logger logging.Logger) *Replica {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Replica{logger: logger, period: period}
}

// OnWrite implements app.Role. A Replica absorbs marshal-originated
// writes like any soldier and forwards anything else to the marshal.
func (r *Replica) OnWrite(a *app.Application, msg message.Message, pairs []string) {
	forwardOrApply(a, r.logger, msg, pairs)
}

// StartPeriodicDump starts the periodic full-state dump loop to the
// marshal. Returns a stop function.
func (r *Replica) StartPeriodicDump(a *app.Application) func() {
	r.done = make(chan struct{})
	ticker := time.NewTicker(r.period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.dumpCycle(a)
			}
		}
	}()
	return func() {
		select {
		case <-r.done:
		default:
			close(r.done)
		}
	}
}

func (r *Replica) dumpCycle(a *app.Application) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("replica_dump_panic", "endpoint", a.Endpoint(), "recovered", rec)
		}
	}()

	snap := a.Snapshot()
	pairs := make([]string, 0, 2*len(snap))
	for k, v := range snap {
		pairs = append(pairs, k, v)
	}
	if len(pairs) == 0 {
		return
	}
	if _, err := a.SendFireAndForget(topology.Marshal, topology.HeaderSet, pairs, 0); err != nil {
		r.logger.Warn("replica_dump_send_failed", "endpoint", a.Endpoint(), "err", err)
	}
}
