package app

import (
	"sort"

	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// Handler is invoked once per received message carrying its registered
// header. It runs on a worker-pool goroutine holding no locks at entry.
type Handler func(a *Application, msg message.Message) (data []string, err error)

// installBuiltins registers the protocol's built-in handlers. Later
// registrations (e.g. an endpoint's own `status` override) overwrite with
// a warning.
func (a *Application) installBuiltins() {
	a.RegisterHandler(topology.HeaderStatus, handleStatus)

	// get and read share the same policy: missing keys are omitted from
	// the reply, with a warning.
	a.RegisterHandler(topology.HeaderGet, handleGet)
	a.RegisterHandler(topology.HeaderRead, handleGet)

	a.RegisterHandler(topology.HeaderSet, handleSet)
	a.RegisterHandler(topology.HeaderWrite, handleSet)

	a.RegisterHandler(topology.HeaderReset, handleReset)
	a.RegisterHandler(topology.HeaderSync, handleSync)
	a.RegisterHandler(topology.HeaderHang, handleHang)
	a.RegisterHandler(topology.HeaderExit, handleExit)
	a.RegisterHandler(topology.HeaderAbort, handleAbort)
}

func handleStatus(a *Application, msg message.Message) ([]string, error) {
	return nil, nil
}

func handleGet(a *Application, msg message.Message) ([]string, error) {
	keys := msg.Data
	if len(keys) == 0 {
		snap := a.state.Snapshot()
		keys = make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	out := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v, ok := a.state.Get(k)
		if !ok {
			a.logger.Warn("get_missing_key", "endpoint", a.endpoint, "key", k)
			continue
		}
		out = append(out, k, v)
	}
	return out, nil
}

func handleSet(a *Application, msg message.Message) ([]string, error) {
	a.applyWrite(msg, msg.Data)
	return nil, nil
}

func handleReset(a *Application, msg message.Message) ([]string, error) {
	a.state.Clear()
	a.applyWrite(msg, msg.Data)
	return nil, nil
}

// handleSync replies with a full snapshot of this endpoint's state, used
// both when another endpoint asks for an initial boot dump and,
// generically, by any endpoint asked to sync.
func handleSync(a *Application, msg message.Message) ([]string, error) {
	snap := a.state.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, snap[k])
	}
	return out, nil
}

// handleHang suspends the caller's own process indefinitely: a diagnostic
// handler that never returns, permanently occupying the worker-pool slot
// it runs on.
func handleHang(a *Application, msg message.Message) ([]string, error) {
	select {}
}

func handleExit(a *Application, msg message.Message) ([]string, error) {
	a.transitionTo(Stopping)
	return nil, nil
}

// handleAbort terminates the process ungracefully; it does not return.
func handleAbort(a *Application, msg message.Message) ([]string, error) {
	a.logger.Error("abort_handler_invoked", "endpoint", a.endpoint, "sender", msg.Sender)
	a.abortFunc()
	select {} // unreachable in production; keeps the signature honest in tests
}

// applyWrite routes pairs through the installed Role, if any, so
// marshal/soldier/replica forwarding semantics apply uniformly to
// set/write/reset. Without a role, pairs are applied directly to local
// state.
func (a *Application) applyWrite(msg message.Message, pairs []string) {
	if a.role != nil {
		a.role.OnWrite(a, msg, pairs)
		return
	}
	a.state.WritePairs(pairs, func(oddKey string) {
		a.logger.Warn("odd_trailing_element_in_write", "endpoint", a.endpoint, "key", oddKey)
	})
}
