package app

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/observability"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

type handlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{handlers: make(map[string]Handler)}
}

func (r *handlerRegistry) lookup(header string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[header]
	return h, ok
}

// register installs h for header. At most one handler per header; a
// second registration overwrites, logged at warning by the caller.
func (r *handlerRegistry) register(header string, h Handler) (overwrote bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, overwrote = r.handlers[header]
	r.handlers[header] = h
	return overwrote
}

// RegisterHandler installs h for header, logging a warning if it replaces
// an existing registration.
func (a *Application) RegisterHandler(header string, h Handler) {
	if a.handlers.register(header, h) {
		a.logger.Warn("handler_overwritten", "endpoint", a.endpoint, "header", header)
	} else {
		a.logger.Debug("handler_registered", "endpoint", a.endpoint, "header", header)
	}
}

// SetWatcher installs w for key, logging a warning on overwrite. At most
// one watcher per key.
func (a *Application) SetWatcher(key string, w Watcher) {
	if a.state.SetWatcher(key, w) {
		a.logger.Warn("watcher_overwritten", "endpoint", a.endpoint, "key", key)
	}
}

// dispatch routes one received message. `response` is handled inline on
// the receive goroutine (fast correlation, no worker needed); every other
// header is submitted to the worker pool.
func (a *Application) dispatch(msg message.Message) {
	if msg.Header == topology.HeaderResponse {
		if !a.responses.resolve(msg) {
			a.logger.Warn("response_with_no_matching_request", "endpoint", a.endpoint, "identity", msg.Identity)
		}
		return
	}

	// The self-addressed heartbeat exists only to keep the receive loop
	// observably live; it carries no handler semantics and expects no
	// reply.
	if msg.Header == topology.HeaderHeartbeat {
		return
	}

	a.pool.Submit(func() {
		a.runHandler(msg)
	})
}

func (a *Application) runHandler(msg message.Message) {
	handler, ok := a.handlers.lookup(msg.Header)
	if !ok {
		a.logger.Warn("unknown_header_dropped", "endpoint", a.endpoint, "header", msg.Header, "sender", msg.Sender)
		observability.RecordDispatch(a.endpoint, msg.Header, "unknown_header", 0)
		return
	}

	start := time.Now()
	data, err := a.safeInvoke(msg, handler)
	status := "ok"
	if err != nil {
		status = "panic"
	}
	observability.RecordDispatch(a.endpoint, msg.Header, status, time.Since(start).Seconds())

	if err != nil {
		// A failed handler returns no reply; a caller using
		// CommunicateTimeout gets ErrCommunicateTimeout, and one using
		// Communicate blocks forever.
		return
	}
	if _, err := a.messenger.Reply(msg, topology.HeaderResponse, data); err != nil {
		a.logger.Error("reply_send_failed", "endpoint", a.endpoint, "recipient", msg.Sender, "err", err)
	}
}

// safeInvoke recovers a handler panic, logging the offending message's
// serialization, and reports it as an error so runHandler skips sending a
// reply.
func (a *Application) safeInvoke(msg message.Message, h Handler) (data []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			frame, _ := msg.Serialize()
			a.logger.Error("handler_panic", "endpoint", a.endpoint, "header", msg.Header,
				"recovered", r, "message", string(frame), "stack", string(debug.Stack()))
			err = errHandlerPanicked
		}
	}()
	return h(a, msg)
}
