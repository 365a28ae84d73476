// Package app implements the per-endpoint application runtime: receive
// loop, handler dispatch, state map with watchers, request/response
// correlation, and the lifecycle state machine.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/heart"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/messenger"
	"github.com/revolution-robotics/control-plane/controlplane/observability"
	"github.com/revolution-robotics/control-plane/controlplane/queue"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
	"github.com/revolution-robotics/control-plane/controlplane/workerpool"
)

// Application is the runtime bound to exactly one endpoint.
type Application struct {
	endpoint  string
	logger    logging.Logger
	cfg       config.RuntimeConfig
	messenger *messenger.Messenger

	state     *stateStore
	handlers  *handlerRegistry
	responses *responseTable

	pool  *workerpool.Pool
	heart *heart.Heart
	role  Role

	smMu sync.Mutex
	sm   State

	runMu   sync.Mutex
	running bool

	abortFunc func()
}

// New constructs an Application bound to endpoint, opening its receive
// queue immediately.
func New(endpoint string, logger logging.Logger, cfg config.RuntimeConfig) (*Application, error) {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	m, err := messenger.Open(endpoint, cfg.QueueOptions(endpoint))
	if err != nil {
		return nil, fmt.Errorf("app: open messenger for %q: %w", endpoint, err)
	}
	a := &Application{
		endpoint:  endpoint,
		logger:    logger,
		cfg:       cfg,
		messenger: m,
		state:     newStateStore(),
		handlers:  newHandlerRegistry(),
		responses: newResponseTable(),
		sm:        Constructed,
		abortFunc: func() { heart.OsExitAbort() },
	}
	return a, nil
}

// Endpoint returns the bound endpoint name.
func (a *Application) Endpoint() string { return a.endpoint }

// State returns the current lifecycle state.
func (a *Application) State() State {
	a.smMu.Lock()
	defer a.smMu.Unlock()
	return a.sm
}

func (a *Application) transitionTo(to State) error {
	a.smMu.Lock()
	defer a.smMu.Unlock()
	if !IsValidTransition(a.sm, to) {
		a.logger.Error("invalid_state_transition", "endpoint", a.endpoint, "from", a.sm.String(), "to", to.String())
		return ErrInvalidTransition
	}
	a.logger.Info("state_transition", "endpoint", a.endpoint, "from", a.sm.String(), "to", to.String())
	a.sm = to
	if to == Stopping {
		a.runMu.Lock()
		a.running = false
		a.runMu.Unlock()
	}
	return nil
}

// SetAbortFunc overrides the process-termination function invoked by the
// `abort` handler and by a Heart timeout. Must be called before Setup,
// which starts the goroutines that read it. Exposed for tests; production
// wiring uses the default os.Exit(1).
func (a *Application) SetAbortFunc(f func()) {
	a.abortFunc = f
}

// Setup installs the built-in handlers, starts the worker pool, and
// starts the Heart. Must be called exactly once, from CONSTRUCTED.
func (a *Application) Setup() error {
	if err := a.transitionTo(Setup); err != nil {
		return err
	}
	a.installBuiltins()
	a.pool = workerpool.New(a.cfg.WorkerPoolSize, a.logger)
	a.heart = heart.New(a.cfg.HeartPeriod, a.sendHeartbeat, a.onHeartTimeout, a.logger)
	return nil
}

// sendHeartbeat is the Heart's per-tick callback: a self-addressed
// heartbeat message, keeping the Application's own receive loop live.
func (a *Application) sendHeartbeat() {
	if _, err := a.messenger.Send(a.endpoint, topology.HeaderHeartbeat, nil, 0); err != nil {
		a.logger.Warn("heartbeat_send_failed", "endpoint", a.endpoint, "err", err)
	}
}

func (a *Application) onHeartTimeout() {
	observability.RecordHeartMissedBeat(a.endpoint)
	a.abortFunc()
}

// Main prints a start banner, runs Setup then Run until status becomes
// false, then prints a stop banner.
func (a *Application) Main() error {
	a.logger.Info("endpoint_starting", "endpoint", a.endpoint)
	if err := a.Setup(); err != nil {
		return err
	}
	err := a.Run()
	a.logger.Info("endpoint_stopped", "endpoint", a.endpoint)
	return err
}

// Run executes the timed-receive/dispatch/beat loop until status flips to
// false (via the exit handler, or a role/caller requesting shutdown),
// then transitions Stopping->Terminated.
func (a *Application) Run() error {
	switch a.State() {
	case Setup:
	case Constructed:
		return ErrNotSetUp
	default:
		return ErrAlreadyRunning
	}
	if err := a.transitionTo(Running); err != nil {
		return err
	}

	a.runMu.Lock()
	a.running = true
	a.runMu.Unlock()

	for a.isRunning() {
		deadline := time.Now().Add(a.cfg.ReceiveDeadline)
		msg, ok, err := a.messenger.TimedReceive(deadline)
		if err != nil {
			a.handleReceiveError(err)
		} else if ok {
			a.dispatch(msg)
		}
		if depth, derr := a.messenger.PendingCount(); derr == nil {
			observability.SetQueueDepth(a.endpoint, depth)
		}
		a.heart.Beat()
	}

	// Drain the pool before stopping the heart: if a pathological handler
	// hangs the drain, the missed beats abort the process within two
	// heart periods instead of wedging shutdown forever.
	a.pool.Shutdown()
	a.heart.Stop()
	return a.transitionTo(Terminated)
}

func (a *Application) handleReceiveError(err error) {
	switch {
	case errors.Is(err, queue.ErrTimeout):
		// Expected: the deadline simply elapsed with nothing queued.
	case errors.Is(err, message.ErrParse):
		a.logger.Error("message_dropped_parse_error", "endpoint", a.endpoint, "err", err)
	default:
		a.logger.Error("transport_error", "endpoint", a.endpoint, "err", err)
	}
}

func (a *Application) isRunning() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.running
}

// RequestStop transitions Running->Stopping, causing Run's loop to exit
// after its current iteration. Equivalent to receiving an `exit` message,
// exposed for roles and tests that need to stop the process directly.
func (a *Application) RequestStop() {
	a.transitionTo(Stopping)
}

// Communicate is the blocking request/reply primitive. It has no built-in
// timeout: a caller whose peer never replies blocks forever. Use
// CommunicateTimeout when the peer's liveness is not guaranteed.
func (a *Application) Communicate(recipient, header string, data []string, priority int) (message.Message, error) {
	_, end := observability.StartSpan(context.Background(), a.endpoint, "communicate "+header)
	defer end()

	req := message.New(a.endpoint, recipient, header, data, priority)
	a.responses.register(req.Identity)
	if err := a.messenger.SendMessage(req); err != nil {
		a.responses.forget(req.Identity)
		return message.Message{}, fmt.Errorf("app: communicate: %w", err)
	}
	return a.responses.wait(req.Identity), nil
}

// CommunicateTimeout is Communicate with a deadline, returning
// ErrCommunicateTimeout if no response arrives in time.
func (a *Application) CommunicateTimeout(recipient, header string, data []string, priority int, timeout time.Duration) (message.Message, error) {
	_, end := observability.StartSpan(context.Background(), a.endpoint, "communicate "+header)
	defer end()

	req := message.New(a.endpoint, recipient, header, data, priority)
	a.responses.register(req.Identity)
	if err := a.messenger.SendMessage(req); err != nil {
		a.responses.forget(req.Identity)
		return message.Message{}, fmt.Errorf("app: communicate: %w", err)
	}
	resp, ok := a.responses.waitTimeout(req.Identity, time.Now().Add(timeout))
	if !ok {
		return message.Message{}, ErrCommunicateTimeout
	}
	return resp, nil
}

// SendFireAndForget addresses a message to recipient without waiting for
// or registering a response-table entry. Used by Role implementations to
// forward and fan out writes, which are not request/reply round-trips.
func (a *Application) SendFireAndForget(recipient, header string, data []string, priority int) (message.Message, error) {
	return a.messenger.Send(recipient, header, data, priority)
}

// PendingCount returns the number of messages currently spooled for this
// endpoint's own queue.
func (a *Application) PendingCount() (int, error) {
	return a.messenger.PendingCount()
}

// Snapshot returns a copy of this endpoint's entire state map.
func (a *Application) Snapshot() map[string]string {
	return a.state.Snapshot()
}

// Get returns the value for key and whether it was present.
func (a *Application) Get(key string) (string, bool) {
	return a.state.Get(key)
}
