// Package heart implements the per-process liveness watchdog: a ticking
// goroutine that aborts the process if Beat was not called within one
// period.
package heart

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/logging"
)

// AbortFunc terminates the process. Overridable in tests so a missed beat
// is observable without actually exiting the test binary.
type AbortFunc func()

// OsExitAbort calls os.Exit(1), the production default. A heart-triggered
// abort is the only legitimate non-graceful exit.
func OsExitAbort() { os.Exit(1) }

// Heart is the liveness watchdog guarding against handler-induced
// deadlocks and hung worker pools: so long as the main receive loop
// ticks, the process is considered live.
type Heart struct {
	period   time.Duration
	callback func()
	abort    AbortFunc
	logger   logging.Logger

	counter atomic.Uint32
	done    chan struct{}
	stopped chan struct{}
}

// New constructs and starts a Heart running at period, invoking callback
// on every tick that observes a nonzero beat counter. abort is called
// (and the ticking goroutine exits) the first time a tick observes a zero
// counter.
func New(period time.Duration, callback func(), abort AbortFunc, logger logging.Logger) *Heart {
	if abort == nil {
		abort = OsExitAbort
	}
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	h := &Heart{
		period:   period,
		callback: callback,
		abort:    abort,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	h.counter.Store(1) // avoid a spurious trip on the very first tick
	go h.loop()
	return h
}

// Beat increments the liveness counter. Called by the main receive loop
// after each iteration.
func (h *Heart) Beat() {
	h.counter.Add(1)
}

func (h *Heart) loop() {
	defer close(h.stopped)
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			if h.counter.Swap(0) == 0 {
				h.logger.Error("heart_missed_beat", "period_ms", h.period.Milliseconds())
				h.abort()
				return
			}
			if h.callback != nil {
				func() {
					defer func() {
						if r := recover(); r != nil {
							h.logger.Error("heart_callback_panic", "recovered", r)
						}
					}()
					h.callback()
				}()
			}
		}
	}
}

// Stop ends the watchdog goroutine without aborting the process.
func (h *Heart) Stop() {
	select {
	case <-h.done:
		// already stopped
	default:
		close(h.done)
	}
	<-h.stopped
}
