package app

import "errors"

// ErrAlreadyRunning is returned by Run if the Application has already left
// SETUP.
var ErrAlreadyRunning = errors.New("app: already running")

// ErrNotSetUp is returned by Run if Setup was never called.
var ErrNotSetUp = errors.New("app: setup was not called")

// ErrInvalidTransition is returned when an internal transition violates
// the CONSTRUCTED->SETUP->RUNNING->STOPPING->TERMINATED state machine.
var ErrInvalidTransition = errors.New("app: invalid state transition")

// ErrCommunicateTimeout is returned by CommunicateTimeout when no response
// arrives before the deadline.
var ErrCommunicateTimeout = errors.New("app: communicate timed out waiting for response")

// errHandlerPanicked is the internal sentinel safeInvoke returns so
// runHandler knows to suppress the reply; never surfaced to callers.
var errHandlerPanicked = errors.New("app: handler panicked")
