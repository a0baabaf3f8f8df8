package aeon

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull reports a run queue at capacity (resource exhaustion,
	// recoverable). Nothing in this package returns it: the global queue
	// grows on demand and Spawn applies no queue-depth cap.
	ErrQueueFull = errors.New("aeon: queue full")

	// ErrTooManyOutstandingOps is returned by the reactor when a submit
	// would exceed reactor_events_capacity.
	ErrTooManyOutstandingOps = errors.New("aeon: too many outstanding I/O operations")

	// ErrCancelled is the JoinHandle output when a task was aborted
	// before or during execution.
	ErrCancelled = errors.New("aeon: task cancelled")

	// ErrElapsed is the distinguished output of Timeout when the deadline
	// wins the race against the wrapped Future.
	ErrElapsed = errors.New("aeon: deadline elapsed")

	// ErrRuntimeStopped is returned by Spawn/SpawnBlocking once the
	// runtime has entered or completed shutdown.
	ErrRuntimeStopped = errors.New("aeon: runtime stopped")

	// ErrNoRuntime is returned by CurrentRuntime when called outside of
	// any worker and with no default runtime registered by New in this
	// process.
	ErrNoRuntime = errors.New("aeon: no current runtime")

	// ErrUnsupportedBackend is returned by Runtime.Start when the
	// configured reactor backend cannot be satisfied on this platform.
	ErrUnsupportedBackend = errors.New("aeon: unsupported reactor backend")
)

// PanicError wraps a panic value recovered from inside a task's Poll.
// Task panics are caught at the worker boundary; they never unwind past
// the scheduler, and become the task's JoinHandle result instead.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("aeon: task panicked: %v", e.Value)
}

// Unwrap returns the recovered value if it is itself an error, enabling
// errors.Is/errors.As through the panic's cause chain.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AggregateError collects multiple errors encountered while tearing down
// a Runtime's subsystems during Stop (the blocking pool's bounded
// shutdown wait and the reactor's close, each of which can fail
// independently), analogous to the teacher's AggregateError for
// Promise.Any-style multi-failure reporting.
type AggregateError struct {
	Message string
	Errors  []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("aeon: %d errors during shutdown", len(e.Errors))
}

// Unwrap supports errors.Is/errors.As against any contained error.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// TimeoutError is an alternative form of ErrElapsed carrying an
// underlying cause; it unwraps to ErrElapsed when Cause is nil. Timeout
// returns ErrElapsed directly, and no function in this package
// constructs a TimeoutError.
type TimeoutError struct {
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string { return "aeon: operation timed out" }

// Unwrap returns the underlying cause.
func (e *TimeoutError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrElapsed
}

// WrapError wraps message around cause, preserving cause for errors.Is.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
