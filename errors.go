package iomodal

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned when Run() is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("iomodal: loop is already running")

	// ErrLoopTerminated is returned when operations are attempted on a terminated loop.
	ErrLoopTerminated = errors.New("iomodal: loop has been terminated")

	// ErrReentrantRun is returned when Run() is called from within the loop itself.
	ErrReentrantRun = errors.New("iomodal: cannot call Run() from within the loop")

	// ErrTimerNotFound is returned when cancelling a timer that does not exist
	// or has already fired.
	ErrTimerNotFound = errors.New("iomodal: timer not found")

	// ErrDialogDestroyed is returned when operating on a dialog that has been
	// closed or evicted.
	ErrDialogDestroyed = errors.New("iomodal: dialog has been destroyed")

	// ErrNoActiveDialog is returned by operations that require a currently
	// open dialog when none exists.
	ErrNoActiveDialog = errors.New("iomodal: no active dialog")

	// ErrGoexit rejects a pending result when a pre-action goroutine exits
	// via runtime.Goexit().
	ErrGoexit = errors.New("iomodal: pre-action goroutine exited via runtime.Goexit")
)

// PanicError wraps a panic value recovered from a callback or pre-action.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("iomodal: callback panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching through
// the cause chain. If the panic Value is not an error, returns nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ValidationError is a soft pre-action failure. Returning it from a
// PreConfirm or PreDeny callback keeps the dialog open and shows Message as
// the validation message, rather than settling the result.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "iomodal: validation failed"
	}
	return e.Message
}

// ConfigError represents an invalid parameter combination that prevents a
// dialog from being constructed, as opposed to the non-fatal warnings logged
// for recoverable misuse.
type ConfigError struct {
	Param   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("iomodal: invalid configuration: %s", e.Message)
	}
	return fmt.Sprintf("iomodal: invalid configuration for %q: %s", e.Param, e.Message)
}
