package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates a result mismatch between strategies.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// InvalidRangeError reports a malformed or out-of-bounds range handed to the
// reducer. It is returned before any work starts.
type InvalidRangeError struct {
	// Start and End delimit the rejected half-open range.
	Start, End int
	// Length is the length of the sequence the range was checked against.
	Length int
	// Reason is a short human-readable explanation.
	Reason string
}

// Error returns a formatted message describing the rejected range.
func (e InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d) over sequence of length %d: %s",
		e.Start, e.End, e.Length, e.Reason)
}

// InvalidThresholdError reports a non-positive splitting threshold.
type InvalidThresholdError struct {
	Threshold int
}

// Error returns a formatted message describing the rejected threshold.
func (e InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid threshold %d: must be greater than zero", e.Threshold)
}

// CombineError wraps an error raised by a caller-supplied combine function,
// together with the range whose elements or partial results were being
// combined when it happened.
type CombineError struct {
	Start, End int
	Cause      error
}

// Error returns the cause prefixed with the failing range.
func (e CombineError) Error() string {
	return fmt.Sprintf("combine failed on range [%d, %d): %v", e.Start, e.End, e.Cause)
}

// Unwrap returns the error returned (or the panic raised) by the combine function.
func (e CombineError) Unwrap() error { return e.Cause }

// PanicError carries a value recovered from a panicking task together with
// the stack at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

// Error returns the recovered value and the captured stack.
func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
}

// Unwrap returns the recovered value when it is itself an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CalculationError encapsulates a strategy failure while preserving the
// original cause.
type CalculationError struct {
	// Strategy names the reduction strategy that failed.
	Strategy string
	// Cause is the underlying error that triggered this calculation error.
	Cause error
}

// Error returns the error message from the underlying cause.
func (e CalculationError) Error() string {
	if e.Strategy == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Strategy, e.Cause)
}

// Unwrap returns the original wrapped error.
func (e CalculationError) Unwrap() error { return e.Cause }

// TimeoutError represents a timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInputError reports whether err was caused by invalid arguments to the
// reducer (range or threshold), as opposed to a failure during the reduction.
func IsInputError(err error) bool {
	var rangeErr InvalidRangeError
	var thresholdErr InvalidThresholdError
	return errors.As(err, &rangeErr) || errors.As(err, &thresholdErr)
}
