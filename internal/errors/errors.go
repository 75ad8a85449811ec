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
	ExitSuccess         = 0   // Indicates successful execution.
	ExitErrorGeneric    = 1   // Indicates a generic error.
	ExitErrorTimeout    = 2   // Indicates the operation timed out.
	ExitErrorConfig     = 4   // Indicates a configuration or validation error.
	ExitErrorSaturation = 5   // Indicates the energy could not be placed under the level cap.
	ExitErrorCanceled   = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags,
// environment values or a malformed batch file.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an invalid simulation parameter. It identifies
// which field failed validation and provides a human-readable explanation.
// Validation errors are fatal to the call and never retried.
type ValidationError struct {
	// Field is the name of the parameter that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(field, format string, a ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// SaturationError reports that a quantum could not be placed because every
// particle already sits at the highest reachable level. The requested
// (particles, energy, levels) combination is infeasible.
type SaturationError struct {
	// Placed is the number of quanta successfully placed before saturation.
	Placed int
	// Total is the number of quanta requested.
	Total int
	// Particles is the number of particles in the saturated system.
	Particles int
	// MaxLevel is the highest reachable level (levels - 1).
	MaxLevel int
}

// Error returns a formatted message describing the saturation.
func (e SaturationError) Error() string {
	return fmt.Sprintf("capacity saturated after placing %d of %d quanta: all %d particles are at level %d",
		e.Placed, e.Total, e.Particles, e.MaxLevel)
}

// FitUnderdeterminedError reports that a histogram has fewer than two
// occupied levels, so a regression line has no defined slope. The condition
// is recoverable: the moments of the histogram remain meaningful.
type FitUnderdeterminedError struct {
	// Levels is the number of distinct occupied levels found.
	Levels int
}

// Error returns a formatted message describing the degenerate fit.
func (e FitUnderdeterminedError) Error() string {
	return fmt.Sprintf("fit underdetermined: need at least 2 occupied levels, got %d", e.Levels)
}

// ShardError attributes a failure to the shard that produced it.
type ShardError struct {
	// Index is the position of the failing shard in the partition.
	Index int
	// Cause is the underlying error.
	Cause error
}

// Error returns the shard index followed by the cause.
func (e ShardError) Error() string {
	return fmt.Sprintf("shard %d: %v", e.Index, e.Cause)
}

// Unwrap returns the underlying cause of the shard failure.
func (e ShardError) Unwrap() error { return e.Cause }

// TimeoutError represents an operation that exceeded its time budget. It
// captures the operation name and the duration limit that was exceeded.
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

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
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

// IsFitUnderdetermined reports whether err carries a FitUnderdeterminedError.
func IsFitUnderdetermined(err error) bool {
	var fitErr FitUnderdeterminedError
	return errors.As(err, &fitErr)
}
