package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the ANSI sequences used when printing errors.
// It keeps this package free of a dependency on the theme system.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		timeoutErr    TimeoutError
		saturationErr SaturationError
		validationErr ValidationError
		configErr     ConfigError
	)
	switch {
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.As(err, &saturationErr):
		return ExitErrorSaturation
	case errors.As(err, &validationErr), errors.As(err, &configErr):
		return ExitErrorConfig
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	}
	return ExitErrorGeneric
}

// HandleError prints a user-facing description of err to out and returns the
// matching exit code. A nil error yields ExitSuccess and prints nothing.
func HandleError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	code := ExitCode(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sSimulation timed out after %s: %v%s\n", colors.Yellow(), duration, err, colors.Reset())
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sSimulation canceled after %s.%s\n", colors.Yellow(), duration, colors.Reset())
	case ExitErrorSaturation:
		fmt.Fprintf(out, "%sInfeasible request: %v%s\n", colors.Red(), err, colors.Reset())
	case ExitErrorConfig:
		fmt.Fprintf(out, "%sInvalid parameters: %v%s\n", colors.Red(), err, colors.Reset())
	default:
		fmt.Fprintf(out, "%sError: %v%s\n", colors.Red(), err, colors.Reset())
	}
	return code
}
