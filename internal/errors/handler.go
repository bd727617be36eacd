package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the ANSI sequences used when printing errors.
// It lets this package colourise output without importing the UI layer.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// HandleCalculationError prints a description of err to out and maps it to an
// exit code. A nil err yields ExitSuccess and prints nothing.
//
// Parameters:
//   - err: The error returned by a reduction strategy.
//   - duration: How long the failed run lasted (0 when unknown).
//   - out: The writer for the error report.
//   - colors: The color provider (may be nil for plain output).
//
// Returns:
//   - int: The exit code matching the error class.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}
	suffix := ""
	if duration > 0 {
		suffix = fmt.Sprintf(" after %s%s%s", yellow, duration, reset)
	}

	var timeoutErr TimeoutError
	var configErr ConfigError
	var validationErr ValidationError
	switch {
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "%sStatus: Timeout%s%s: %v\n", red, reset, suffix, err)
		return ExitErrorTimeout
	case errors.As(err, &configErr), errors.As(err, &validationErr), IsInputError(err):
		fmt.Fprintf(out, "%sStatus: Invalid input%s: %v\n", red, reset, err)
		return ExitErrorConfig
	case IsContextError(err):
		fmt.Fprintf(out, "%sStatus: Canceled%s%s\n", red, reset, suffix)
		return ExitErrorCanceled
	default:
		fmt.Fprintf(out, "%sStatus: Failure%s%s: %v\n", red, reset, suffix, err)
		return ExitErrorGeneric
	}
}
