package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"mirror/webuntis/internal/untis"
)

// Logger is the subset of *log.Logger used here.
type Logger interface {
	Printf(format string, args ...any)
}

// WrapOptions configures Wrap.
type WrapOptions[T any] struct {
	Logger   Logger
	Context  string
	DataType string
	Default  T
	Warnings *Warnings
	Rethrow  bool
}

// Wrap runs fn and absorbs its failure. On error (or panic) it logs, records
// a user-facing warning and returns Default, unless Rethrow is set, in which
// case the original error is returned after logging.
func Wrap[T any](fn func() (T, error), opts WrapOptions[T]) (T, error) {
	value, err := call(fn)
	if err == nil {
		return value, nil
	}
	safeLog(opts.Logger, "[WARN] %s: %v", opts.Context, err)
	if opts.Rethrow {
		return opts.Default, err
	}
	if opts.Warnings != nil {
		opts.Warnings.Add(WarningFor(err, opts.DataType))
	}
	return opts.Default, nil
}

// TryOrDefault returns fallback when fn fails.
func TryOrDefault[T any](logger Logger, context string, fallback T, fn func() (T, error)) T {
	value, err := call(fn)
	if err != nil {
		safeLog(logger, "[WARN] %s: %v", context, err)
		return fallback
	}
	return value
}

// TryOrThrow logs a failure and hands back the original error.
func TryOrThrow[T any](logger Logger, context string, fn func() (T, error)) (T, error) {
	value, err := call(fn)
	if err != nil {
		safeLog(logger, "[ERROR] %s: %v", context, err)
	}
	return value, err
}

// TryOrNull returns nil when fn fails.
func TryOrNull[T any](logger Logger, context string, fn func() (*T, error)) *T {
	value, err := call(fn)
	if err != nil {
		safeLog(logger, "[WARN] %s: %v", context, err)
		return nil
	}
	return value
}

func call[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Logf logs through logger, ignoring a nil logger and any panic it raises.
func Logf(logger Logger, format string, args ...any) {
	safeLog(logger, format, args...)
}

func safeLog(logger Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	defer func() { _ = recover() }()
	logger.Printf(format, args...)
}

// WarningFor turns an upstream error into the text shown on the mirror.
// Session-wide failures produce text without the data type so repeated
// failures of the same session collapse into one warning.
func WarningFor(err error, dataType string) string {
	if err == nil {
		return ""
	}
	if dataType == "" {
		dataType = "data"
	}
	status := untis.StatusCode(err)
	switch {
	case errors.Is(err, untis.ErrAuth), status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "WebUntis rejected the session: check credentials or QR code"
	case status == http.StatusNotFound:
		return fmt.Sprintf("WebUntis does not provide %s for this account", dataType)
	case status == http.StatusTooManyRequests:
		return "WebUntis rate limit reached: data will refresh on the next fetch"
	case status >= 500:
		return fmt.Sprintf("WebUntis server error (HTTP %d): data may be incomplete", status)
	case isTimeout(err):
		return "WebUntis did not respond in time: data may be incomplete"
	}
	return fmt.Sprintf("Could not load %s: %v", dataType, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
