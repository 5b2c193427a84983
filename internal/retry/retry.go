package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrEmpty reports a response that arrived and parsed but held nothing
// usable. It is retried like a transport failure.
var ErrEmpty = errors.New("empty result")

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
	}
}

// Delay returns the pause before retry number attempt (0-based): BaseDelay * 2^attempt.
func (c Config) Delay(attempt int) time.Duration {
	return c.BaseDelay * time.Duration(1<<attempt)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	HTTPStatus() int
}

// Do runs operation until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. The last error is returned.
func Do(ctx context.Context, config Config, operation func(context.Context) error) error {
	return do(ctx, config, nil, "", operation)
}

func do(ctx context.Context, config Config, logger *slog.Logger, name string, operation func(context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			if logger != nil && attempt > 0 {
				logger.Info("succeeded after retry", "op", name, "attempt", attempt+1)
			}
			return nil
		}

		// A per-request timeout is retried; cancellation of the caller's context is not.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !isRetryableError(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}

		if attempt == attempts-1 {
			return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
		}

		delay := config.Delay(attempt)
		if logger != nil {
			logger.Warn("attempt failed, retrying",
				"op", name,
				"attempt", attempt+1,
				"max_attempts", attempts,
				"delay", delay,
				"error", err,
			)
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return nil
}

// Fetch runs operation under the retry policy and returns its value. Once the
// attempts are exhausted it logs the failure and returns the zero value and
// false instead of an error, so callers degrade to "no data".
func Fetch[T any](ctx context.Context, config Config, logger *slog.Logger, name string, operation func(context.Context) (T, error)) (T, bool) {
	var result T
	err := do(ctx, config, logger, name, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		if logger != nil {
			logger.Error("giving up", "op", name, "error", err)
		}
		var zero T
		return zero, false
	}
	return result, true
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRetryableError determines if an error is worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, ErrEmpty) {
		return true
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return HTTPStatusRetryable(sc.HTTPStatus())
	}

	errStr := strings.ToLower(err.Error())

	// Network-level errors are generally retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network") {
		return true
	}

	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	if strings.Contains(errStr, "status 4") {
		return false
	}

	return true
}

// HTTPStatusRetryable checks if an HTTP status code is retryable
func HTTPStatusRetryable(statusCode int) bool {
	return statusCode >= 500 ||
		statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout
}
