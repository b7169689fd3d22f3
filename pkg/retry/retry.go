// Package retry wraps fallible remote calls with bounded retries on
// rate-limit failures. Providers often embed an explicit wait in the
// error text ("Please try again in 198ms"); when present that wait is
// honored, otherwise the helper falls back to jittered exponential
// backoff. Any non-rate-limit failure propagates immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimitExhausted matches (via errors.Is) any error returned after
// the retry budget was spent on rate-limit failures, so callers can
// distinguish "still rate-limited after backoff" from "service
// unreachable".
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

// ExhaustedError reports that every attempt failed with a rate-limit
// error. It unwraps to the last provider error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("rate limit retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the last provider error.
func (e *ExhaustedError) Unwrap() error { return e.Last }

// Is matches ErrRateLimitExhausted.
func (e *ExhaustedError) Is(target error) bool { return target == ErrRateLimitExhausted }

// Config controls the retry budget and backoff shape.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the backoff base when the provider gives no wait
	// hint: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxJitter bounds the uniform random jitter added to computed
	// backoff, desynchronizing concurrent callers.
	MaxJitter time.Duration
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxJitter:  time.Second,
	}
}

var (
	waitMillisRe  = regexp.MustCompile(`try again in (\d+)ms`)
	waitSecondsRe = regexp.MustCompile(`try again in ([\d.]+)s`)
)

// IsRateLimit reports whether err looks like a rate-limit failure.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "rate limit") || strings.Contains(msg, "429")
}

// WaitHint extracts an explicit provider wait duration from the error
// text, when present.
func WaitHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	msg := err.Error()
	if m := waitMillisRe.FindStringSubmatch(msg); m != nil {
		ms, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return time.Duration(ms) * time.Millisecond, true
		}
	}
	if m := waitSecondsRe.FindStringSubmatch(msg); m != nil {
		secs, convErr := strconv.ParseFloat(m[1], 64)
		if convErr == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
	}
	return 0, false
}

// Do runs fn, retrying on rate-limit failures up to cfg.MaxRetries
// times. It returns fn's value, the number of retries performed, and
// the final error. Non-rate-limit errors propagate on the first
// occurrence with zero additional attempts.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	var last error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, attempt, nil
		}
		if !IsRateLimit(err) {
			return zero, attempt, err
		}
		last = err

		if attempt == cfg.MaxRetries {
			break
		}

		wait, ok := WaitHint(err)
		if !ok {
			wait = cfg.BaseDelay << uint(attempt)
			if cfg.MaxJitter > 0 {
				wait += time.Duration(rand.Int63n(int64(cfg.MaxJitter)))
			}
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, attempt, err
		}
	}

	return zero, cfg.MaxRetries, &ExhaustedError{Attempts: cfg.MaxRetries + 1, Last: last}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
