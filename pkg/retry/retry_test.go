package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitHint(t *testing.T) {
	d, ok := WaitHint(errors.New("Rate limit reached. Please try again in 198ms."))
	if !ok {
		t.Fatal("expected a wait hint")
	}
	if d != 198*time.Millisecond {
		t.Errorf("expected 198ms, got %s", d)
	}

	d, ok = WaitHint(errors.New("429: please try again in 1.5s"))
	if !ok {
		t.Fatal("expected a wait hint")
	}
	if d != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %s", d)
	}

	if _, ok := WaitHint(errors.New("rate limit exceeded")); ok {
		t.Error("expected no hint without a try-again clause")
	}
}

func TestDo_HonorsWaitHint(t *testing.T) {
	cfg := Config{MaxRetries: 3, BaseDelay: 10 * time.Second}

	calls := 0
	start := time.Now()
	result, retries, err := Do(context.Background(), cfg, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("rate limit reached, try again in 198ms")
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result ok, got %q", result)
	}
	if retries != 1 {
		t.Errorf("expected 1 retry, got %d", retries)
	}
	if elapsed < 198*time.Millisecond {
		t.Errorf("expected a sleep of at least the hinted 198ms, slept %s", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("expected the hint to override exponential backoff, slept %s", elapsed)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	cfg := Config{MaxRetries: 3, BaseDelay: time.Millisecond}

	calls := 0
	_, retries, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("429 too many requests, try again in 1ms")
	})

	if calls != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", calls)
	}
	if retries != 3 {
		t.Errorf("expected 3 retries reported, got %d", retries)
	}
	if !errors.Is(err, ErrRateLimitExhausted) {
		t.Errorf("expected rate-limit exhaustion, got %v", err)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatal("expected an *ExhaustedError")
	}
	if exhausted.Attempts != 4 {
		t.Errorf("expected 4 attempts recorded, got %d", exhausted.Attempts)
	}
	if exhausted.Last == nil {
		t.Error("expected the last provider error to be preserved")
	}
}

func TestDo_NonRateLimitPropagatesImmediately(t *testing.T) {
	cfg := DefaultConfig()

	authErr := errors.New("401 unauthorized: invalid credentials")
	calls := 0
	_, retries, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, authErr
	})

	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	if retries != 0 {
		t.Errorf("expected zero retries, got %d", retries)
	}
	if !errors.Is(err, authErr) {
		t.Errorf("expected the original error, got %v", err)
	}
	if errors.Is(err, ErrRateLimitExhausted) {
		t.Error("non-rate-limit failure must not be tagged as exhaustion")
	}
}

func TestDo_ContextCancellationAbortsSleep(t *testing.T) {
	cfg := Config{MaxRetries: 3, BaseDelay: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Do(ctx, cfg, func(context.Context) (int, error) {
		return 0, errors.New("rate limit, try again in 10s")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, got %v", err)
	}
}

func TestIsRateLimit(t *testing.T) {
	if !IsRateLimit(errors.New("Rate Limit exceeded")) {
		t.Error("expected rate limit text to classify as retryable")
	}
	if !IsRateLimit(errors.New("http 429")) {
		t.Error("expected 429 to classify as retryable")
	}
	if IsRateLimit(errors.New("404 not found")) {
		t.Error("expected 404 to classify as fatal")
	}
	if IsRateLimit(nil) {
		t.Error("nil error is not a rate limit")
	}
}
