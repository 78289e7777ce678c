package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/podforge/podforge/pkg/podcast"
)

var errTest = errors.New("test error")

func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func TestPolicy_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPolicy_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTest
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errTest
	})
	if !errors.Is(err, errTest) {
		t.Fatalf("err = %v, want errTest", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPolicy_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	vErr := &podcast.ValidationError{Field: "topic", Reason: "empty"}
	err := fastPolicy().Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return vErr
	})
	if !errors.As(err, new(*podcast.ValidationError)) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (validation errors are not retryable)", calls)
	}
}

func TestPolicy_HonorsRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	policy := Policy{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		MaxBackoff:  time.Second,
	}
	err := policy.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &podcast.RateLimitError{RetryAfter: 50 * time.Millisecond, Err: errTest}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 50ms (RetryAfter hint should win over backoff)", elapsed)
	}
}

func TestPolicy_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{
		MaxAttempts: 3,
		Backoff:     time.Hour, // never actually wait this out
	}
	calls := 0
	err := policy.Do(ctx, "test", func(ctx context.Context) error {
		calls++
		cancel()
		return errTest
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDefaultRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errTest, true},
		{"rate limit", &podcast.RateLimitError{Err: errTest}, true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"validation", &podcast.ValidationError{Field: "topic", Reason: "empty"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryable(tt.err); got != tt.want {
				t.Errorf("DefaultRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
