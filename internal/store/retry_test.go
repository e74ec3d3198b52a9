package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestWithRetrySuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "test", fastRetry(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetryRetryableError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "test", fastRetry(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return &StoreError{Driver: "test", Operation: "list", Err: errors.New("database is locked"), Retryable: true}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// Should be called MaxRetries + 1 times (initial + retries)
	if calls != 4 {
		t.Errorf("expected 4 calls (1 initial + 3 retries), got %d", calls)
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Retryable {
		t.Errorf("exhausted error should be a non-retryable StoreError, got %v", err)
	}
}

func TestWithRetryNonRetryableError(t *testing.T) {
	for _, sentinel := range []error{ErrNotFound, ErrSlugTaken} {
		calls := 0
		err := WithRetry(context.Background(), "test", fastRetry(), zerolog.Nop(), func(ctx context.Context) error {
			calls++
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("expected %v, got %v", sentinel, err)
		}
		if calls != 1 {
			t.Errorf("%v: expected 1 call (no retries), got %d", sentinel, calls)
		}
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "test", fastRetry(), zerolog.Nop(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryContextCancellation(t *testing.T) {
	cfg := fastRetry()
	cfg.BaseDelay = 100 * time.Millisecond
	cfg.MaxDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := WithRetry(ctx, "test", cfg, zerolog.Nop(), func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, time.Second}, // capped
	}
	for _, tt := range tests {
		got := calculateDelay(tt.attempt, cfg)
		lo := time.Duration(float64(tt.base) * 0.8)
		hi := time.Duration(float64(tt.base) * 1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", tt.attempt, got, lo, hi)
		}
	}
}

// flakyStore fails the first n calls with a transient error.
type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (f *flakyStore) List(ctx context.Context, opts ListOptions) ([]*Page, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, NewStoreError("flaky", "list", errors.New("database is locked"))
	}
	return f.MemoryStore.List(ctx, opts)
}

func TestWithRetriesDecorator(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	s := WithRetries(flaky, fastRetry(), zerolog.Nop())

	pages, err := s.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
	if flaky.calls != 3 {
		t.Errorf("expected 3 calls, got %d", flaky.calls)
	}
	if u, ok := s.(interface{ Unwrap() Store }); !ok || u.Unwrap() != flaky {
		t.Error("decorator should unwrap to the driver")
	}
}
