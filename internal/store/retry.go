package store

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay between retries (default: 100ms)
	MaxDelay   time.Duration // Maximum delay between retries (default: 5s)
	Multiplier float64       // Delay multiplier for exponential backoff (default: 2.0)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry runs fn until it succeeds, fails with a non-retryable error,
// or runs out of attempts.
func WithRetry(ctx context.Context, op string, cfg RetryConfig, log zerolog.Logger, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Debug().Str("op", op).Int("attempt", attempt+1).Msg("store operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		if attempt < cfg.MaxRetries {
			delay := calculateDelay(attempt, cfg)
			log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Dur("delay", delay).Msg("store operation failed, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	log.Error().Err(lastErr).Str("op", op).Int("attempts", cfg.MaxRetries+1).Msg("store operation failed")

	var storeErr *StoreError
	if errors.As(lastErr, &storeErr) {
		storeErr.Retryable = false // Already exhausted retries
		return lastErr
	}
	return &StoreError{Driver: "retry", Operation: op, Err: lastErr}
}

// shouldRetry determines if an error should be retried
func shouldRetry(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}
	return isRetryableError(err)
}

// calculateDelay computes the delay for the given attempt using exponential backoff with jitter
func calculateDelay(attempt int, cfg RetryConfig) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(cfg.BaseDelay) * math.Pow(multiplier, float64(attempt))

	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	// Randomize between 80% and 120% of delay to prevent thundering herd
	jitter := 0.8 + rand.Float64()*0.4
	delay *= jitter

	return time.Duration(delay)
}

// retrying decorates a Store with WithRetry on every call.
type retrying struct {
	next Store
	cfg  RetryConfig
	log  zerolog.Logger
}

// WithRetries wraps s so transient failures are retried.
func WithRetries(s Store, cfg RetryConfig, log zerolog.Logger) Store {
	return &retrying{next: s, cfg: cfg, log: log}
}

func (r *retrying) Create(ctx context.Context, p *Page) error {
	return WithRetry(ctx, "create", r.cfg, r.log, func(ctx context.Context) error {
		return r.next.Create(ctx, p)
	})
}

func (r *retrying) Get(ctx context.Context, id, owner string) (*Page, error) {
	var out *Page
	err := WithRetry(ctx, "get", r.cfg, r.log, func(ctx context.Context) error {
		var err error
		out, err = r.next.Get(ctx, id, owner)
		return err
	})
	return out, err
}

func (r *retrying) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	var out *Page
	err := WithRetry(ctx, "get by slug", r.cfg, r.log, func(ctx context.Context) error {
		var err error
		out, err = r.next.GetBySlug(ctx, slug)
		return err
	})
	return out, err
}

func (r *retrying) Update(ctx context.Context, p *Page) error {
	return WithRetry(ctx, "update", r.cfg, r.log, func(ctx context.Context) error {
		return r.next.Update(ctx, p)
	})
}

func (r *retrying) Delete(ctx context.Context, id, owner string) error {
	return WithRetry(ctx, "delete", r.cfg, r.log, func(ctx context.Context) error {
		return r.next.Delete(ctx, id, owner)
	})
}

func (r *retrying) List(ctx context.Context, opts ListOptions) ([]*Page, error) {
	var out []*Page
	err := WithRetry(ctx, "list", r.cfg, r.log, func(ctx context.Context) error {
		var err error
		out, err = r.next.List(ctx, opts)
		return err
	})
	return out, err
}

func (r *retrying) Close() error { return r.next.Close() }

// Unwrap returns the decorated store.
func (r *retrying) Unwrap() Store { return r.next }

// Unwrap returns the driver beneath any decorators.
func Unwrap(s Store) Store {
	for {
		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			return s
		}
		s = u.Unwrap()
	}
}
