package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitOpen is returned without calling the driver while the breaker
// is open.
var ErrCircuitOpen = errors.New("store unavailable: circuit open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation, requests allowed
	CircuitOpen                         // Failures exceeded threshold, requests blocked
	CircuitHalfOpen                     // Testing if the backend recovered
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitConfig configures the circuit breaker
type CircuitConfig struct {
	FailureThreshold int           // Transient failures that open the circuit (default: 5)
	SuccessThreshold int           // Successes in half-open that close it (default: 2)
	Timeout          time.Duration // Time open before half-open (default: 30s)
	FailureWindow    time.Duration // Window failures are counted in (default: 1 minute)
}

// DefaultCircuitConfig returns the default circuit breaker configuration
func DefaultCircuitConfig() CircuitConfig {
	return CircuitConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		FailureWindow:    time.Minute,
	}
}

// CircuitBreaker stops calls to a backend that keeps failing with
// transient errors, then probes it again after Timeout. Only retryable
// errors count as failures; not-found and conflicts never trip it.
type CircuitBreaker struct {
	name string
	cfg  CircuitConfig
	log  zerolog.Logger
	now  func() time.Time

	mu              sync.Mutex
	state           CircuitState
	failures        []time.Time
	successes       int
	lastStateChange time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(name string, cfg CircuitConfig, log zerolog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:            name,
		cfg:             cfg,
		log:             log,
		now:             time.Now,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.lastStateChange) < cb.cfg.Timeout {
			return false
		}
		cb.transitionTo(CircuitHalfOpen)
	}
	return true
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err == nil:
		cb.recordSuccess()
	case shouldRetry(err):
		cb.recordFailure()
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	case CircuitClosed:
		cb.failures = cb.failures[:0]
	}
}

func (cb *CircuitBreaker) recordFailure() {
	now := cb.now()
	cb.failures = append(cb.failures, now)

	cutoff := now.Add(-cb.cfg.FailureWindow)
	recent := cb.failures[:0]
	for _, t := range cb.failures {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	cb.failures = recent

	switch cb.state {
	case CircuitClosed:
		if len(cb.failures) >= cb.cfg.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(state CircuitState) {
	if cb.state == state {
		return
	}
	old := cb.state
	cb.state = state
	cb.lastStateChange = cb.now()
	cb.successes = 0
	if state == CircuitClosed {
		cb.failures = cb.failures[:0]
	}

	event := cb.log.Info()
	if state == CircuitOpen {
		event = cb.log.Warn()
	}
	event.Str("store", cb.name).Stringer("from", old).Stringer("to", state).Msg("circuit state changed")
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(CircuitClosed)
}

// breaking decorates a Store with a circuit breaker.
type breaking struct {
	next Store
	cb   *CircuitBreaker
}

// WithCircuitBreaker wraps s so calls fail fast with ErrCircuitOpen while
// cb is open.
func WithCircuitBreaker(s Store, cb *CircuitBreaker) Store {
	return &breaking{next: s, cb: cb}
}

func (b *breaking) Create(ctx context.Context, p *Page) error {
	return b.cb.Execute(ctx, func(ctx context.Context) error {
		return b.next.Create(ctx, p)
	})
}

func (b *breaking) Get(ctx context.Context, id, owner string) (*Page, error) {
	var out *Page
	err := b.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = b.next.Get(ctx, id, owner)
		return err
	})
	return out, err
}

func (b *breaking) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	var out *Page
	err := b.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = b.next.GetBySlug(ctx, slug)
		return err
	})
	return out, err
}

func (b *breaking) Update(ctx context.Context, p *Page) error {
	return b.cb.Execute(ctx, func(ctx context.Context) error {
		return b.next.Update(ctx, p)
	})
}

func (b *breaking) Delete(ctx context.Context, id, owner string) error {
	return b.cb.Execute(ctx, func(ctx context.Context) error {
		return b.next.Delete(ctx, id, owner)
	})
}

func (b *breaking) List(ctx context.Context, opts ListOptions) ([]*Page, error) {
	var out []*Page
	err := b.cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = b.next.List(ctx, opts)
		return err
	})
	return out, err
}

func (b *breaking) Close() error { return b.next.Close() }

// Unwrap returns the decorated store.
func (b *breaking) Unwrap() Store { return b.next }
