package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// Config defines retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts (0 = until ctx ends).
	MaxAttempts int
	// InitialDelay is the delay after the first failure.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// Jitter adds randomness to delays (0-1).
	Jitter float64
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// DialConfig returns the backoff used when a client connects to a server.
func DialConfig(attempts int, delay time.Duration) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = delay
	return cfg
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Run returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err}
}

// Manager handles retry logic with exponential backoff.
type Manager struct {
	config  Config
	onRetry func(attempt int, delay time.Duration, err error)
}

// NewManager creates a new retry manager.
func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// OnRetry registers a hook called before each wait.
func (m *Manager) OnRetry(fn func(attempt int, delay time.Duration, err error)) *Manager {
	m.onRetry = fn
	return m
}

// Run calls fn until it succeeds, returns a Permanent error, runs out of
// attempts or ctx ends. It returns the last error from fn.
func (m *Manager) Run(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(ctx, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is Run for functions that produce a value.
func Do[T any](ctx context.Context, m *Manager, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		var p permanent
		if errors.As(err, &p) {
			return zero, p.err
		}
		if m.config.MaxAttempts > 0 && attempt >= m.config.MaxAttempts {
			return zero, err
		}

		delay := m.calculateDelay(attempt)
		if m.onRetry != nil {
			m.onRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Manager) calculateDelay(attempt int) time.Duration {
	delay := float64(m.config.InitialDelay) * math.Pow(m.config.Multiplier, float64(attempt-1))
	if m.config.MaxDelay > 0 && delay > float64(m.config.MaxDelay) {
		delay = float64(m.config.MaxDelay)
	}

	if m.config.Jitter > 0 {
		jitter := delay * m.config.Jitter
		if span := int64(jitter * 2); span > 0 {
			if n, err := rand.Int(rand.Reader, big.NewInt(span)); err == nil {
				delay += float64(n.Int64()) - jitter
			}
		}
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// NextDelay returns the delay that would follow the given attempt.
func (m *Manager) NextDelay(attempt int) time.Duration {
	return m.calculateDelay(attempt)
}
