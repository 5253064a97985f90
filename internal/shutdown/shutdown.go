package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmmcquay/goban/internal/logging"
)

// DefaultTimeout bounds a signal-triggered shutdown.
const DefaultTimeout = 30 * time.Second

type component struct {
	name string
	fn   func(context.Context) error
}

// Manager coordinates graceful shutdown of multiple components.
type Manager struct {
	logger logging.ContextLogger

	mu         sync.Mutex
	components []component

	once sync.Once
	done chan struct{}
	err  error
}

// NewManager creates a new shutdown manager.
func NewManager(logger logging.ContextLogger) *Manager {
	return &Manager{
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Register adds a component to stop during shutdown. Components stop one at
// a time in reverse order of registration, so a listener registered after
// the matches it feeds is closed first.
func (m *Manager) Register(name string, fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, fn: fn})
}

// HandleSignals starts shutdown on SIGINT, SIGTERM or when ctx ends.
func (m *Manager) HandleSignals(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer stop()
		select {
		case <-ctx.Done():
			m.logger.Info("Received shutdown signal", "cause", context.Cause(ctx).Error())
			_ = m.Shutdown(DefaultTimeout)
		case <-m.done:
		}
	}()
}

// Shutdown stops every component within timeout. Only the first call does
// any work; later calls wait for it and return the same error.
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.once.Do(func() {
		defer close(m.done)
		m.logger.Info("Starting graceful shutdown", "timeout", timeout.String())

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		m.mu.Lock()
		components := append([]component(nil), m.components...)
		m.mu.Unlock()

		var errs []error
		for i := len(components) - 1; i >= 0; i-- {
			if err := m.stop(ctx, components[i]); err != nil {
				errs = append(errs, err)
			}
		}
		m.err = errors.Join(errs...)

		if m.err != nil {
			m.logger.Error("Graceful shutdown completed with errors", "errors", len(errs))
		} else {
			m.logger.Info("Graceful shutdown completed successfully")
		}
	})
	<-m.done
	return m.err
}

func (m *Manager) stop(ctx context.Context, c component) error {
	if err := ctx.Err(); err != nil {
		m.logger.Error("Skipping component, shutdown timed out", "component", c.name)
		return fmt.Errorf("%s: %w", c.name, err)
	}

	m.logger.Info("Shutting down component", "component", c.name)
	start := time.Now()
	err := c.fn(ctx)
	elapsed := time.Since(start).String()
	if err != nil {
		m.logger.Error("Failed to shutdown component", "component", c.name, "error", err.Error(), "elapsed", elapsed)
		return fmt.Errorf("%s: %w", c.name, err)
	}
	m.logger.Info("Component shutdown complete", "component", c.name, "elapsed", elapsed)
	return nil
}

// Done returns a channel that's closed when shutdown is complete.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// WaitForShutdown blocks until shutdown is complete.
func (m *Manager) WaitForShutdown() {
	<-m.done
}
