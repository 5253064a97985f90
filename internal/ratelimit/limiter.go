package ratelimit

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
)

// ErrRateLimited is wrapped by every rejection.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	cleanupInterval = 5 * time.Minute
	staleTimeout    = 30 * time.Minute
)

// Recorder receives limiter decisions. *metrics.PrometheusCollector satisfies it.
type Recorder interface {
	RecordRateLimit(client, command string, hit bool)
}

// Limiter throttles commands per client, with optional tighter limits for
// individual commands (keyed by lowercase verb or tool name).
type Limiter struct {
	logger   logging.ContextLogger
	config   *config.RateLimitConfig
	recorder Recorder

	mu      sync.Mutex
	clients map[string]*clientLimit

	stop chan struct{}
	once sync.Once
}

type clientLimit struct {
	bucket   *TokenBucket
	commands map[string]*TokenBucket
	lastSeen time.Time
}

// NewLimiter creates a limiter. It returns nil when rate limiting is
// disabled; a nil *Limiter allows everything.
func NewLimiter(cfg *config.RateLimitConfig, logger logging.ContextLogger) *Limiter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	l := &Limiter{
		logger:  logger,
		config:  cfg,
		clients: make(map[string]*clientLimit),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// SetRecorder attaches a metrics recorder.
func (l *Limiter) SetRecorder(r Recorder) {
	if l != nil {
		l.recorder = r
	}
}

func perSecond(perMin int) float64 {
	return float64(perMin) / 60.0
}

// commandBurst scales the configured burst to a per-command limit.
func (l *Limiter) commandBurst(limit int) int {
	burst := (l.config.BurstSize * limit) / l.config.RequestsPerMin
	if burst < 1 {
		burst = 1
	}
	return burst
}

// Allow reports whether clientID may run command now.
func (l *Limiter) Allow(clientID, command string) error {
	if l == nil {
		return nil
	}
	command = strings.ToLower(command)
	err := l.allow(clientID, command, time.Now())
	if l.recorder != nil {
		l.recorder.RecordRateLimit(clientID, command, err != nil)
	}
	return err
}

func (l *Limiter) allow(clientID, command string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[clientID]
	if !ok {
		client = &clientLimit{
			bucket:   NewTokenBucket(l.config.BurstSize, perSecond(l.config.RequestsPerMin)),
			commands: make(map[string]*TokenBucket),
		}
		l.clients[clientID] = client
	}
	client.lastSeen = now

	if !client.bucket.AllowAt(1, now) {
		l.logger.Warn("Client rate limit exceeded", "client", clientID, "command", command)
		return fmt.Errorf("%w for client", ErrRateLimited)
	}

	limit, limited := l.config.PerCommandLimits[command]
	if !limited {
		return nil
	}
	bucket, ok := client.commands[command]
	if !ok {
		bucket = NewTokenBucket(l.commandBurst(limit), perSecond(limit))
		client.commands[command] = bucket
	}
	if !bucket.AllowAt(1, now) {
		client.bucket.Refund(1)
		l.logger.Warn("Command rate limit exceeded", "client", clientID, "command", command)
		return fmt.Errorf("%w for %s", ErrRateLimited, command)
	}
	return nil
}

// Delay returns how long clientID should wait before its next command.
func (l *Limiter) Delay(clientID string) time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	client, ok := l.clients[clientID]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	return client.bucket.Delay(1)
}

// Forget drops the tracking for a disconnected client.
func (l *Limiter) Forget(clientID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.clients, clientID)
	l.mu.Unlock()
}

// Reset refills every bucket.
func (l *Limiter) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, client := range l.clients {
		client.bucket.Reset()
		for _, bucket := range client.commands {
			bucket.Reset()
		}
	}
}

// Close stops the background cleanup.
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.removeStale(now)
		}
	}
}

func (l *Limiter) removeStale(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, client := range l.clients {
		if now.Sub(client.lastSeen) > staleTimeout {
			delete(l.clients, id)
			l.logger.Debug("Removed stale client rate limit tracking", "client", id)
		}
	}
}

// GetStatus returns the limiter state for monitoring.
func (l *Limiter) GetStatus() map[string]interface{} {
	if l == nil {
		return map[string]interface{}{"enabled": false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"enabled":        true,
		"requestsPerMin": l.config.RequestsPerMin,
		"burstSize":      l.config.BurstSize,
		"activeClients":  len(l.clients),
		"commandLimits":  l.config.PerCommandLimits,
	}
}
