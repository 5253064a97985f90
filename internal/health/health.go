package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dmmcquay/goban/internal/logging"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded means the component works but needs attention.
	StatusDegraded Status = "degraded"
)

const checkTimeout = 5 * time.Second

// ErrDegraded marks a check failure as degraded rather than unhealthy.
var ErrDegraded = errors.New("degraded")

// Check reports a component's state. Returned metadata is attached to the
// component even when the check fails.
type Check func(ctx context.Context) (map[string]interface{}, error)

// Component represents a system component with health status.
type Component struct {
	Name        string                 `json:"name"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Response is the body of the health endpoints.
type Response struct {
	Status     Status      `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
	Components []Component `json:"components,omitempty"`
	Version    string      `json:"version,omitempty"`
	Uptime     string      `json:"uptime,omitempty"`
}

// Checker runs registered health checks.
type Checker struct {
	logger  logging.ContextLogger
	version string
	started time.Time

	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates a new health checker.
func NewChecker(logger logging.ContextLogger, version string) *Checker {
	return &Checker{
		logger:  logger,
		version: version,
		started: time.Now(),
		checks:  make(map[string]Check),
	}
}

// RegisterCheck registers a health check for a component, replacing any
// check with the same name.
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// CheckHealth runs all checks in parallel. The overall status is the worst
// component status.
func (c *Checker) CheckHealth(ctx context.Context) Response {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	response := Response{
		Status:     StatusHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    c.version,
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Components: make([]Component, 0, len(checks)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			component := c.run(ctx, name, check)
			mu.Lock()
			response.Components = append(response.Components, component)
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	sort.Slice(response.Components, func(i, j int) bool {
		return response.Components[i].Name < response.Components[j].Name
	})
	for _, component := range response.Components {
		switch component.Status {
		case StatusUnhealthy:
			response.Status = StatusUnhealthy
		case StatusDegraded:
			if response.Status == StatusHealthy {
				response.Status = StatusDegraded
			}
		}
	}
	return response
}

func (c *Checker) run(ctx context.Context, name string, check Check) Component {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	metadata, err := check(ctx)
	component := Component{
		Name:        name,
		Status:      StatusHealthy,
		LastChecked: time.Now().UTC(),
		Metadata:    metadata,
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrDegraded):
		component.Status = StatusDegraded
		component.Message = err.Error()
		c.logger.WithField("component", name).Warn("Health check degraded", "error", err.Error())
	default:
		component.Status = StatusUnhealthy
		component.Message = err.Error()
		c.logger.WithField("component", name).Error("Health check failed", "error", err.Error())
	}
	return component
}

// LivenessHandler answers 200 whenever the process can serve requests.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, http.StatusOK, Response{
			Status:    StatusHealthy,
			Timestamp: time.Now().UTC(),
			Version:   c.version,
			Uptime:    time.Since(c.started).Round(time.Second).String(),
		})
	}
}

// ReadinessHandler runs every check and answers 503 when any is unhealthy.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithCorrelationID(r.Context(), logging.GenerateCorrelationID())
		c.logger.WithContext(ctx).Debug("Performing readiness check")

		response := c.CheckHealth(ctx)
		status := http.StatusOK
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.write(w, status, response)
	}
}

func (c *Checker) write(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		c.logger.Error("Failed to encode health response", "error", err.Error())
	}
}
