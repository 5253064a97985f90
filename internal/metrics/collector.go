package metrics

import (
	"sync"
	"time"
)

// keptDurations bounds the per-command duration history.
const keptDurations = 100

// Collector keeps in-process command statistics, reported by the MCP
// getStatus tool and the server's stats endpoint.
type Collector struct {
	mu sync.RWMutex

	calls     map[string]int64
	errors    map[string]int64
	durations map[string][]time.Duration

	rateLimitHits  int64
	rateLimitTotal int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		calls:     make(map[string]int64),
		errors:    make(map[string]int64),
		durations: make(map[string][]time.Duration),
	}
}

// RecordCommand records a command (or MCP tool) with its status and duration.
// Status is "success", "error" or "rate_limited".
func (c *Collector) RecordCommand(name, status string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[name]++
	switch status {
	case "error":
		c.errors[name]++
	case "rate_limited":
		c.rateLimitHits++
	}
	c.rateLimitTotal++

	durations := append(c.durations[name], duration)
	if len(durations) > keptDurations {
		durations = durations[len(durations)-keptDurations:]
	}
	c.durations[name] = durations
}

// GetStats returns current metrics statistics.
func (c *Collector) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	commandStats := make(map[string]interface{})
	for name, calls := range c.calls {
		errors := c.errors[name]
		errorRate := float64(0)
		if calls > 0 {
			errorRate = float64(errors) / float64(calls)
		}

		var total time.Duration
		durations := c.durations[name]
		for _, d := range durations {
			total += d
		}
		avg := time.Duration(0)
		if len(durations) > 0 {
			avg = total / time.Duration(len(durations))
		}

		commandStats[name] = map[string]interface{}{
			"calls":           calls,
			"errors":          errors,
			"error_rate":      errorRate,
			"avg_duration_us": avg.Microseconds(),
		}
	}

	rateLimitRate := float64(0)
	if c.rateLimitTotal > 0 {
		rateLimitRate = float64(c.rateLimitHits) / float64(c.rateLimitTotal)
	}

	return map[string]interface{}{
		"commands": commandStats,
		"rate_limits": map[string]interface{}{
			"hits":  c.rateLimitHits,
			"total": c.rateLimitTotal,
			"rate":  rateLimitRate,
		},
	}
}

// Reset clears all metrics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = make(map[string]int64)
	c.errors = make(map[string]int64)
	c.durations = make(map[string][]time.Duration)
	c.rateLimitHits = 0
	c.rateLimitTotal = 0
}
