package cache

import (
	"time"

	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
)

// Recorder receives cache events. *metrics.PrometheusCollector satisfies it.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	SetCacheItems(items float64)
}

// Manager memoizes analysis reports by board layout. Reports depend only on
// stone placement, so positions reached through different move orders share
// an entry.
type Manager struct {
	cache    *LRU[analysis.Report]
	logger   logging.ContextLogger
	recorder Recorder
	enabled  bool
	ttl      time.Duration
}

// NewManager creates a new cache manager. A nil or disabled config yields a
// manager that always recomputes.
func NewManager(cfg *config.CacheConfig, logger logging.ContextLogger) *Manager {
	if cfg == nil || !cfg.Enabled {
		return &Manager{logger: logger}
	}
	return &Manager{
		cache:   NewLRU[analysis.Report](cfg.MaxItems),
		logger:  logger,
		enabled: true,
		ttl:     time.Duration(cfg.TTL) * time.Second,
	}
}

// SetRecorder attaches a metrics recorder.
func (m *Manager) SetRecorder(r Recorder) {
	m.recorder = r
}

// Analyze returns the report for p, whose layout digest is key, computing
// and storing it on a miss.
func (m *Manager) Analyze(key string, p analysis.Position) analysis.Report {
	if !m.enabled {
		return analysis.Analyze(p)
	}

	if report, ok := m.Get(key); ok {
		return report
	}
	report := analysis.Analyze(p)
	m.Put(key, report)
	return report
}

// Get retrieves a cached report, dropping it when older than the TTL.
func (m *Manager) Get(key string) (analysis.Report, bool) {
	if !m.enabled {
		return analysis.Report{}, false
	}

	report, stored, ok := m.cache.getStamped(key)
	if ok && m.ttl > 0 && time.Since(stored) > m.ttl {
		m.cache.Delete(key)
		m.logger.Debug("Cache entry expired", "key", key, "age", time.Since(stored).String())
		ok = false
	}
	if m.recorder != nil {
		if ok {
			m.recorder.RecordCacheHit()
		} else {
			m.recorder.RecordCacheMiss()
		}
	}
	return report, ok
}

// Put stores a report under key.
func (m *Manager) Put(key string, report analysis.Report) {
	if !m.enabled {
		return
	}
	m.cache.Put(key, report)
	if m.recorder != nil {
		m.recorder.SetCacheItems(float64(m.cache.Len()))
	}
	m.logger.Debug("Cached analysis report", "key", key, "score", report.Score.String())
}

// Stats returns cache statistics.
func (m *Manager) Stats() Stats {
	if !m.enabled {
		return Stats{}
	}
	return m.cache.Stats()
}

// Clear clears the cache.
func (m *Manager) Clear() {
	if m.enabled {
		m.cache.Clear()
	}
}

// IsEnabled returns whether caching is enabled.
func (m *Manager) IsEnabled() bool {
	return m.enabled
}
