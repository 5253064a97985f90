package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusOnce     sync.Once
	prometheusInstance *PrometheusCollector
)

// PrometheusCollector provides Prometheus metrics for the Go server.
type PrometheusCollector struct {
	// Command metrics
	commandsTotal       *prometheus.CounterVec
	commandErrorsTotal  *prometheus.CounterVec
	commandDurationSecs *prometheus.HistogramVec

	// Rate limit metrics
	rateLimitHitsTotal   *prometheus.CounterVec
	rateLimitChecksTotal prometheus.Counter

	// Game metrics
	gamesStartedTotal  *prometheus.CounterVec
	gamesFinishedTotal *prometheus.CounterVec
	phaseChangesTotal  *prometheus.CounterVec
	movesTotal         *prometheus.CounterVec
	passesTotal        *prometheus.CounterVec
	activeMatches      prometheus.Gauge

	// MCP tool metrics
	toolCallsTotal   *prometheus.CounterVec
	toolDurationSecs *prometheus.HistogramVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Connection metrics
	activeConnections *prometheus.GaugeVec

	// Cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheItems       prometheus.Gauge
}

// NewPrometheusCollector creates a new Prometheus metrics collector (singleton).
func NewPrometheusCollector() *PrometheusCollector {
	prometheusOnce.Do(func() {
		prometheusInstance = &PrometheusCollector{
			commandsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_commands_total",
					Help: "Total number of player commands handled",
				},
				[]string{"verb", "status"},
			),
			commandErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_command_errors_total",
					Help: "Total number of rejected player commands",
				},
				[]string{"verb", "error_type"},
			),
			commandDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "goban_command_duration_seconds",
					Help:    "Time to apply a command and broadcast its events",
					Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
				},
				[]string{"verb"},
			),

			rateLimitHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_rate_limit_hits_total",
					Help: "Total number of rate limit hits",
				},
				[]string{"client", "verb"},
			),
			rateLimitChecksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "goban_rate_limit_checks_total",
					Help: "Total number of rate limit checks",
				},
			),

			gamesStartedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_games_started_total",
					Help: "Total number of games started",
				},
				[]string{"board_size"},
			),
			gamesFinishedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_games_finished_total",
					Help: "Total number of finished games by reason and winner",
				},
				[]string{"reason", "winner"},
			),
			phaseChangesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_phase_changes_total",
					Help: "Total number of phase transitions by target phase",
				},
				[]string{"phase"},
			),
			movesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_moves_total",
					Help: "Total number of accepted stone placements",
				},
				[]string{"color"},
			),
			passesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_passes_total",
					Help: "Total number of passes",
				},
				[]string{"color"},
			),
			activeMatches: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "goban_active_matches",
					Help: "Number of matches currently in progress",
				},
			),

			toolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_mcp_tool_calls_total",
					Help: "Total number of MCP tool calls",
				},
				[]string{"tool", "status"},
			),
			toolDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "goban_mcp_tool_duration_seconds",
					Help:    "Duration of MCP tool calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),

			httpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "goban_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			httpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "goban_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),

			activeConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "goban_active_connections",
					Help: "Number of connected players by transport",
				},
				[]string{"transport"},
			),

			cacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "goban_analysis_cache_hits_total",
					Help: "Total number of analysis cache hits",
				},
			),
			cacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "goban_analysis_cache_misses_total",
					Help: "Total number of analysis cache misses",
				},
			),
			cacheItems: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "goban_analysis_cache_items",
					Help: "Current number of cached analysis reports",
				},
			),
		}
	})
	return prometheusInstance
}

// RecordCommand records a handled command.
func (p *PrometheusCollector) RecordCommand(verb, status string, durationSecs float64) {
	p.commandsTotal.WithLabelValues(verb, status).Inc()
	p.commandDurationSecs.WithLabelValues(verb).Observe(durationSecs)
}

// RecordCommandError records why a command was rejected.
func (p *PrometheusCollector) RecordCommandError(verb, errorType string) {
	p.commandErrorsTotal.WithLabelValues(verb, errorType).Inc()
}

// RecordRateLimit records a rate limit event.
func (p *PrometheusCollector) RecordRateLimit(client, verb string, hit bool) {
	p.rateLimitChecksTotal.Inc()
	if hit {
		p.rateLimitHitsTotal.WithLabelValues(client, verb).Inc()
	}
}

// RecordGameStarted records a new game and counts it as active.
func (p *PrometheusCollector) RecordGameStarted(boardSize string) {
	p.gamesStartedTotal.WithLabelValues(boardSize).Inc()
	p.activeMatches.Inc()
}

// RecordGameFinished records a finished game and removes it from the active count.
func (p *PrometheusCollector) RecordGameFinished(reason, winner string) {
	p.gamesFinishedTotal.WithLabelValues(reason, winner).Inc()
	p.activeMatches.Dec()
}

// RecordGameAbandoned removes a game that ended without a result from the active count.
func (p *PrometheusCollector) RecordGameAbandoned() {
	p.activeMatches.Dec()
}

// RecordPhaseChange records a phase transition.
func (p *PrometheusCollector) RecordPhaseChange(phase string) {
	p.phaseChangesTotal.WithLabelValues(phase).Inc()
}

// RecordMove records an accepted stone placement.
func (p *PrometheusCollector) RecordMove(color string) {
	p.movesTotal.WithLabelValues(color).Inc()
}

// RecordPass records a pass.
func (p *PrometheusCollector) RecordPass(color string) {
	p.passesTotal.WithLabelValues(color).Inc()
}

// RecordToolCall records an MCP tool call metric.
func (p *PrometheusCollector) RecordToolCall(tool, status string, durationSecs float64) {
	p.toolCallsTotal.WithLabelValues(tool, status).Inc()
	p.toolDurationSecs.WithLabelValues(tool).Observe(durationSecs)
}

// RecordHTTPRequest records an HTTP request.
func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, durationSecs float64) {
	p.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(durationSecs)
}

// ConnectionOpened increments the connection gauge for transport.
func (p *PrometheusCollector) ConnectionOpened(transport string) {
	p.activeConnections.WithLabelValues(transport).Inc()
}

// ConnectionClosed decrements the connection gauge for transport.
func (p *PrometheusCollector) ConnectionClosed(transport string) {
	p.activeConnections.WithLabelValues(transport).Dec()
}

// RecordCacheHit records a cache hit.
func (p *PrometheusCollector) RecordCacheHit() {
	p.cacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss.
func (p *PrometheusCollector) RecordCacheMiss() {
	p.cacheMissesTotal.Inc()
}

// SetCacheItems sets the current number of cached items.
func (p *PrometheusCollector) SetCacheItems(items float64) {
	p.cacheItems.Set(items)
}
