package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/metrics"
	"github.com/dmmcquay/goban/internal/ratelimit"
)

// ToolRecorder receives per-tool Prometheus metrics.
// *metrics.PrometheusCollector satisfies it.
type ToolRecorder interface {
	RecordToolCall(tool, status string, durationSecs float64)
}

// Middleware wraps MCP tool handlers with rate limiting, metrics and logging.
type Middleware struct {
	logger      logging.ContextLogger
	metrics     *metrics.Collector
	recorder    ToolRecorder
	rateLimiter *ratelimit.Limiter
}

// NewMiddleware creates a new middleware instance. rateLimiter may be nil.
func NewMiddleware(logger logging.ContextLogger, metrics *metrics.Collector, rateLimiter *ratelimit.Limiter) *Middleware {
	return &Middleware{
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rateLimiter,
	}
}

// SetRecorder also reports tool calls to r.
func (m *Middleware) SetRecorder(r ToolRecorder) {
	m.recorder = r
}

// ToolHandler is the function signature for MCP tool handlers.
type ToolHandler = server.ToolHandlerFunc

// WrapTool wraps a tool handler with middleware functionality.
func (m *Middleware) WrapTool(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		clientID := extractClientID(ctx, request)
		logger := m.logger.WithFields(map[string]interface{}{"tool": toolName, "client": clientID})

		logger.Debug("Tool request received", "arguments", request.Params.Arguments)

		if err := m.rateLimiter.Allow(clientID, toolName); err != nil {
			logger.Warn("Rate limit exceeded", "error", err.Error())
			m.record(toolName, "rate_limited", time.Since(start))
			return nil, fmt.Errorf("rate limit exceeded for tool %s: %w", toolName, err)
		}

		result, err := handler(ctx, request)

		status := "success"
		switch {
		case err != nil:
			status = "error"
			logger.Error("Tool request failed", "error", err.Error(), "duration", time.Since(start))
		case result != nil && result.IsError:
			// Rejected game commands.
			status = "error"
			logger.Info("Tool request rejected", "duration", time.Since(start))
		default:
			logger.Info("Tool request completed", "duration", time.Since(start))
		}
		m.record(toolName, status, time.Since(start))

		return result, err
	}
}

func (m *Middleware) record(tool, status string, d time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordCommand(tool, status, d)
	}
	if m.recorder != nil {
		m.recorder.RecordToolCall(tool, status, d.Seconds())
	}
}

type clientIDKey struct{}

// WithClientID returns a context that identifies the caller for rate limiting.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// extractClientID finds a client identifier in the context, the request
// arguments or the MCP session, in that order.
func extractClientID(ctx context.Context, request mcp.CallToolRequest) string {
	if clientID, ok := ctx.Value(clientIDKey{}).(string); ok && clientID != "" {
		return clientID
	}

	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if clientID, ok := args["clientID"].(string); ok && clientID != "" {
			return clientID
		}
	}

	if session := server.ClientSessionFromContext(ctx); session != nil && session.SessionID() != "" {
		return session.SessionID()
	}

	return "anonymous"
}
