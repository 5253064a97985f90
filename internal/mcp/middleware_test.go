package mcp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/metrics"
	"github.com/dmmcquay/goban/internal/ratelimit"
)

type toolCall struct {
	tool, status string
}

type fakeToolRecorder struct {
	mu    sync.Mutex
	calls []toolCall
}

func (r *fakeToolRecorder) RecordToolCall(tool, status string, _ float64) {
	r.mu.Lock()
	r.calls = append(r.calls, toolCall{tool, status})
	r.mu.Unlock()
}

func toolStats(t *testing.T, c *metrics.Collector, tool string) map[string]interface{} {
	t.Helper()
	commands := c.GetStats()["commands"].(map[string]interface{})
	require.Contains(t, commands, tool)
	return commands[tool].(map[string]interface{})
}

func TestMiddleware(t *testing.T) {
	logger := logging.NewNop()

	t.Run("WrapTool", func(t *testing.T) {
		collector := metrics.NewCollector()
		rec := &fakeToolRecorder{}
		middleware := NewMiddleware(logger, collector, nil)
		middleware.SetRecorder(rec)

		var called bool
		wrapped := middleware.WrapTool("testTool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return mcp.NewToolResultText("success"), nil
		})

		result, err := wrapped(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.True(t, called)
		assert.NotNil(t, result)
		assert.Equal(t, int64(1), toolStats(t, collector, "testTool")["calls"])
		assert.Equal(t, []toolCall{{"testTool", "success"}}, rec.calls)
	})

	t.Run("Errors", func(t *testing.T) {
		collector := metrics.NewCollector()
		rec := &fakeToolRecorder{}
		middleware := NewMiddleware(logger, collector, nil)
		middleware.SetRecorder(rec)

		failing := middleware.WrapTool("failing", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("boom")
		})
		rejected := middleware.WrapTool("rejected", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("ERROR illegal move"), nil
		})

		_, err := failing(context.Background(), mcp.CallToolRequest{})
		assert.EqualError(t, err, "boom")
		res, err := rejected(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.True(t, res.IsError)

		assert.Equal(t, int64(1), toolStats(t, collector, "failing")["errors"])
		assert.Equal(t, int64(1), toolStats(t, collector, "rejected")["errors"])
		assert.Equal(t, []toolCall{{"failing", "error"}, {"rejected", "error"}}, rec.calls)
	})

	t.Run("RateLimiting", func(t *testing.T) {
		limiter := ratelimit.NewLimiter(&config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstSize:      1,
		}, logger)
		defer limiter.Close()

		collector := metrics.NewCollector()
		rec := &fakeToolRecorder{}
		middleware := NewMiddleware(logger, collector, limiter)
		middleware.SetRecorder(rec)

		callCount := 0
		wrapped := middleware.WrapTool("testTool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			callCount++
			return mcp.NewToolResultText("success"), nil
		})

		ctx := WithClientID(context.Background(), "client-1")
		_, err := wrapped(ctx, mcp.CallToolRequest{})
		require.NoError(t, err)

		_, err = wrapped(ctx, mcp.CallToolRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
		assert.Contains(t, err.Error(), "rate limit exceeded for tool testTool")
		assert.Equal(t, 1, callCount)
		assert.Equal(t, toolCall{"testTool", "rate_limited"}, rec.calls[1])

		// Other clients have their own bucket.
		_, err = wrapped(WithClientID(context.Background(), "client-2"), mcp.CallToolRequest{})
		assert.NoError(t, err)

		limits := collector.GetStats()["rate_limits"].(map[string]interface{})
		assert.Equal(t, int64(1), limits["hits"])
	})
}

func TestExtractClientID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		args interface{}
		want string
	}{
		{"context", WithClientID(context.Background(), "ctx-client"), map[string]interface{}{"clientID": "arg-client"}, "ctx-client"},
		{"arguments", context.Background(), map[string]interface{}{"clientID": "arg-client"}, "arg-client"},
		{"empty argument", context.Background(), map[string]interface{}{"clientID": ""}, "anonymous"},
		{"no arguments", context.Background(), nil, "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: tt.args}}
			assert.Equal(t, tt.want, extractClientID(tt.ctx, req))
		})
	}
}
