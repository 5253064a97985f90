package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmmcquay/goban/internal/logging"
)

func passing(metadata map[string]interface{}) Check {
	return func(context.Context) (map[string]interface{}, error) { return metadata, nil }
}

func failing(err error) Check {
	return func(context.Context) (map[string]interface{}, error) { return nil, err }
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", map[string]Check{"lobby": passing(nil), "listener": passing(nil)}, StatusHealthy},
		{"one degraded", map[string]Check{
			"lobby":    passing(nil),
			"listener": failing(fmt.Errorf("accept backlog: %w", ErrDegraded)),
		}, StatusDegraded},
		{"unhealthy beats degraded", map[string]Check{
			"lobby":    failing(fmt.Errorf("slow: %w", ErrDegraded)),
			"listener": failing(errors.New("closed")),
		}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(logging.NewNop(), "1.0.0")
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}
			response := checker.CheckHealth(context.Background())
			assert.Equal(t, tt.want, response.Status)
			assert.Len(t, response.Components, len(tt.checks))
			assert.Equal(t, "1.0.0", response.Version)
		})
	}
}

func TestComponentsSortedWithMetadata(t *testing.T) {
	checker := NewChecker(logging.NewNop(), "dev")
	checker.RegisterCheck("matches", passing(map[string]interface{}{"active": 2}))
	checker.RegisterCheck("lobby", failing(errors.New("closed")))

	response := checker.CheckHealth(context.Background())
	require.Len(t, response.Components, 2)
	assert.Equal(t, "lobby", response.Components[0].Name)
	assert.Equal(t, "closed", response.Components[0].Message)
	assert.Equal(t, "matches", response.Components[1].Name)
	assert.Equal(t, 2, response.Components[1].Metadata["active"])
}

func TestCheckTimeoutPropagates(t *testing.T) {
	checker := NewChecker(logging.NewNop(), "dev")
	checker.RegisterCheck("slow", func(ctx context.Context) (map[string]interface{}, error) {
		_, ok := ctx.Deadline()
		if !ok {
			return nil, errors.New("no deadline")
		}
		return nil, nil
	})
	assert.Equal(t, StatusHealthy, checker.CheckHealth(context.Background()).Status)
}

func TestLivenessHandler(t *testing.T) {
	checker := NewChecker(logging.NewNop(), "1.2.3")
	checker.RegisterCheck("broken", failing(errors.New("down")))

	rec := httptest.NewRecorder()
	checker.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Empty(t, body.Components)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		want     Status
	}{
		{"healthy", nil, http.StatusOK, StatusHealthy},
		{"degraded still ready", fmt.Errorf("queue: %w", ErrDegraded), http.StatusOK, StatusDegraded},
		{"unhealthy", errors.New("listener closed"), http.StatusServiceUnavailable, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(logging.NewNop(), "dev")
			checker.RegisterCheck("listener", failing(tt.err))

			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Status)
			require.Len(t, body.Components, 1)
			assert.WithinDuration(t, time.Now(), body.Components[0].LastChecked, time.Minute)
		})
	}
}
