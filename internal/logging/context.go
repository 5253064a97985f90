package logging

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Context key types
type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	matchIDKey       contextKey = "match_id"
)

// ContextWithCorrelationID adds a correlation ID to the context.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext retrieves the correlation ID from the context.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// ContextWithMatchID tags the context with the match a command belongs to.
func ContextWithMatchID(ctx context.Context, matchID string) context.Context {
	return context.WithValue(ctx, matchIDKey, matchID)
}

// MatchIDFromContext retrieves the match ID from the context.
func MatchIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(matchIDKey).(string)
	return id, ok
}

// GenerateCorrelationID generates a new unique correlation ID.
func GenerateCorrelationID() string {
	return generateID("corr")
}

// GenerateRequestID generates a new unique request ID.
func GenerateRequestID() string {
	return generateID("req")
}

// generateID returns prefix_<uuid without dashes>.
func generateID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
