package logger

import (
	"context"
	"log/slog"
)

type correlationKey struct{}

// WithCorrelationID stores the request correlation id on ctx
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationID returns the id stored by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// FromContext scopes base to the correlation id carried by ctx
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}
