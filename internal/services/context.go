package services

import "context"

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	identifierKey contextKey = "identifier"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithIdentifier annotates context with the external series identifier being classified.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	if identifier == "" {
		return ctx
	}
	return context.WithValue(ctx, identifierKey, identifier)
}

// IdentifierFromContext returns the series identifier if present.
func IdentifierFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(identifierKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
