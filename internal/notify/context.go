package notify

import "context"

// ctxKey is the private context key for the current request id.
type ctxKey struct{}

// WithRequestID binds the audit request id to the context so deeply nested
// callers (the retry tracker in particular) can publish events without the
// id being threaded through every signature.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFrom returns the bound request id, or "" when none is set.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}
