// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping this package free
// of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	principal := requestcontext.Principal(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithPrincipal(ctx, addr)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"passport/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Principal retrieves the authenticated caller address.
// Returns the zero address if not set.
func Principal(ctx context.Context) domain.Address {
	if addr, ok := ctx.Value(ContextKeyPrincipal).(domain.Address); ok {
		return addr
	}
	return domain.Address{}
}

// WithPrincipal injects the authenticated caller address into the context.
func WithPrincipal(ctx context.Context, addr domain.Address) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, addr)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
