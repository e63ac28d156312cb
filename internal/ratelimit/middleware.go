package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
	"passport/pkg/requestcontext"
)

// Limiter applies one limit to every request that reaches it.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware keys requests by the authenticated principal and falls back to
// the client IP. It must run after authentication to see the principal.
// Store failures let the request through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := clientKey(r)

		result, err := l.store.Allow(ctx, key, l.limit, l.window)
		if err != nil {
			l.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if p := requestcontext.Principal(r.Context()); !p.IsZero() {
		return "principal:" + p.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
