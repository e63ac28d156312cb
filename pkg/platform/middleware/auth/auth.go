package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
	"passport/pkg/requestcontext"
)

// PrincipalResolver turns a bearer token into the caller's address.
type PrincipalResolver interface {
	Principal(token string) (domain.Address, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal in the request context.
func RequireAuth(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "missing or invalid Authorization header"))
				return
			}

			principal, err := resolver.Principal(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}
