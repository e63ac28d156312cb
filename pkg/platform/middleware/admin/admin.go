package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
	"passport/pkg/requestcontext"
)

// HeaderName carries the operator token.
const HeaderName = "X-Admin-Token"

// RequireAdminToken guards operator routes. An empty expected token locks the
// routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderName)
			// Use constant-time comparison to prevent timing attacks
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "admin token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
