package shared

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
	"passport/pkg/requestcontext"
)

// WriteError logs err at a level matching its class and writes the error
// envelope. Client errors are warnings; everything mapped to 5xx is an
// error.
func WriteError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, msg string, err error) {
	status := httputil.StatusFor(dErrors.CodeOf(err))
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg, attrs...)
	} else {
		logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
