// Package httputil writes JSON responses and maps domain errors onto HTTP
// status codes.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "passport/pkg/domain-errors"
)

// maxBodyBytes caps request bodies decoded by DecodeJSON.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// StatusFor maps an error code onto its HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case dErrors.CodeUnauthorized, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvalidState, dErrors.CodeExpired, dErrors.CodeNotYetExpired:
		return http.StatusConflict
	case dErrors.CodeInvalidReveal:
		return http.StatusUnprocessableEntity
	case dErrors.CodePaused:
		return http.StatusLocked
	case dErrors.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case dErrors.CodeTimeout:
		return http.StatusServiceUnavailable
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope. Descriptions of internal errors are
// never exposed.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	resp := errorResponse{Error: string(code)}
	if status != http.StatusInternalServerError {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and
// trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "request body must contain a single JSON object")
	}
	return nil
}
