// Package shared holds request parsing helpers used by every handler.
package shared

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/requestcontext"
)

// PassportID parses the {passportID} path segment.
func PassportID(r *http.Request) (domain.PassportID, error) {
	return domain.ParsePassportID(chi.URLParam(r, "passportID"))
}

// Address parses an address path segment.
func Address(r *http.Request, name string) (domain.Address, error) {
	return domain.ParseAddress(chi.URLParam(r, name))
}

// FactKey parses the {key} path segment. Keys are 0x hex of at most 32
// bytes.
func FactKey(r *http.Request) (domain.FactKey, error) {
	return domain.ParseFactKey(chi.URLParam(r, "key"))
}

// ExchangeIndex parses the {idx} path segment.
func ExchangeIndex(r *http.Request) (uint64, error) {
	idx, err := strconv.ParseUint(chi.URLParam(r, "idx"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "exchange index must be a non-negative integer")
	}
	return idx, nil
}

// Principal returns the authenticated caller. A zero principal means the auth
// middleware did not run, which is a wiring error.
func Principal(ctx context.Context) (domain.Address, error) {
	p := requestcontext.Principal(ctx)
	if p.IsZero() {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthenticated, "authentication required")
	}
	return p, nil
}
