package testutil

import (
	"net/http"

	"passport/pkg/domain"
	"passport/pkg/requestcontext"
)

// WithPrincipal adds a caller address to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithPrincipal(req *http.Request, address domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), address))
}

// Address builds a deterministic test address whose last byte is b.
func Address(b byte) domain.Address {
	var a domain.Address
	a[len(a)-1] = b
	return a
}
