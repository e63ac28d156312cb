package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"passport/pkg/requestcontext"
)

func TestMiddlewareWithClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	h := MiddlewareWithClock(func() time.Time { return fixed })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fixed, seen)
}
