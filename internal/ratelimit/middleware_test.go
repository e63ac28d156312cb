package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport/pkg/domain"
	"passport/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("limits per principal", func(t *testing.T) {
		h := New(NewInMemoryStore(), 1, time.Minute, logger).Middleware(ok)
		alice := domain.MustAddress("0x1111111111111111111111111111111111111111")
		bob := domain.MustAddress("0x2222222222222222222222222222222222222222")

		req := func(who domain.Address) *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			return r.WithContext(requestcontext.WithPrincipal(r.Context(), who))
		}

		first := serve(h, req(alice))
		assert.Equal(t, http.StatusNoContent, first.Code)
		assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

		second := serve(h, req(alice))
		require.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.JSONEq(t, `{"error":"rate_limited","error_description":"too many requests, retry later"}`, second.Body.String())
		assert.NotEmpty(t, second.Header().Get("Retry-After"))

		assert.Equal(t, http.StatusNoContent, serve(h, req(bob)).Code)
	})

	t.Run("falls back to client IP", func(t *testing.T) {
		h := New(NewInMemoryStore(), 1, time.Minute, logger).Middleware(ok)
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		assert.Equal(t, http.StatusNoContent, serve(h, r).Code)

		r = httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "10.0.0.1:6000"
		assert.Equal(t, http.StatusTooManyRequests, serve(h, r).Code)
	})

	t.Run("store failure lets request through", func(t *testing.T) {
		h := New(failingStore{}, 1, time.Minute, logger).Middleware(ok)
		assert.Equal(t, http.StatusNoContent, serve(h, httptest.NewRequest(http.MethodPost, "/", nil)).Code)
	})
}
