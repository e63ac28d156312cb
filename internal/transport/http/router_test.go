package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport/internal/platform/metrics"
	"passport/internal/platform/middleware"
	"passport/pkg/requestcontext"
)

type pingHandler struct{}

func (pingHandler) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.RequestID(r.Context()) == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(checks map[string]HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  metrics.NewWithRegistry(reg),
		Gatherer: reg,
		Handlers: []Registrar{pingHandler{}},
		Health:   checks,
	})
}

func TestRouterMountsHandlersUnderV1(t *testing.T) {
	r := newTestRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "passport_http_requests_total")
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{"db": func(context.Context) error { return nil }})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"db":"ok"}}`, w.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("refused") }})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"refused"}}`, w.Body.String())
	})
}
