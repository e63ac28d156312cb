package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passport/internal/events"
	"passport/internal/transport/http/shared"
	"passport/pkg/domain"
	"passport/pkg/platform/httputil"
)

// Service lists the notifications recorded for a passport.
type Service interface {
	List(ctx context.Context, pid domain.PassportID) ([]events.Event, error)
}

// Handler serves the public event feed that indexers poll.
type Handler struct {
	logger *slog.Logger
	events Service
}

func New(events Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, events: events}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/passports/{passportID}/events", h.handleList)
}

type ListResponse struct {
	Events []events.Event `json:"events"`
}

// handleList returns the passport's events in emission order. ?type=
// narrows the feed to one event type.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}

	list, err := h.events.List(ctx, pid)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to list events", err)
		return
	}
	filter := events.Type(r.URL.Query().Get("type"))
	out := make([]events.Event, 0, len(list))
	for _, e := range list {
		if filter == "" || e.Type == filter {
			out = append(out, e)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Events: out})
}
