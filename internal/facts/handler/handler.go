package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passport/internal/commitment"
	"passport/internal/facts/models"
	"passport/internal/transport/http/shared"
	"passport/pkg/domain"
	"passport/pkg/platform/httputil"
)

// Service defines the fact and permission operations exposed over HTTP.
type Service interface {
	SetFact(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey, value string) (*models.Fact, error)
	DeleteFact(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey) error
	GetFact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, error)
	SetPrivateData(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey, contentPointer string, dataKeyHash commitment.Digest) (*models.PrivateData, error)
	DeletePrivateData(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey) error
	GetPrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error)
	SetPermissionMode(ctx context.Context, caller domain.Address, pid domain.PassportID, mode models.PermissionMode) error
	AddToAllowList(ctx context.Context, caller domain.Address, pid domain.PassportID, attester domain.Address) error
	RemoveFromAllowList(ctx context.Context, caller domain.Address, pid domain.PassportID, attester domain.Address) error
	AllowList(ctx context.Context, pid domain.PassportID) (models.PermissionMode, []domain.Address, error)
}

// Handler serves fact, private data and permission endpoints. Writes are
// attributed to the authenticated caller as attester.
type Handler struct {
	logger      *slog.Logger
	facts       Service
	requireAuth func(http.Handler) http.Handler
}

func New(facts Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:      logger,
		facts:       facts,
		requireAuth: requireAuth,
	}
}

// Register registers the fact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/passports/{passportID}/facts/{attester}/{key}", h.handleGetFact)
	r.Get("/passports/{passportID}/private-data/{attester}/{key}", h.handleGetPrivateData)
	r.Get("/passports/{passportID}/allowlist", h.handleGetAllowList)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Put("/passports/{passportID}/facts/{key}", h.handleSetFact)
		r.Delete("/passports/{passportID}/facts/{key}", h.handleDeleteFact)
		r.Put("/passports/{passportID}/private-data/{key}", h.handleSetPrivateData)
		r.Delete("/passports/{passportID}/private-data/{key}", h.handleDeletePrivateData)
		r.Put("/passports/{passportID}/permissions", h.handleSetPermissionMode)
		r.Post("/passports/{passportID}/allowlist", h.handleAddToAllowList)
		r.Delete("/passports/{passportID}/allowlist/{attester}", h.handleRemoveFromAllowList)
	})
}

func (h *Handler) handleSetFact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, key, ok := h.keyedWrite(w, r)
	if !ok {
		return
	}
	var req SetFactRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid set fact request", err)
		return
	}

	fact, err := h.facts.SetFact(ctx, caller, pid, key, req.Value)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to set fact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fact)
}

func (h *Handler) handleDeleteFact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, key, ok := h.keyedWrite(w, r)
	if !ok {
		return
	}
	if err := h.facts.DeleteFact(ctx, caller, pid, key); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to delete fact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetFact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, attester, key, ok := h.keyedRead(w, r)
	if !ok {
		return
	}
	fact, err := h.facts.GetFact(ctx, pid, attester, key)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to get fact", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fact)
}

func (h *Handler) handleSetPrivateData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, key, ok := h.keyedWrite(w, r)
	if !ok {
		return
	}
	var req SetPrivateDataRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid set private data request", err)
		return
	}

	pd, err := h.facts.SetPrivateData(ctx, caller, pid, key, req.ContentPointer, req.DataKeyHash)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to set private data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pd)
}

func (h *Handler) handleDeletePrivateData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, key, ok := h.keyedWrite(w, r)
	if !ok {
		return
	}
	if err := h.facts.DeletePrivateData(ctx, caller, pid, key); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to delete private data", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPrivateData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, attester, key, ok := h.keyedRead(w, r)
	if !ok {
		return
	}
	pd, err := h.facts.GetPrivateData(ctx, pid, attester, key)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to get private data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pd)
}

func (h *Handler) handleSetPermissionMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, ok := h.ownerWrite(w, r)
	if !ok {
		return
	}
	var req PermissionModeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid permission mode request", err)
		return
	}
	mode, err := models.ParsePermissionMode(req.Mode)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid permission mode", err)
		return
	}

	if err := h.facts.SetPermissionMode(ctx, caller, pid, mode); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to set permission mode", err)
		return
	}
	h.writeAllowList(w, r, pid)
}

func (h *Handler) handleGetAllowList(w http.ResponseWriter, r *http.Request) {
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(r.Context(), h.logger, w, "invalid passport id", err)
		return
	}
	h.writeAllowList(w, r, pid)
}

func (h *Handler) handleAddToAllowList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, ok := h.ownerWrite(w, r)
	if !ok {
		return
	}
	var req AllowListRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid allow-list request", err)
		return
	}

	if err := h.facts.AddToAllowList(ctx, caller, pid, req.Attester); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to add to allow-list", err)
		return
	}
	h.writeAllowList(w, r, pid)
}

func (h *Handler) handleRemoveFromAllowList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, ok := h.ownerWrite(w, r)
	if !ok {
		return
	}
	attester, err := shared.Address(r, "attester")
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid attester", err)
		return
	}

	if err := h.facts.RemoveFromAllowList(ctx, caller, pid, attester); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to remove from allow-list", err)
		return
	}
	h.writeAllowList(w, r, pid)
}

func (h *Handler) writeAllowList(w http.ResponseWriter, r *http.Request, pid domain.PassportID) {
	ctx := r.Context()
	mode, list, err := h.facts.AllowList(ctx, pid)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to read allow-list", err)
		return
	}
	if list == nil {
		list = []domain.Address{}
	}
	httputil.WriteJSON(w, http.StatusOK, AllowListResponse{PassportID: pid, Mode: mode, Attesters: list})
}

func (h *Handler) ownerWrite(w http.ResponseWriter, r *http.Request) (domain.Address, domain.PassportID, bool) {
	ctx := r.Context()
	caller, err := shared.Principal(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "missing principal", err)
		return domain.Address{}, domain.PassportID{}, false
	}
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return domain.Address{}, domain.PassportID{}, false
	}
	return caller, pid, true
}

func (h *Handler) keyedWrite(w http.ResponseWriter, r *http.Request) (domain.Address, domain.PassportID, domain.FactKey, bool) {
	caller, pid, ok := h.ownerWrite(w, r)
	if !ok {
		return domain.Address{}, domain.PassportID{}, domain.FactKey{}, false
	}
	key, err := shared.FactKey(r)
	if err != nil {
		shared.WriteError(r.Context(), h.logger, w, "invalid fact key", err)
		return domain.Address{}, domain.PassportID{}, domain.FactKey{}, false
	}
	return caller, pid, key, true
}

func (h *Handler) keyedRead(w http.ResponseWriter, r *http.Request) (domain.PassportID, domain.Address, domain.FactKey, bool) {
	ctx := r.Context()
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return domain.PassportID{}, domain.Address{}, domain.FactKey{}, false
	}
	attester, err := shared.Address(r, "attester")
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid attester", err)
		return domain.PassportID{}, domain.Address{}, domain.FactKey{}, false
	}
	key, err := shared.FactKey(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid fact key", err)
		return domain.PassportID{}, domain.Address{}, domain.FactKey{}, false
	}
	return pid, attester, key, true
}
