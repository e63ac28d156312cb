package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	ledger "passport/internal/ledger/models"
	"passport/internal/passport/models"
	"passport/internal/transport/http/shared"
	"passport/pkg/domain"
	"passport/pkg/platform/httputil"
)

// Service defines the passport lifecycle operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, caller domain.Address) (*models.Passport, error)
	Get(ctx context.Context, id domain.PassportID) (*models.Passport, error)
	ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Passport, error)
	TransferOwnership(ctx context.Context, caller domain.Address, id domain.PassportID, newOwner domain.Address) (*models.Passport, error)
	ClaimOwnership(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error)
	Pause(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error)
	Unpause(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error)
	Destroy(ctx context.Context, caller domain.Address, id domain.PassportID, recipient *domain.Address) (ledger.Amount, error)
	Deposit(ctx context.Context, caller domain.Address, id domain.PassportID, amount ledger.Amount) (ledger.Amount, error)
	Balance(ctx context.Context, id domain.PassportID) (ledger.Amount, error)
}

// Handler serves the passport lifecycle endpoints.
type Handler struct {
	logger      *slog.Logger
	passports   Service
	requireAuth func(http.Handler) http.Handler
}

// New creates a passport Handler. requireAuth guards every mutating route.
func New(passports Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:      logger,
		passports:   passports,
		requireAuth: requireAuth,
	}
}

// Register registers the passport routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/passports", h.handleList)
	r.Get("/passports/{passportID}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/passports", h.handleCreate)
		r.Post("/passports/{passportID}/ownership/transfer", h.handleTransferOwnership)
		r.Post("/passports/{passportID}/ownership/claim", h.handleClaimOwnership)
		r.Post("/passports/{passportID}/pause", h.handlePause)
		r.Post("/passports/{passportID}/unpause", h.handleUnpause)
		r.Post("/passports/{passportID}/destroy", h.handleDestroy)
		r.Post("/passports/{passportID}/deposit", h.handleDeposit)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := shared.Principal(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "missing principal", err)
		return
	}

	p, err := h.passports.Create(ctx, caller)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to create passport", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(p, 0))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}

	p, err := h.passports.Get(ctx, id)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to get passport", err)
		return
	}
	balance, err := h.passports.Balance(ctx, id)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to get passport balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p, balance))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := domain.ParseAddress(r.URL.Query().Get("owner"))
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid owner filter", err)
		return
	}

	list, err := h.passports.ListByOwner(ctx, owner)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to list passports", err)
		return
	}
	resp := ListResponse{Passports: make([]*Response, 0, len(list))}
	for _, p := range list {
		resp.Passports = append(resp.Passports, toResponse(p, 0))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req TransferOwnershipRequest
	h.mutate(w, r, &req, func(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error) {
		return h.passports.TransferOwnership(ctx, caller, id, req.NewOwner)
	})
}

func (h *Handler) handleClaimOwnership(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, h.passports.ClaimOwnership)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, h.passports.Pause)
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, h.passports.Unpause)
}

func (h *Handler) handleDestroy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req DestroyRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			shared.WriteError(ctx, h.logger, w, "invalid destroy request", err)
			return
		}
	}

	swept, err := h.passports.Destroy(ctx, caller, id, req.Recipient)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to destroy passport", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DestroyResponse{PassportID: id, Swept: swept})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid deposit request", err)
		return
	}

	balance, err := h.passports.Deposit(ctx, caller, id, req.Amount)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to deposit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{PassportID: id, Balance: balance})
}

type mutation func(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error)

// mutate runs a lifecycle change that answers with the updated passport.
// body, when non-nil, is decoded before fn runs.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, body any, fn mutation) {
	ctx := r.Context()
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if body != nil {
		if err := httputil.DecodeJSON(r, body); err != nil {
			shared.WriteError(ctx, h.logger, w, "invalid request body", err)
			return
		}
	}

	p, err := fn(ctx, caller, id)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "passport update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p, 0))
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (domain.Address, domain.PassportID, bool) {
	ctx := r.Context()
	caller, err := shared.Principal(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "missing principal", err)
		return domain.Address{}, domain.PassportID{}, false
	}
	id, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return domain.Address{}, domain.PassportID{}, false
	}
	return caller, id, true
}
