package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"passport/internal/commitment"
	"passport/internal/exchange/models"
	ledger "passport/internal/ledger/models"
	"passport/internal/transport/http/shared"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
)

// Service defines the fair-exchange operations exposed over HTTP.
type Service interface {
	Propose(ctx context.Context, pid domain.PassportID, p models.Proposal) (*models.Exchange, error)
	Accept(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64, encryptedDataKey commitment.Key, stake ledger.Amount) (*models.Exchange, error)
	Timeout(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64) (*models.Exchange, error)
	Finish(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64) (*models.Exchange, error)
	Dispute(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64, revealed commitment.Key) (*models.Exchange, models.Verdict, error)
	Get(ctx context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error)
	List(ctx context.Context, pid domain.PassportID, openOnly bool) ([]*models.Exchange, error)
}

// Handler serves the exchange endpoints.
type Handler struct {
	logger      *slog.Logger
	exchanges   Service
	requireAuth func(http.Handler) http.Handler
}

func New(exchanges Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:      logger,
		exchanges:   exchanges,
		requireAuth: requireAuth,
	}
}

// Register registers the exchange routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/passports/{passportID}/exchanges", h.handleList)
	r.Get("/passports/{passportID}/exchanges/{idx}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/passports/{passportID}/exchanges", h.handlePropose)
		r.Post("/passports/{passportID}/exchanges/{idx}/accept", h.handleAccept)
		r.Post("/passports/{passportID}/exchanges/{idx}/timeout", h.handleTimeout)
		r.Post("/passports/{passportID}/exchanges/{idx}/finish", h.handleFinish)
		r.Post("/passports/{passportID}/exchanges/{idx}/dispute", h.handleDispute)
	})
}

// handlePropose opens an exchange with the caller as requester.
func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := shared.Principal(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "missing principal", err)
		return
	}
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}
	var req ProposeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid propose request", err)
		return
	}

	e, err := h.exchanges.Propose(ctx, pid, req.toProposal(caller))
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to propose exchange", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(e))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, idx, ok := h.target(w, r)
	if !ok {
		return
	}
	var req AcceptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid accept request", err)
		return
	}

	e, err := h.exchanges.Accept(ctx, caller, pid, idx, req.EncryptedDataKey, req.Stake)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to accept exchange", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) handleTimeout(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, "timeout", h.exchanges.Timeout)
}

func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, "finish", h.exchanges.Finish)
}

type closer func(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64) (*models.Exchange, error)

func (h *Handler) close(w http.ResponseWriter, r *http.Request, op string, fn closer) {
	ctx := r.Context()
	caller, pid, idx, ok := h.target(w, r)
	if !ok {
		return
	}
	e, err := fn(ctx, caller, pid, idx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to "+op+" exchange", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) handleDispute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, pid, idx, ok := h.target(w, r)
	if !ok {
		return
	}
	var req DisputeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid dispute request", err)
		return
	}

	e, verdict, err := h.exchanges.Dispute(ctx, caller, pid, idx, req.ExchangeKey)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to dispute exchange", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DisputeResponse{
		Exchange:   toResponse(e),
		Successful: verdict.Successful,
		Cheater:    verdict.Cheater,
		Winner:     verdict.Winner,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}
	idx, err := shared.ExchangeIndex(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid exchange index", err)
		return
	}

	e, err := h.exchanges.Get(ctx, pid, idx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to get exchange", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}
	openOnly := false
	if raw := r.URL.Query().Get("open"); raw != "" {
		if openOnly, err = strconv.ParseBool(raw); err != nil {
			shared.WriteError(ctx, h.logger, w, "invalid open filter", dErrors.New(dErrors.CodeInvalidInput, "open must be a boolean"))
			return
		}
	}

	list, err := h.exchanges.List(ctx, pid, openOnly)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to list exchanges", err)
		return
	}
	resp := ListResponse{Exchanges: make([]*Response, 0, len(list))}
	for _, e := range list {
		resp.Exchanges = append(resp.Exchanges, toResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (domain.Address, domain.PassportID, uint64, bool) {
	ctx := r.Context()
	caller, err := shared.Principal(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "missing principal", err)
		return domain.Address{}, domain.PassportID{}, 0, false
	}
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return domain.Address{}, domain.PassportID{}, 0, false
	}
	idx, err := shared.ExchangeIndex(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid exchange index", err)
		return domain.Address{}, domain.PassportID{}, 0, false
	}
	return caller, pid, idx, true
}
