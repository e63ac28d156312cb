package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passport/internal/ledger/models"
	"passport/internal/transport/http/shared"
	"passport/pkg/platform/httputil"
)

// Service is the read side of the balance ledger.
type Service interface {
	Balance(ctx context.Context, account models.Account) (models.Amount, error)
	Entries(ctx context.Context, account models.Account) ([]models.Entry, error)
}

// Handler serves identity account balances and journals.
type Handler struct {
	logger *slog.Logger
	ledger Service
}

func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/accounts/{address}/balance", h.handleBalance)
	r.Get("/accounts/{address}/entries", h.handleEntries)
}

type BalanceResponse struct {
	Account models.Account `json:"account"`
	Balance models.Amount  `json:"balance"`
}

type EntriesResponse struct {
	Account models.Account `json:"account"`
	Entries []models.Entry `json:"entries"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to read balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.account(w, r)
	if !ok {
		return
	}
	entries, err := h.ledger.Entries(ctx, account)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to read entries", err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, EntriesResponse{Account: account, Entries: entries})
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	addr, err := shared.Address(r, "address")
	if err != nil {
		shared.WriteError(r.Context(), h.logger, w, "invalid address", err)
		return "", false
	}
	return models.IdentityAccount(addr), true
}
