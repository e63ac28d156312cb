// Package admin serves the operator surface: funding identity accounts, the
// system-wide pause gate and escrow conservation checks.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	exchange "passport/internal/exchange/service"
	ledger "passport/internal/ledger/models"
	"passport/internal/transport/http/shared"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/httputil"
	"passport/pkg/requestcontext"
)

// Ledger mints value into identity accounts.
type Ledger interface {
	Credit(ctx context.Context, account ledger.Account, amount ledger.Amount, memo string) error
	Balance(ctx context.Context, account ledger.Account) (ledger.Amount, error)
}

// PauseGate is the system-wide mutation gate.
type PauseGate interface {
	SetSystemPause(ctx context.Context, paused bool) error
	SystemPaused(ctx context.Context) (bool, error)
}

// EscrowAuditor verifies escrow conservation for one passport.
type EscrowAuditor interface {
	Reconcile(ctx context.Context, pid domain.PassportID) (*exchange.ReconcileReport, error)
}

type Handler struct {
	logger       *slog.Logger
	ledger       Ledger
	pause        PauseGate
	auditor      EscrowAuditor
	requireAdmin func(http.Handler) http.Handler
}

func New(l Ledger, pause PauseGate, auditor EscrowAuditor, logger *slog.Logger, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:       logger,
		ledger:       l,
		pause:        pause,
		auditor:      auditor,
		requireAdmin: requireAdmin,
	}
}

// Register mounts the operator routes under /admin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/accounts/{address}/credit", h.handleCredit)
		r.Get("/pause", h.handleGetPause)
		r.Put("/pause", h.handleSetPause)
		r.Get("/passports/{passportID}/escrow", h.handleEscrow)
	})
}

func (h *Handler) handleCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := shared.Address(r, "address")
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid address", err)
		return
	}
	var req CreditRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid credit request", err)
		return
	}
	memo := req.Memo
	if memo == "" {
		memo = "operator credit"
	}

	account := ledger.IdentityAccount(addr)
	if err := h.ledger.Credit(ctx, account, req.Amount, memo); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to credit account", err)
		return
	}
	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to read balance", err)
		return
	}
	h.logAudit(ctx, "account_credited", "account", string(account), "amount", req.Amount.String())
	httputil.WriteJSON(w, http.StatusOK, CreditResponse{Account: account, Balance: balance})
}

func (h *Handler) handleGetPause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paused, err := h.pause.SystemPaused(ctx)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to read system pause", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PauseResponse{Paused: paused})
}

func (h *Handler) handleSetPause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req PauseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid pause request", err)
		return
	}
	if req.Paused == nil {
		shared.WriteError(ctx, h.logger, w, "invalid pause request", dErrors.New(dErrors.CodeValidation, "paused is required"))
		return
	}

	if err := h.pause.SetSystemPause(ctx, *req.Paused); err != nil {
		shared.WriteError(ctx, h.logger, w, "failed to set system pause", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PauseResponse{Paused: *req.Paused})
}

// handleEscrow runs a conservation check. A broken invariant is reported as
// an unbalanced result rather than an error so operators can alert on it.
func (h *Handler) handleEscrow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := shared.PassportID(r)
	if err != nil {
		shared.WriteError(ctx, h.logger, w, "invalid passport id", err)
		return
	}

	report, err := h.auditor.Reconcile(ctx, pid)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			h.logger.ErrorContext(ctx, "escrow conservation violated",
				"passport_id", pid.String(),
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteJSON(w, http.StatusOK, EscrowReport{PassportID: pid, Balanced: false})
			return
		}
		shared.WriteError(ctx, h.logger, w, "failed to reconcile escrow", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EscrowReport{
		PassportID: pid,
		Exchanges:  report.Exchanges,
		Open:       report.Open,
		Escrowed:   report.Escrowed,
		Balanced:   true,
	})
}

func (h *Handler) logAudit(ctx context.Context, event string, attrs ...any) {
	args := append([]any{"event", event, "log_type", "audit", "request_id", requestcontext.RequestID(ctx)}, attrs...)
	h.logger.InfoContext(ctx, event, args...)
}
