package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"passport/internal/ledger/models"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/requestcontext"
)

// Store is the balance and journal persistence. Transfer and Credit must be
// atomic on their own and join any transaction carried by ctx.
type Store interface {
	Balance(ctx context.Context, account models.Account) (models.Amount, error)
	Credit(ctx context.Context, account models.Account, amount models.Amount, memo string) error
	Transfer(ctx context.Context, from, to models.Account, amount models.Amount, memo string) error
	Entries(ctx context.Context, account models.Account) ([]models.Entry, error)
}

// Service is the explicit balance ledger backing stakes, escrow and passport
// balances.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) Balance(ctx context.Context, account models.Account) (models.Amount, error) {
	balance, err := s.store.Balance(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// Credit mints amount into account. Reserved for operators and funding.
func (s *Service) Credit(ctx context.Context, account models.Account, amount models.Amount, memo string) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeValidation, "credit amount must be positive")
	}
	if err := s.store.Credit(ctx, account, amount, memo); err != nil {
		return translate(err, "failed to credit account")
	}
	s.log(ctx, "ledger_credit", "account", account, "amount", amount, "memo", memo)
	return nil
}

// Transfer moves amount from one account to another atomically.
func (s *Service) Transfer(ctx context.Context, from, to models.Account, amount models.Amount, memo string) error {
	if err := s.store.Transfer(ctx, from, to, amount, memo); err != nil {
		return translate(err, "failed to transfer value")
	}
	return nil
}

func (s *Service) Entries(ctx context.Context, account models.Account) ([]models.Entry, error) {
	entries, err := s.store.Entries(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ledger entries")
	}
	return entries, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
	case errors.Is(err, sentinel.ErrOverflow):
		return dErrors.New(dErrors.CodeValidation, "amount overflows balance")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) log(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
