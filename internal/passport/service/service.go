package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"passport/internal/events"
	ledger "passport/internal/ledger/models"
	"passport/internal/passport/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/platform/tx"
	"passport/pkg/requestcontext"
)

// Store persists passports and the system-wide pause flag.
type Store interface {
	Create(ctx context.Context, p *models.Passport) error
	Get(ctx context.Context, id domain.PassportID) (*models.Passport, error)
	Update(ctx context.Context, p *models.Passport) error
	ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Passport, error)
	SystemPaused(ctx context.Context) (bool, error)
	SetSystemPaused(ctx context.Context, paused bool) error
}

// Ledger moves the passport's own balance.
type Ledger interface {
	Balance(ctx context.Context, account ledger.Account) (ledger.Amount, error)
	Transfer(ctx context.Context, from, to ledger.Account, amount ledger.Amount, memo string) error
}

// OpenExchanges is the destruction guard exposed by the exchange ledger.
type OpenExchanges interface {
	HasOpenExchanges(ctx context.Context, id domain.PassportID) (bool, error)
}

type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service implements the passport lifecycle: creation, two-phase ownership
// transfer, pausing and destruction with balance sweep.
type Service struct {
	store     Store
	tx        tx.Runner
	ledger    Ledger
	exchanges OpenExchanges
	gate      *Gate
	publisher EventPublisher
	logger    *slog.Logger
	clock     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithClock overrides request time as the source of now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(store Store, runner tx.Runner, l Ledger, exchanges OpenExchanges, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("passport store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if exchanges == nil {
		return nil, fmt.Errorf("open exchanges query is required")
	}
	svc := &Service{
		store:     store,
		tx:        runner,
		ledger:    l,
		exchanges: exchanges,
		gate:      NewGate(store),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create registers a new passport owned by caller.
func (s *Service) Create(ctx context.Context, caller domain.Address) (*models.Passport, error) {
	p, err := models.NewPassport(domain.NewPassportID(), caller, s.now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, p.ID.String(), func(ctx context.Context) error {
		if err := s.gate.requireSystemRunning(ctx); err != nil {
			return err
		}
		if err := s.store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "passport already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create passport")
		}
		return s.emit(ctx, events.Event{PassportID: p.ID, Type: events.TypePassportCreated, Actor: caller})
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "passport_created", "passport_id", p.ID, "owner", p.Owner)
	return p, nil
}

// Get returns an active passport. Anyone may read it.
func (s *Service) Get(ctx context.Context, id domain.PassportID) (*models.Passport, error) {
	return s.gate.Active(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, owner domain.Address) ([]*models.Passport, error) {
	out, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list passports")
	}
	return out, nil
}

// TransferOwnership nominates newOwner. The transfer completes when the
// nominee calls ClaimOwnership.
func (s *Service) TransferOwnership(ctx context.Context, caller domain.Address, id domain.PassportID, newOwner domain.Address) (*models.Passport, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Passport) (events.Event, error) {
		if err := p.CanTransferOwnership(caller, newOwner); err != nil {
			return events.Event{}, err
		}
		p.ApplyTransferOwnership(newOwner, s.now(ctx))
		return events.Event{Type: events.TypeOwnershipTransferProposed, Actor: caller, Owner: events.Ptr(newOwner)}, nil
	})
}

func (s *Service) ClaimOwnership(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Passport) (events.Event, error) {
		if err := p.CanClaimOwnership(caller); err != nil {
			return events.Event{}, err
		}
		previous := p.ApplyClaimOwnership(s.now(ctx))
		return events.Event{
			Type:   events.TypeOwnershipTransferred,
			Actor:  caller,
			Owner:  events.Ptr(caller),
			Detail: "previous owner " + previous.String(),
		}, nil
	})
}

func (s *Service) Pause(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Passport) (events.Event, error) {
		if err := p.CanPause(caller); err != nil {
			return events.Event{}, err
		}
		p.ApplyPause(s.now(ctx))
		return events.Event{Type: events.TypePaused, Actor: caller}, nil
	})
}

func (s *Service) Unpause(ctx context.Context, caller domain.Address, id domain.PassportID) (*models.Passport, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Passport) (events.Event, error) {
		if err := p.CanUnpause(caller); err != nil {
			return events.Event{}, err
		}
		p.ApplyUnpause(s.now(ctx))
		return events.Event{Type: events.TypeUnpaused, Actor: caller}, nil
	})
}

// Destroy terminates the passport and sweeps its balance to recipient, or to
// the owner when recipient is nil. Refused while any exchange is open so
// escrowed stakes are never orphaned.
func (s *Service) Destroy(ctx context.Context, caller domain.Address, id domain.PassportID, recipient *domain.Address) (ledger.Amount, error) {
	var swept ledger.Amount
	_, err := s.mutate(ctx, id, func(ctx context.Context, p *models.Passport) (events.Event, error) {
		if err := p.CanDestroy(caller); err != nil {
			return events.Event{}, err
		}
		open, err := s.exchanges.HasOpenExchanges(ctx, id)
		if err != nil {
			return events.Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check open exchanges")
		}
		if open {
			return events.Event{}, dErrors.New(dErrors.CodeInvalidState, "passport has open exchanges")
		}
		to := p.Owner
		if recipient != nil {
			if recipient.IsZero() {
				return events.Event{}, dErrors.New(dErrors.CodeValidation, "recipient cannot be the zero address")
			}
			to = *recipient
		}
		balance, err := s.ledger.Balance(ctx, ledger.PassportAccount(id))
		if err != nil {
			return events.Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read passport balance")
		}
		held, err := s.ledger.Balance(ctx, ledger.IdentityAccount(to))
		if err != nil {
			return events.Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read recipient balance")
		}
		if _, ok := held.Add(balance); !ok {
			return events.Event{}, dErrors.New(dErrors.CodeValidation, "amount overflows balance")
		}

		p.ApplyDestroy(s.now(ctx))
		swept = balance
		return events.Event{
			Type:   events.TypePassportDestroyed,
			Actor:  caller,
			Owner:  events.Ptr(to),
			Amount: events.Ptr(balance),
		}, nil
	}, func(ctx context.Context, p *models.Passport, e events.Event) error {
		return s.ledger.Transfer(ctx, ledger.PassportAccount(id), ledger.IdentityAccount(*e.Owner), swept, "destroy passport")
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// Deposit moves value from the caller's account into the passport's own
// account.
func (s *Service) Deposit(ctx context.Context, caller domain.Address, id domain.PassportID, amount ledger.Amount) (ledger.Amount, error) {
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "deposit amount must be positive")
	}
	var balance ledger.Amount
	err := s.tx.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		if _, err := s.gate.Mutable(ctx, id); err != nil {
			return err
		}
		if err := s.ledger.Transfer(ctx, ledger.IdentityAccount(caller), ledger.PassportAccount(id), amount, "deposit"); err != nil {
			return err
		}
		var err error
		if balance, err = s.ledger.Balance(ctx, ledger.PassportAccount(id)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read passport balance")
		}
		return s.emit(ctx, events.Event{PassportID: id, Type: events.TypeDeposited, Actor: caller, Amount: events.Ptr(amount)})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance returns the passport's own balance.
func (s *Service) Balance(ctx context.Context, id domain.PassportID) (ledger.Amount, error) {
	if _, err := s.gate.Active(ctx, id); err != nil {
		return 0, err
	}
	balance, err := s.ledger.Balance(ctx, ledger.PassportAccount(id))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read passport balance")
	}
	return balance, nil
}

// SetSystemPause opens or closes the operator gate for every passport.
func (s *Service) SetSystemPause(ctx context.Context, paused bool) error {
	if err := s.store.SetSystemPaused(ctx, paused); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update system pause")
	}
	s.logAudit(ctx, "system_pause_changed", "paused", paused)
	return nil
}

func (s *Service) SystemPaused(ctx context.Context) (bool, error) {
	paused, err := s.store.SystemPaused(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read system pause")
	}
	return paused, nil
}

// Gate exposes the read and mutation guard for sibling services.
func (s *Service) Gate() *Gate {
	return s.gate
}

type transition func(ctx context.Context, p *models.Passport) (events.Event, error)
type effect func(ctx context.Context, p *models.Passport, e events.Event) error

// mutate loads the passport under its lock, applies fn, persists the result
// and runs any value effects after the state is saved. fn must reject every
// input its effects could fail on; anything that still fails is unwound by
// the transaction runner.
func (s *Service) mutate(ctx context.Context, id domain.PassportID, fn transition, effects ...effect) (*models.Passport, error) {
	var out *models.Passport
	err := s.tx.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		p, err := s.gate.Active(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gate.requireSystemRunning(ctx); err != nil {
			return err
		}
		event, err := fn(ctx, p)
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update passport")
		}
		for _, eff := range effects {
			if err := eff(ctx, p, event); err != nil {
				return err
			}
		}
		event.PassportID = id
		if err := s.emit(ctx, event); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "passport_"+eventName(out), "passport_id", id, "owner", out.Owner)
	return out, nil
}

func eventName(p *models.Passport) string {
	switch {
	case p.Destroyed:
		return "destroyed"
	case p.Paused:
		return "paused"
	default:
		return "updated"
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	return nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "log_type", "audit", "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
