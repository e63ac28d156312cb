package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"passport/internal/commitment"
	"passport/internal/escrow"
	"passport/internal/events"
	"passport/internal/exchange/metrics"
	"passport/internal/exchange/models"
	fmodels "passport/internal/facts/models"
	ledger "passport/internal/ledger/models"
	pmodels "passport/internal/passport/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/platform/tx"
	"passport/pkg/requestcontext"
)

// Store persists each passport's append-only exchange ledger.
type Store interface {
	Count(ctx context.Context, pid domain.PassportID) (uint64, error)
	Create(ctx context.Context, e *models.Exchange) error
	Get(ctx context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error)
	Update(ctx context.Context, e *models.Exchange) error
	List(ctx context.Context, pid domain.PassportID, openOnly bool) ([]*models.Exchange, error)
	CountOpen(ctx context.Context, pid domain.PassportID) (int, error)
}

type PassportGate interface {
	Active(ctx context.Context, pid domain.PassportID) (*pmodels.Passport, error)
	Mutable(ctx context.Context, pid domain.PassportID) (*pmodels.Passport, error)
}

// DescriptorLookup resolves the private data commitment a proposal targets.
type DescriptorLookup interface {
	Descriptor(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*fmodels.PrivateData, error)
}

// Escrow holds stakes per exchange record.
type Escrow interface {
	Lock(ctx context.Context, pid domain.PassportID, idx uint64, payer ledger.Account, amount ledger.Amount) error
	CheckRelease(ctx context.Context, pid domain.PassportID, idx uint64, recipient ledger.Account, expected ledger.Amount) error
	Release(ctx context.Context, pid domain.PassportID, idx uint64, recipient ledger.Account, expected ledger.Amount) (ledger.Amount, error)
	Reconcile(ctx context.Context, holdings []escrow.Holding) error
}

type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Config holds the two protocol windows.
type Config struct {
	ProposeTimeout time.Duration
	AcceptTimeout  time.Duration
}

// Service runs the private data fair exchange: propose, accept, then exactly
// one of timeout, finish or dispute.
type Service struct {
	store       Store
	tx          tx.Runner
	gate        PassportGate
	descriptors DescriptorLookup
	escrow      Escrow
	cfg         Config
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	clock       func() time.Time
	tracer      trace.Tracer
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides request time as the source of now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store Store, runner tx.Runner, gate PassportGate, descriptors DescriptorLookup, esc Escrow, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("exchange store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("passport gate is required")
	}
	if descriptors == nil {
		return nil, fmt.Errorf("descriptor lookup is required")
	}
	if esc == nil {
		return nil, fmt.Errorf("escrow is required")
	}
	if cfg.ProposeTimeout <= 0 || cfg.AcceptTimeout <= 0 {
		return nil, fmt.Errorf("exchange timeouts must be positive")
	}
	svc := &Service{
		store:       store,
		tx:          runner,
		gate:        gate,
		descriptors: descriptors,
		escrow:      esc,
		cfg:         cfg,
		tracer:      otel.Tracer("passport/exchange"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Propose opens a new exchange against an existing private data descriptor
// and locks the requester's stake.
func (s *Service) Propose(ctx context.Context, pid domain.PassportID, p models.Proposal) (out *models.Exchange, err error) {
	ctx, done := s.begin(ctx, "propose", pid)
	defer func() { done(err) }()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		passport, err := s.gate.Mutable(ctx, pid)
		if err != nil {
			return err
		}
		d, err := s.descriptors.Descriptor(ctx, pid, p.Attester, p.Key)
		if err != nil {
			return err
		}
		idx, err := s.store.Count(ctx, pid)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count exchanges")
		}
		e, err := models.NewExchange(pid, idx, p, passport.Owner,
			models.Descriptor{ContentPointer: d.ContentPointer, DataKeyHash: d.DataKeyHash},
			s.now(ctx), s.cfg.ProposeTimeout)
		if err != nil {
			return err
		}
		if err := s.escrow.Lock(ctx, pid, idx, ledger.IdentityAccount(p.Requester), p.Stake); err != nil {
			return err
		}
		if err := s.store.Create(ctx, e); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "exchange index already taken")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store exchange")
		}
		if err := s.emit(ctx, events.Event{
			PassportID:  pid,
			Type:        events.TypeExchangeProposed,
			Actor:       p.Requester,
			ExchangeIdx: events.Ptr(idx),
			Requester:   events.Ptr(e.Requester),
			Owner:       events.Ptr(e.Owner),
			Amount:      events.Ptr(e.RequesterStake),
		}); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementProposed(uint64(out.RequesterStake))
	s.logAudit(ctx, "exchange_proposed", out)
	return out, nil
}

// Accept commits the owner to the exchange: their stake is locked and the
// blinded data key is published.
func (s *Service) Accept(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64, encryptedDataKey commitment.Key, stake ledger.Amount) (out *models.Exchange, err error) {
	ctx, done := s.begin(ctx, "accept", pid)
	defer func() { done(err) }()

	err = s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		e, err := s.load(ctx, pid, idx)
		if err != nil {
			return err
		}
		now := s.now(ctx)
		if err := e.CanAccept(caller, now); err != nil {
			return err
		}
		if _, ok := e.RequesterStake.Add(stake); !ok {
			return dErrors.New(dErrors.CodeValidation, "combined stake overflows")
		}
		if err := s.escrow.Lock(ctx, pid, idx, ledger.IdentityAccount(caller), stake); err != nil {
			return err
		}
		e.ApplyAccept(encryptedDataKey, stake, now, s.cfg.AcceptTimeout)
		if err := s.store.Update(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exchange")
		}
		if err := s.emit(ctx, events.Event{
			PassportID:  pid,
			Type:        events.TypeExchangeAccepted,
			Actor:       caller,
			ExchangeIdx: events.Ptr(idx),
			Requester:   events.Ptr(e.Requester),
			Owner:       events.Ptr(e.Owner),
			Amount:      events.Ptr(stake),
		}); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementLocked(uint64(stake))
	s.logAudit(ctx, "exchange_accepted", out)
	return out, nil
}

// Timeout closes a proposal the owner never accepted and refunds the
// requester. Anyone may call it once the proposal has expired.
func (s *Service) Timeout(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64) (out *models.Exchange, err error) {
	ctx, done := s.begin(ctx, "timeout", pid)
	defer func() { done(err) }()
	var closed closing

	err = s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		e, err := s.load(ctx, pid, idx)
		if err != nil {
			return err
		}
		if err := e.CanTimeout(s.now(ctx)); err != nil {
			return err
		}
		if closed, err = s.close(ctx, e, caller, e.Requester, metrics.OutcomeTimeout); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordClose(ctx, out, closed)
	return out, nil
}

// Finish pays the whole escrow to the owner. The requester may finish any
// time after accept; anyone may once the dispute window has passed.
func (s *Service) Finish(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64) (out *models.Exchange, err error) {
	ctx, done := s.begin(ctx, "finish", pid)
	defer func() { done(err) }()
	var closed closing

	err = s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		e, err := s.load(ctx, pid, idx)
		if err != nil {
			return err
		}
		if err := e.CanFinish(caller, s.now(ctx)); err != nil {
			return err
		}
		if closed, err = s.close(ctx, e, caller, e.Owner, metrics.OutcomeFinish); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordClose(ctx, out, closed)
	return out, nil
}

// Dispute lets the requester prove the owner published a wrong blinded key by
// revealing the exchange key. The escrow goes to whichever side was honest.
func (s *Service) Dispute(ctx context.Context, caller domain.Address, pid domain.PassportID, idx uint64, revealed commitment.Key) (out *models.Exchange, verdict models.Verdict, err error) {
	ctx, done := s.begin(ctx, "dispute", pid)
	defer func() { done(err) }()
	var closed closing

	err = s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		e, err := s.load(ctx, pid, idx)
		if err != nil {
			return err
		}
		if err := e.CanDispute(caller, s.now(ctx)); err != nil {
			return err
		}
		v, err := e.Resolve(revealed)
		if err != nil {
			return err
		}
		outcome := metrics.OutcomeDisputeOwner
		if v.Successful {
			outcome = metrics.OutcomeDisputeRequester
		}
		if closed, err = s.close(ctx, e, caller, v.Winner, outcome); err != nil {
			return err
		}
		if err := s.emit(ctx, events.Event{
			PassportID:  pid,
			Type:        events.TypeExchangeDisputed,
			Actor:       caller,
			ExchangeIdx: events.Ptr(idx),
			Requester:   events.Ptr(e.Requester),
			Owner:       events.Ptr(e.Owner),
			Successful:  events.Ptr(v.Successful),
			Cheater:     events.Ptr(v.Cheater),
			Amount:      events.Ptr(closed.released),
		}); err != nil {
			return err
		}
		out, verdict = e, v
		return nil
	})
	if err != nil {
		return nil, models.Verdict{}, err
	}
	s.recordClose(ctx, out, closed)
	return out, verdict, nil
}

// closing describes a committed close, recorded once the transaction is done.
type closing struct {
	recipient domain.Address
	outcome   string
	released  ledger.Amount
}

// close writes the record Closed and then releases its whole escrow to
// recipient. Every check the release can fail on runs before the record is
// written, so the state change always precedes the value transfer.
func (s *Service) close(ctx context.Context, e *models.Exchange, caller, recipient domain.Address, outcome string) (closing, error) {
	expected := e.Escrowed()
	account := ledger.IdentityAccount(recipient)
	if err := s.escrow.CheckRelease(ctx, e.PassportID, e.Index, account, expected); err != nil {
		return closing{}, err
	}

	e.ApplyClose(s.now(ctx))
	if err := s.store.Update(ctx, e); err != nil {
		return closing{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exchange")
	}
	released, err := s.escrow.Release(ctx, e.PassportID, e.Index, account, expected)
	if err != nil {
		return closing{}, err
	}
	if err := s.emit(ctx, events.Event{
		PassportID:  e.PassportID,
		Type:        events.TypeExchangeClosed,
		Actor:       caller,
		ExchangeIdx: events.Ptr(e.Index),
		Requester:   events.Ptr(e.Requester),
		Owner:       events.Ptr(e.Owner),
		Amount:      events.Ptr(released),
		Detail:      outcome,
	}); err != nil {
		return closing{}, err
	}
	return closing{recipient: recipient, outcome: outcome, released: released}, nil
}

// recordClose reports a close after its transaction committed.
func (s *Service) recordClose(ctx context.Context, e *models.Exchange, c closing) {
	s.metrics.IncrementClosed(c.outcome, uint64(c.released))
	s.logAudit(ctx, "exchange_closed", e, "outcome", c.outcome, "recipient", c.recipient, "released", c.released)
}

// load applies the pause gate, then resolves the index.
func (s *Service) load(ctx context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error) {
	if _, err := s.gate.Mutable(ctx, pid); err != nil {
		return nil, err
	}
	e, err := s.store.Get(ctx, pid, idx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "exchange not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exchange")
	}
	return e, nil
}

// Get returns one record. Closed records stay readable.
func (s *Service) Get(ctx context.Context, pid domain.PassportID, idx uint64) (*models.Exchange, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return nil, err
	}
	e, err := s.store.Get(ctx, pid, idx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "exchange not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exchange")
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, pid domain.PassportID, openOnly bool) ([]*models.Exchange, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, pid, openOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exchanges")
	}
	return list, nil
}

// Count is the length of the exchange ledger, which is also the next index.
func (s *Service) Count(ctx context.Context, pid domain.PassportID) (uint64, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx, pid)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count exchanges")
	}
	return n, nil
}

// HasOpenExchanges backs the destruction guard. It joins the caller's
// transaction and takes no lock of its own.
func (s *Service) HasOpenExchanges(ctx context.Context, pid domain.PassportID) (bool, error) {
	n, err := s.store.CountOpen(ctx, pid)
	if err != nil {
		return false, fmt.Errorf("count open exchanges: %w", err)
	}
	return n > 0, nil
}

// ReconcileReport summarises a conservation check.
type ReconcileReport struct {
	Exchanges int           `json:"exchanges"`
	Open      int           `json:"open"`
	Escrowed  ledger.Amount `json:"escrowed"`
}

// Reconcile verifies that every open record's escrow equals its stakes and
// that every closed record's escrow is empty.
func (s *Service) Reconcile(ctx context.Context, pid domain.PassportID) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	err := s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		list, err := s.store.List(ctx, pid, false)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exchanges")
		}
		holdings := make([]escrow.Holding, 0, len(list))
		for _, e := range list {
			holdings = append(holdings, escrow.Holding{
				PassportID: pid,
				Index:      e.Index,
				Open:       e.IsOpen(),
				Stakes:     e.Escrowed(),
			})
			if e.IsOpen() {
				report.Open++
				report.Escrowed += e.Escrowed()
			}
		}
		report.Exchanges = len(list)
		if err := s.escrow.Reconcile(ctx, holdings); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reconcile escrow")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// begin starts a span and returns a completion func recording latency and
// the error, if any.
func (s *Service) begin(ctx context.Context, op string, pid domain.PassportID) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "exchange."+op,
		trace.WithAttributes(attribute.String("passport_id", pid.String())),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(start))
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

func (s *Service) logAudit(ctx context.Context, event string, e *models.Exchange, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{
		"event", event,
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"passport_id", e.PassportID,
		"exchange_idx", e.Index,
		"state", e.State.String(),
	}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
