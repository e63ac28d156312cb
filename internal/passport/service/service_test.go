package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport/internal/events"
	eventstore "passport/internal/events/store"
	ledger "passport/internal/ledger/models"
	ledgerservice "passport/internal/ledger/service"
	ledgerstore "passport/internal/ledger/store"
	"passport/internal/passport/store"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/tx"
	"passport/pkg/testutil"
)

type stubExchanges struct {
	open bool
}

func (s *stubExchanges) HasOpenExchanges(context.Context, domain.PassportID) (bool, error) {
	return s.open, nil
}

type PassportServiceSuite struct {
	suite.Suite
	ctx       context.Context
	service   *Service
	store     *store.InMemoryStore
	ledger    *ledgerservice.Service
	events    *eventstore.InMemoryStore
	exchanges *stubExchanges
	clock     *testutil.Clock

	owner    domain.Address
	nominee  domain.Address
	stranger domain.Address
}

func TestPassportServiceSuite(t *testing.T) {
	suite.Run(t, new(PassportServiceSuite))
}

func (s *PassportServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.events = eventstore.NewInMemory()
	s.exchanges = &stubExchanges{}
	s.clock = testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	var err error
	s.ledger, err = ledgerservice.New(ledgerstore.NewInMemory())
	s.Require().NoError(err)

	s.service, err = New(s.store, tx.NewShardedRunner(0), s.ledger, s.exchanges,
		WithEventPublisher(events.NewPublisher(s.events, events.WithClock(s.clock.Now))),
		WithClock(s.clock.Now),
	)
	s.Require().NoError(err)

	s.owner = testutil.Address(1)
	s.nominee = testutil.Address(2)
	s.stranger = testutil.Address(3)
}

func (s *PassportServiceSuite) create() domain.PassportID {
	p, err := s.service.Create(s.ctx, s.owner)
	s.Require().NoError(err)
	return p.ID
}

func (s *PassportServiceSuite) eventTypes(id domain.PassportID) []events.Type {
	list, err := s.events.ListByPassport(s.ctx, id)
	s.Require().NoError(err)
	out := make([]events.Type, 0, len(list))
	for _, e := range list {
		out = append(out, e.Type)
	}
	return out
}

func (s *PassportServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, tx.NewShardedRunner(0), s.ledger, s.exchanges)
	s.Require().Error(err)
	s.Contains(err.Error(), "passport store is required")

	_, err = New(s.store, tx.NewShardedRunner(0), s.ledger, nil)
	s.Require().Error(err)
}

func (s *PassportServiceSuite) TestCreate() {
	p, err := s.service.Create(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(s.owner, p.Owner)
	s.Equal(s.clock.Now(), p.CreatedAt)
	s.Equal([]events.Type{events.TypePassportCreated}, s.eventTypes(p.ID))

	s.Run("zero owner is rejected", func() {
		_, err := s.service.Create(s.ctx, domain.Address{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *PassportServiceSuite) TestTwoPhaseOwnershipTransfer() {
	id := s.create()

	s.Run("only the owner can nominate", func() {
		_, err := s.service.TransferOwnership(s.ctx, s.stranger, id, s.nominee)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	_, err := s.service.TransferOwnership(s.ctx, s.owner, id, s.nominee)
	s.Require().NoError(err)

	s.Run("nomination alone does not move ownership", func() {
		p, err := s.service.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(s.owner, p.Owner)
		s.Require().NotNil(p.PendingOwner)
		s.Equal(s.nominee, *p.PendingOwner)
	})

	s.Run("only the nominee can claim", func() {
		_, err := s.service.ClaimOwnership(s.ctx, s.stranger, id)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	p, err := s.service.ClaimOwnership(s.ctx, s.nominee, id)
	s.Require().NoError(err)
	s.Equal(s.nominee, p.Owner)
	s.Nil(p.PendingOwner)

	s.Run("previous owner lost control", func() {
		_, err := s.service.Pause(s.ctx, s.owner, id)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Equal([]events.Type{
		events.TypePassportCreated,
		events.TypeOwnershipTransferProposed,
		events.TypeOwnershipTransferred,
	}, s.eventTypes(id))
}

func (s *PassportServiceSuite) TestPause() {
	id := s.create()

	_, err := s.service.Pause(s.ctx, s.owner, id)
	s.Require().NoError(err)

	s.Run("pausing twice is an invalid state", func() {
		_, err := s.service.Pause(s.ctx, s.owner, id)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("paused passport refuses ownership changes", func() {
		_, err := s.service.TransferOwnership(s.ctx, s.owner, id, s.nominee)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
	})

	s.Run("mutation gate reports paused", func() {
		_, err := s.service.Gate().Mutable(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
	})

	s.Run("reads still work", func() {
		p, err := s.service.Get(s.ctx, id)
		s.Require().NoError(err)
		s.True(p.Paused)
	})

	p, err := s.service.Unpause(s.ctx, s.owner, id)
	s.Require().NoError(err)
	s.False(p.Paused)
}

func (s *PassportServiceSuite) TestSystemPause() {
	id := s.create()
	s.Require().NoError(s.service.SetSystemPause(s.ctx, true))

	paused, err := s.service.SystemPaused(s.ctx)
	s.Require().NoError(err)
	s.True(paused)

	_, err = s.service.Create(s.ctx, s.owner)
	s.True(dErrors.HasCode(err, dErrors.CodePaused))

	_, err = s.service.Gate().Mutable(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodePaused))

	_, err = s.service.Gate().Active(s.ctx, id)
	s.NoError(err)

	s.Require().NoError(s.service.SetSystemPause(s.ctx, false))
	_, err = s.service.Gate().Mutable(s.ctx, id)
	s.NoError(err)
}

func (s *PassportServiceSuite) TestDeposit() {
	id := s.create()
	s.Require().NoError(s.ledger.Credit(s.ctx, ledger.IdentityAccount(s.owner), 100, "seed"))

	balance, err := s.service.Deposit(s.ctx, s.owner, id, 40)
	s.Require().NoError(err)
	s.Equal(ledger.Amount(40), balance)

	s.Run("zero is rejected", func() {
		_, err := s.service.Deposit(s.ctx, s.owner, id, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("insufficient caller funds", func() {
		_, err := s.service.Deposit(s.ctx, s.owner, id, 61)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})
}

func (s *PassportServiceSuite) TestDestroy() {
	s.Run("refused while exchanges are open", func() {
		id := s.create()
		s.exchanges.open = true
		defer func() { s.exchanges.open = false }()

		_, err := s.service.Destroy(s.ctx, s.owner, id, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.service.Get(s.ctx, id)
		s.NoError(err)
	})

	s.Run("only the owner may destroy", func() {
		id := s.create()
		_, err := s.service.Destroy(s.ctx, s.stranger, id, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("sweeps balance to recipient", func() {
		id := s.create()
		s.Require().NoError(s.ledger.Credit(s.ctx, ledger.IdentityAccount(s.owner), 25, "seed"))
		_, err := s.service.Deposit(s.ctx, s.owner, id, 25)
		s.Require().NoError(err)

		recipient := s.stranger
		swept, err := s.service.Destroy(s.ctx, s.owner, id, &recipient)
		s.Require().NoError(err)
		s.Equal(ledger.Amount(25), swept)

		got, err := s.ledger.Balance(s.ctx, ledger.IdentityAccount(recipient))
		s.Require().NoError(err)
		s.Equal(ledger.Amount(25), got)

		_, err = s.service.Get(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.Pause(s.ctx, s.owner, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		s.Contains(s.eventTypes(id), events.TypePassportDestroyed)
	})

	s.Run("refused when the recipient cannot absorb the sweep", func() {
		id := s.create()
		s.Require().NoError(s.ledger.Credit(s.ctx, ledger.IdentityAccount(s.owner), 25, "seed"))
		_, err := s.service.Deposit(s.ctx, s.owner, id, 25)
		s.Require().NoError(err)
		s.Require().NoError(s.ledger.Credit(s.ctx, ledger.IdentityAccount(s.nominee), ledger.Amount(math.MaxUint64-10), "fill"))

		recipient := s.nominee
		_, err = s.service.Destroy(s.ctx, s.owner, id, &recipient)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		p, err := s.service.Get(s.ctx, id)
		s.Require().NoError(err)
		s.False(p.Destroyed)
		balance, err := s.service.Balance(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(ledger.Amount(25), balance)
		s.NotContains(s.eventTypes(id), events.TypePassportDestroyed)
	})

	s.Run("a failed sweep leaves the passport intact", func() {
		svc, err := New(s.store, tx.NewShardedRunner(0), failingTransfers{s.ledger}, s.exchanges,
			WithEventPublisher(events.NewPublisher(s.events, events.WithClock(s.clock.Now))),
			WithClock(s.clock.Now),
		)
		s.Require().NoError(err)
		id := s.create()

		_, err = svc.Destroy(s.ctx, s.owner, id, nil)
		s.Require().Error(err)

		p, err := s.service.Get(s.ctx, id)
		s.Require().NoError(err)
		s.False(p.Destroyed)
		_, err = s.service.Pause(s.ctx, s.owner, id)
		s.NoError(err)
	})
}

type failingTransfers struct {
	Ledger
}

func (failingTransfers) Transfer(context.Context, ledger.Account, ledger.Account, ledger.Amount, string) error {
	return errors.New("ledger unavailable")
}

func (s *PassportServiceSuite) TestGetUnknown() {
	_, err := s.service.Get(s.ctx, domain.NewPassportID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
