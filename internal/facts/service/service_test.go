package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport/internal/commitment"
	"passport/internal/events"
	eventstore "passport/internal/events/store"
	"passport/internal/facts/models"
	"passport/internal/facts/store"
	pmodels "passport/internal/passport/models"
	pservice "passport/internal/passport/service"
	pstore "passport/internal/passport/store"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/tx"
	"passport/pkg/testutil"
)

type FactsServiceSuite struct {
	suite.Suite
	ctx       context.Context
	service   *Service
	passports *pstore.InMemoryStore
	events    *eventstore.InMemoryStore
	clock     *testutil.Clock

	passport domain.PassportID
	owner    domain.Address
	attester domain.Address
	other    domain.Address
	key      domain.FactKey
}

func TestFactsServiceSuite(t *testing.T) {
	suite.Run(t, new(FactsServiceSuite))
}

func (s *FactsServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.passports = pstore.NewInMemory()
	s.events = eventstore.NewInMemory()
	s.owner = testutil.Address(1)
	s.attester = testutil.Address(0xa0)
	s.other = testutil.Address(0xb0)

	p, err := pmodels.NewPassport(domain.NewPassportID(), s.owner, s.clock.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.passports.Create(s.ctx, p))
	s.passport = p.ID

	s.key, err = domain.FactKeyFromString("kyc_level")
	s.Require().NoError(err)

	s.service, err = New(store.NewInMemory(), tx.NewShardedRunner(0), pservice.NewGate(s.passports),
		WithEventPublisher(events.NewPublisher(s.events)),
		WithClock(s.clock.Now),
	)
	s.Require().NoError(err)
}

func (s *FactsServiceSuite) lastEvent() events.Event {
	list, err := s.events.ListByPassport(s.ctx, s.passport)
	s.Require().NoError(err)
	s.Require().NotEmpty(list)
	return list[len(list)-1]
}

func (s *FactsServiceSuite) TestFactLifecycle() {
	s.Run("missing fact reads as not existing", func() {
		f, err := s.service.GetFact(s.ctx, s.passport, s.attester, s.key)
		s.Require().NoError(err)
		s.False(f.Exists)
		s.Empty(f.Value)
	})

	_, err := s.service.SetFact(s.ctx, s.attester, s.passport, s.key, "3")
	s.Require().NoError(err)
	e := s.lastEvent()
	s.Equal(events.TypeFactUpdated, e.Type)
	s.Equal(s.attester, *e.Attester)
	s.Equal(s.key, *e.Key)

	s.Run("overwrite replaces the value", func() {
		_, err := s.service.SetFact(s.ctx, s.attester, s.passport, s.key, "4")
		s.Require().NoError(err)
		f, err := s.service.GetFact(s.ctx, s.passport, s.attester, s.key)
		s.Require().NoError(err)
		s.True(f.Exists)
		s.Equal("4", f.Value)
	})

	s.Run("facts are namespaced by attester", func() {
		f, err := s.service.GetFact(s.ctx, s.passport, s.other, s.key)
		s.Require().NoError(err)
		s.False(f.Exists)
	})

	s.Run("delete clears exists and keeps the value", func() {
		s.Require().NoError(s.service.DeleteFact(s.ctx, s.attester, s.passport, s.key))
		f, err := s.service.GetFact(s.ctx, s.passport, s.attester, s.key)
		s.Require().NoError(err)
		s.False(f.Exists)
		s.Equal("4", f.Value)
		s.Equal(events.TypeFactDeleted, s.lastEvent().Type)
	})
}

func (s *FactsServiceSuite) TestPrivateData() {
	hash := commitment.Hash(commitment.Key{1})
	_, err := s.service.SetPrivateData(s.ctx, s.attester, s.passport, s.key, "ipfs://cid", hash)
	s.Require().NoError(err)
	s.Equal(events.TypePrivateDataUpdated, s.lastEvent().Type)

	d, err := s.service.GetPrivateData(s.ctx, s.passport, s.attester, s.key)
	s.Require().NoError(err)
	s.True(d.Exists)
	s.Equal("ipfs://cid", d.ContentPointer)
	s.Equal(hash, d.DataKeyHash)

	d, err = s.service.Descriptor(s.ctx, s.passport, s.attester, s.key)
	s.Require().NoError(err)
	s.Equal(hash, d.DataKeyHash)

	s.Require().NoError(s.service.DeletePrivateData(s.ctx, s.attester, s.passport, s.key))
	_, err = s.service.Descriptor(s.ctx, s.passport, s.attester, s.key)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *FactsServiceSuite) TestAllowListOnlyMode() {
	s.Run("only the owner manages permissions", func() {
		err := s.service.SetPermissionMode(s.ctx, s.attester, s.passport, models.ModeAllowListOnly)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		err = s.service.AddToAllowList(s.ctx, s.attester, s.passport, s.attester)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Require().NoError(s.service.SetPermissionMode(s.ctx, s.owner, s.passport, models.ModeAllowListOnly))
	s.Equal(events.TypePermissionModeChanged, s.lastEvent().Type)

	s.Run("unlisted attester is refused", func() {
		_, err := s.service.SetFact(s.ctx, s.attester, s.passport, s.key, "x")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		allowed, err := s.service.IsAllowed(s.ctx, s.passport, s.attester)
		s.Require().NoError(err)
		s.False(allowed)
	})

	s.Require().NoError(s.service.AddToAllowList(s.ctx, s.owner, s.passport, s.attester))
	s.Equal(events.TypeAllowListAdded, s.lastEvent().Type)

	s.Run("listed attester may write", func() {
		_, err := s.service.SetFact(s.ctx, s.attester, s.passport, s.key, "x")
		s.Require().NoError(err)
	})

	s.Run("re-adding emits nothing", func() {
		before, _ := s.events.ListByPassport(s.ctx, s.passport)
		s.Require().NoError(s.service.AddToAllowList(s.ctx, s.owner, s.passport, s.attester))
		after, _ := s.events.ListByPassport(s.ctx, s.passport)
		s.Len(after, len(before))
	})

	mode, list, err := s.service.AllowList(s.ctx, s.passport)
	s.Require().NoError(err)
	s.Equal(models.ModeAllowListOnly, mode)
	s.Equal([]domain.Address{s.attester}, list)

	s.Require().NoError(s.service.RemoveFromAllowList(s.ctx, s.owner, s.passport, s.attester))
	s.Equal(events.TypeAllowListRemoved, s.lastEvent().Type)
	err = s.service.DeleteFact(s.ctx, s.attester, s.passport, s.key)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Run("invalid mode", func() {
		err := s.service.SetPermissionMode(s.ctx, s.owner, s.passport, models.PermissionMode("closed"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *FactsServiceSuite) TestPassportGates() {
	s.Run("unknown passport", func() {
		_, err := s.service.SetFact(s.ctx, s.attester, domain.NewPassportID(), s.key, "x")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.service.GetFact(s.ctx, domain.NewPassportID(), s.attester, s.key)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("paused passport refuses writes but serves reads", func() {
		p, err := s.passports.Get(s.ctx, s.passport)
		s.Require().NoError(err)
		p.ApplyPause(s.clock.Now())
		s.Require().NoError(s.passports.Update(s.ctx, p))
		defer func() {
			p.ApplyUnpause(s.clock.Now())
			s.Require().NoError(s.passports.Update(s.ctx, p))
		}()

		_, err = s.service.SetFact(s.ctx, s.attester, s.passport, s.key, "x")
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
		_, err = s.service.GetFact(s.ctx, s.passport, s.attester, s.key)
		s.NoError(err)
	})

	s.Run("system pause refuses writes", func() {
		s.Require().NoError(s.passports.SetSystemPaused(s.ctx, true))
		defer func() { s.Require().NoError(s.passports.SetSystemPaused(s.ctx, false)) }()

		_, err := s.service.SetPrivateData(s.ctx, s.attester, s.passport, s.key, "p", commitment.Digest{})
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
	})
}
