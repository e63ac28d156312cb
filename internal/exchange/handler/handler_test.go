package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport/internal/commitment"
	"passport/internal/exchange/handler/mocks"
	"passport/internal/exchange/models"
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/exchange-mocks.go -package=mocks Service
type ExchangeHandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	router    chi.Router
	pid       domain.PassportID
	requester domain.Address
	owner     domain.Address
	attester  domain.Address
}

func TestExchangeHandlerSuite(t *testing.T) {
	suite.Run(t, new(ExchangeHandlerSuite))
}

func (s *ExchangeHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passthrough := func(next http.Handler) http.Handler { return next }

	s.router = chi.NewRouter()
	New(s.service, logger, passthrough).Register(s.router)

	s.pid = domain.NewPassportID()
	s.requester = testutil.Address(0x0b)
	s.owner = testutil.Address(0x01)
	s.attester = testutil.Address(0xa1)
}

func (s *ExchangeHandlerSuite) path(suffix string) string {
	return "/passports/" + s.pid.String() + "/exchanges" + suffix
}

func (s *ExchangeHandlerSuite) exchange(state models.State) *models.Exchange {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Exchange{
		PassportID:     s.pid,
		Index:          0,
		Requester:      s.requester,
		RequesterStake: 10_000_000,
		Owner:          s.owner,
		Attester:       s.attester,
		State:          state,
		StateExpiry:    now.Add(24 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ExchangeHandlerSuite) TestPropose() {
	exchangeKey := commitment.Key{7}
	key, err := domain.FactKeyFromString("passport")
	s.Require().NoError(err)

	s.Run("the caller becomes the requester", func() {
		want := models.Proposal{
			Requester:            s.requester,
			Attester:             s.attester,
			Key:                  key,
			EncryptedExchangeKey: domain.HexBytes{0xde, 0xad},
			ExchangeKeyHash:      commitment.Hash(exchangeKey),
			Stake:                10_000_000,
		}
		s.service.EXPECT().Propose(gomock.Any(), s.pid, want).Return(s.exchange(models.StateProposed), nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(""), ProposeRequest{
			Attester:             s.attester,
			Key:                  key,
			EncryptedExchangeKey: domain.HexBytes{0xde, 0xad},
			ExchangeKeyHash:      commitment.Hash(exchangeKey),
			Stake:                10_000_000,
		}), s.requester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusCreated, rr.Code)
		var body map[string]any
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
		s.Equal("proposed", body["state"])
		s.Equal(s.requester.String(), body["requester"])
	})

	s.Run("missing descriptor is not found", func() {
		s.service.EXPECT().Propose(gomock.Any(), s.pid, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "private data not found"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path(""),
			ProposeRequest{Attester: s.attester, Key: key}), s.requester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *ExchangeHandlerSuite) TestAccept() {
	blinded := commitment.Key{9}
	accepted := s.exchange(models.StateAccepted)
	accepted.OwnerStake = 20_000_000
	accepted.EncryptedDataKey = blinded
	s.service.EXPECT().Accept(gomock.Any(), s.owner, s.pid, uint64(0), blinded, ledger.Amount(20_000_000)).Return(accepted, nil)

	req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/0/accept"),
		AcceptRequest{EncryptedDataKey: blinded, Stake: 20_000_000}), s.owner)
	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[Response](s.T(), rr)
	s.Equal(models.StateAccepted, resp.State)
	s.Equal(blinded, resp.EncryptedDataKey)
	s.Equal(ledger.Amount(20_000_000), resp.OwnerStake)
}

func (s *ExchangeHandlerSuite) TestCloseTransitions() {
	s.Run("finish", func() {
		s.service.EXPECT().Finish(gomock.Any(), s.requester, s.pid, uint64(3)).Return(s.exchange(models.StateClosed), nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/3/finish"), nil), s.requester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(models.StateClosed, testutil.UnmarshalResponse[Response](s.T(), rr).State)
	})

	s.Run("timeout before expiry conflicts", func() {
		s.service.EXPECT().Timeout(gomock.Any(), s.requester, s.pid, uint64(0)).
			Return(nil, dErrors.New(dErrors.CodeNotYetExpired, "exchange has not expired"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/0/timeout"), nil), s.requester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "not_yet_expired")
	})

	s.Run("closed records conflict", func() {
		s.service.EXPECT().Finish(gomock.Any(), s.requester, s.pid, uint64(0)).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "exchange is closed"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/0/finish"), nil), s.requester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
	})

	s.Run("rejects non numeric indexes", func() {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/first/finish"), nil), s.requester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *ExchangeHandlerSuite) TestDispute() {
	revealed := commitment.Key{7}

	s.Run("reports the verdict", func() {
		s.service.EXPECT().Dispute(gomock.Any(), s.requester, s.pid, uint64(0), revealed).
			Return(s.exchange(models.StateClosed), models.Verdict{Successful: true, Cheater: s.owner, Winner: s.requester}, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/0/dispute"),
			DisputeRequest{ExchangeKey: revealed}), s.requester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[DisputeResponse](s.T(), rr)
		s.True(resp.Successful)
		s.Equal(s.owner, resp.Cheater)
		s.Equal(s.requester, resp.Winner)
	})

	s.Run("wrong reveal is unprocessable", func() {
		s.service.EXPECT().Dispute(gomock.Any(), s.requester, s.pid, uint64(0), revealed).
			Return(nil, models.Verdict{}, dErrors.New(dErrors.CodeInvalidReveal, "exchange key does not match its commitment"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.path("/0/dispute"),
			DisputeRequest{ExchangeKey: revealed}), s.requester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "invalid_reveal")
	})
}

func (s *ExchangeHandlerSuite) TestReads() {
	s.Run("list honours the open filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.pid, true).Return([]*models.Exchange{s.exchange(models.StateProposed)}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, s.path("?open=true"), nil))

		s.Equal(http.StatusOK, rr.Code)
		s.Len(testutil.UnmarshalResponse[ListResponse](s.T(), rr).Exchanges, 1)
	})

	s.Run("list rejects a malformed filter", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, s.path("?open=maybe"), nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("get by index", func() {
		s.service.EXPECT().Get(gomock.Any(), s.pid, uint64(0)).Return(s.exchange(models.StateProposed), nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, s.path("/0"), nil))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(s.requester, testutil.UnmarshalResponse[Response](s.T(), rr).Requester)
	})
}
