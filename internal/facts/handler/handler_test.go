package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport/internal/commitment"
	"passport/internal/facts/handler/mocks"
	"passport/internal/facts/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/facts-mocks.go -package=mocks Service
type FactsHandlerSuite struct {
	suite.Suite
	service  *mocks.MockService
	router   chi.Router
	pid      domain.PassportID
	attester domain.Address
	owner    domain.Address
	key      domain.FactKey
}

func TestFactsHandlerSuite(t *testing.T) {
	suite.Run(t, new(FactsHandlerSuite))
}

func (s *FactsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passthrough := func(next http.Handler) http.Handler { return next }

	s.router = chi.NewRouter()
	New(s.service, logger, passthrough).Register(s.router)

	s.pid = domain.NewPassportID()
	s.attester = testutil.Address(0xa1)
	s.owner = testutil.Address(0x01)
	var err error
	s.key, err = domain.FactKeyFromString("name")
	s.Require().NoError(err)
}

func (s *FactsHandlerSuite) base() string {
	return "/passports/" + s.pid.String()
}

func (s *FactsHandlerSuite) TestSetFact() {
	s.Run("writes under the caller as attester", func() {
		s.service.EXPECT().SetFact(gomock.Any(), s.attester, s.pid, s.key, "alice").
			Return(&models.Fact{PassportID: s.pid, Attester: s.attester, Key: s.key, Exists: true, Value: "alice"}, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut,
			s.base()+"/facts/"+s.key.String(), SetFactRequest{Value: "alice"}), s.attester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		fact := testutil.UnmarshalResponse[models.Fact](s.T(), rr)
		s.True(fact.Exists)
		s.Equal("alice", fact.Value)
		s.Equal(s.attester, fact.Attester)
	})

	s.Run("attester outside the allow-list is forbidden", func() {
		s.service.EXPECT().SetFact(gomock.Any(), s.attester, s.pid, s.key, "alice").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "attester is not on the allow-list"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut,
			s.base()+"/facts/"+s.key.String(), SetFactRequest{Value: "alice"}), s.attester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("rejects keys longer than 32 bytes", func() {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut,
			s.base()+"/facts/0x"+strings.Repeat("00", 33), SetFactRequest{Value: "x"}), s.attester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *FactsHandlerSuite) TestDeleteFact() {
	s.service.EXPECT().DeleteFact(gomock.Any(), s.attester, s.pid, s.key).Return(nil)

	req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodDelete,
		s.base()+"/facts/"+s.key.String(), nil), s.attester)
	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *FactsHandlerSuite) TestGetFactIsPublic() {
	s.service.EXPECT().GetFact(gomock.Any(), s.pid, s.attester, s.key).
		Return(&models.Fact{PassportID: s.pid, Attester: s.attester, Key: s.key}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet,
		s.base()+"/facts/"+s.attester.String()+"/"+s.key.String(), nil))

	s.Equal(http.StatusOK, rr.Code)
	s.False(testutil.UnmarshalResponse[models.Fact](s.T(), rr).Exists)
}

func (s *FactsHandlerSuite) TestPrivateData() {
	hash := commitment.Hash(commitment.Key{1})

	s.Run("sets a descriptor", func() {
		s.service.EXPECT().SetPrivateData(gomock.Any(), s.attester, s.pid, s.key, "ipfs://bafy", hash).
			Return(&models.PrivateData{PassportID: s.pid, Attester: s.attester, Key: s.key, Exists: true,
				ContentPointer: "ipfs://bafy", DataKeyHash: hash}, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut,
			s.base()+"/private-data/"+s.key.String(),
			SetPrivateDataRequest{ContentPointer: "ipfs://bafy", DataKeyHash: hash}), s.attester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		pd := testutil.UnmarshalResponse[models.PrivateData](s.T(), rr)
		s.Equal(hash, pd.DataKeyHash)
	})

	s.Run("reads a descriptor", func() {
		s.service.EXPECT().GetPrivateData(gomock.Any(), s.pid, s.attester, s.key).
			Return(&models.PrivateData{PassportID: s.pid, Attester: s.attester, Key: s.key, Exists: true, DataKeyHash: hash}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet,
			s.base()+"/private-data/"+s.attester.String()+"/"+s.key.String(), nil))

		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("deletes a descriptor", func() {
		s.service.EXPECT().DeletePrivateData(gomock.Any(), s.attester, s.pid, s.key).Return(nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodDelete,
			s.base()+"/private-data/"+s.key.String(), nil), s.attester)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("rejects malformed hashes", func() {
		req := testutil.WithPrincipal(testutil.NewRequestWithBody(s.T(), http.MethodPut,
			s.base()+"/private-data/"+s.key.String(), `{"content_pointer":"x","data_key_hash":"0x12"}`), s.attester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *FactsHandlerSuite) TestPermissions() {
	s.Run("switching mode answers with the current list", func() {
		s.service.EXPECT().SetPermissionMode(gomock.Any(), s.owner, s.pid, models.ModeAllowListOnly).Return(nil)
		s.service.EXPECT().AllowList(gomock.Any(), s.pid).Return(models.ModeAllowListOnly, nil, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut, s.base()+"/permissions",
			PermissionModeRequest{Mode: "allowlist_only"}), s.owner)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[AllowListResponse](s.T(), rr)
		s.Equal(models.ModeAllowListOnly, resp.Mode)
		s.NotNil(resp.Attesters)
		s.Empty(resp.Attesters)
	})

	s.Run("unknown modes are rejected before the service", func() {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPut, s.base()+"/permissions",
			PermissionModeRequest{Mode: "closed"}), s.owner)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("add and remove attesters", func() {
		s.service.EXPECT().AddToAllowList(gomock.Any(), s.owner, s.pid, s.attester).Return(nil)
		s.service.EXPECT().AllowList(gomock.Any(), s.pid).Return(models.ModeAllowListOnly, []domain.Address{s.attester}, nil)

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.base()+"/allowlist",
			AllowListRequest{Attester: s.attester}), s.owner)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
		s.Equal([]domain.Address{s.attester}, testutil.UnmarshalResponse[AllowListResponse](s.T(), rr).Attesters)

		s.service.EXPECT().RemoveFromAllowList(gomock.Any(), s.owner, s.pid, s.attester).Return(nil)
		s.service.EXPECT().AllowList(gomock.Any(), s.pid).Return(models.ModeAllowListOnly, nil, nil)

		req = testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodDelete,
			s.base()+"/allowlist/"+s.attester.String(), nil), s.owner)
		rr = testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("non owners cannot change the list", func() {
		s.service.EXPECT().AddToAllowList(gomock.Any(), s.attester, s.pid, s.attester).
			Return(dErrors.New(dErrors.CodeUnauthorized, "caller is not the passport owner"))

		req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, s.base()+"/allowlist",
			AllowListRequest{Attester: s.attester}), s.attester)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})
}
