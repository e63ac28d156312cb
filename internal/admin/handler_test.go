package admin

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport/internal/admin/mocks"
	exchange "passport/internal/exchange/service"
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	adminmw "passport/pkg/platform/middleware/admin"
	"passport/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/admin-mocks.go -package=mocks Ledger,PauseGate,EscrowAuditor
type AdminHandlerSuite struct {
	suite.Suite
	ledger  *mocks.MockLedger
	pause   *mocks.MockPauseGate
	auditor *mocks.MockEscrowAuditor
	router  chi.Router
}

const token = "operator-secret"

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ledger = mocks.NewMockLedger(ctrl)
	s.pause = mocks.NewMockPauseGate(ctrl)
	s.auditor = mocks.NewMockEscrowAuditor(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.ledger, s.pause, s.auditor, logger, adminmw.RequireAdminToken(token, logger)).Register(s.router)
}

func (s *AdminHandlerSuite) request(method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req.Header.Set(adminmw.HeaderName, token)
	return req
}

func (s *AdminHandlerSuite) TestRequiresToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/pause", nil)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthenticated")
}

func (s *AdminHandlerSuite) TestCredit() {
	addr := testutil.Address(0x0b)
	account := ledger.IdentityAccount(addr)

	s.Run("mints into the identity account", func() {
		s.ledger.EXPECT().Credit(gomock.Any(), account, ledger.Amount(10_000_000), "operator credit").Return(nil)
		s.ledger.EXPECT().Balance(gomock.Any(), account).Return(ledger.Amount(10_000_000), nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/admin/accounts/"+addr.String()+"/credit",
			CreditRequest{Amount: 10_000_000}))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(ledger.Amount(10_000_000), testutil.UnmarshalResponse[CreditResponse](s.T(), rr).Balance)
	})

	s.Run("zero credits are rejected by the ledger", func() {
		s.ledger.EXPECT().Credit(gomock.Any(), account, ledger.Amount(0), "operator credit").
			Return(dErrors.New(dErrors.CodeValidation, "credit amount must be positive"))

		rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/admin/accounts/"+addr.String()+"/credit",
			CreditRequest{}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *AdminHandlerSuite) TestPause() {
	s.Run("sets the system gate", func() {
		s.pause.EXPECT().SetSystemPause(gomock.Any(), true).Return(nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodPut, "/admin/pause", map[string]bool{"paused": true}))

		s.Equal(http.StatusOK, rr.Code)
		s.True(testutil.UnmarshalResponse[PauseResponse](s.T(), rr).Paused)
	})

	s.Run("requires an explicit value", func() {
		rr := testutil.DoRequest(s.router, s.request(http.MethodPut, "/admin/pause", map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reads the system gate", func() {
		s.pause.EXPECT().SystemPaused(gomock.Any()).Return(false, nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/admin/pause", nil))

		s.Equal(http.StatusOK, rr.Code)
		s.False(testutil.UnmarshalResponse[PauseResponse](s.T(), rr).Paused)
	})
}

func (s *AdminHandlerSuite) TestEscrow() {
	pid := domain.NewPassportID()

	s.Run("balanced", func() {
		s.auditor.EXPECT().Reconcile(gomock.Any(), pid).
			Return(&exchange.ReconcileReport{Exchanges: 3, Open: 1, Escrowed: 30_000_000}, nil)

		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/admin/passports/"+pid.String()+"/escrow", nil))

		s.Equal(http.StatusOK, rr.Code)
		report := testutil.UnmarshalResponse[EscrowReport](s.T(), rr)
		s.True(report.Balanced)
		s.Equal(1, report.Open)
		s.Equal(ledger.Amount(30_000_000), report.Escrowed)
	})

	s.Run("violations are reported, not raised", func() {
		s.auditor.EXPECT().Reconcile(gomock.Any(), pid).
			Return(nil, dErrors.New(dErrors.CodeInvariantViolation, "escrow balance does not match stakes"))

		rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/admin/passports/"+pid.String()+"/escrow", nil))

		s.Equal(http.StatusOK, rr.Code)
		s.False(testutil.UnmarshalResponse[EscrowReport](s.T(), rr).Balanced)
	})
}
