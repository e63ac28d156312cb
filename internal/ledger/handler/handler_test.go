package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"passport/internal/ledger/handler/mocks"
	"passport/internal/ledger/models"
	"passport/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/ledger-mocks.go -package=mocks Service
func newRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestBalance(t *testing.T) {
	addr := testutil.Address(0x0b)
	account := models.IdentityAccount(addr)

	t.Run("reads the identity account", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Balance(gomock.Any(), account).Return(models.Amount(30_000_000), nil)

		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/accounts/"+addr.String()+"/balance", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[BalanceResponse](t, rr)
		assert.Equal(t, account, resp.Account)
		assert.Equal(t, models.Amount(30_000_000), resp.Balance)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		r, _ := newRouter(t)
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/accounts/0x12/balance", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestEntries(t *testing.T) {
	addr := testutil.Address(0x0b)
	account := models.IdentityAccount(addr)
	r, svc := newRouter(t)
	svc.EXPECT().Entries(gomock.Any(), account).Return([]models.Entry{{
		TransferID:   uuid.New(),
		Account:      account,
		Counterparty: models.MintAccount,
		Direction:    models.DirectionCredit,
		Amount:       5,
	}}, nil)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/accounts/"+addr.String()+"/entries", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[EntriesResponse](t, rr)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, models.DirectionCredit, resp.Entries[0].Direction)
}
