package handler

import (
	"time"

	ledger "passport/internal/ledger/models"
	"passport/internal/passport/models"
	"passport/pkg/domain"
)

type TransferOwnershipRequest struct {
	NewOwner domain.Address `json:"new_owner"`
}

// DestroyRequest names the recipient of the swept balance. A missing
// recipient sends it to the owner.
type DestroyRequest struct {
	Recipient *domain.Address `json:"recipient,omitempty"`
}

type AmountRequest struct {
	Amount ledger.Amount `json:"amount"`
}

// Response is the HTTP view of a passport.
type Response struct {
	ID           domain.PassportID `json:"id"`
	Owner        domain.Address    `json:"owner"`
	PendingOwner *domain.Address   `json:"pending_owner,omitempty"`
	Paused       bool              `json:"paused"`
	Balance      ledger.Amount     `json:"balance"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ListResponse struct {
	Passports []*Response `json:"passports"`
}

type DestroyResponse struct {
	PassportID domain.PassportID `json:"passport_id"`
	Swept      ledger.Amount     `json:"swept"`
}

type BalanceResponse struct {
	PassportID domain.PassportID `json:"passport_id"`
	Balance    ledger.Amount     `json:"balance"`
}

func toResponse(p *models.Passport, balance ledger.Amount) *Response {
	return &Response{
		ID:           p.ID,
		Owner:        p.Owner,
		PendingOwner: p.PendingOwner,
		Paused:       p.Paused,
		Balance:      balance,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
