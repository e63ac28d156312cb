package admin

import (
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
)

type CreditRequest struct {
	Amount ledger.Amount `json:"amount"`
	Memo   string        `json:"memo,omitempty"`
}

type CreditResponse struct {
	Account ledger.Account `json:"account"`
	Balance ledger.Amount  `json:"balance"`
}

type PauseRequest struct {
	Paused *bool `json:"paused"`
}

type PauseResponse struct {
	Paused bool `json:"paused"`
}

// EscrowReport is the result of a conservation check for one passport.
type EscrowReport struct {
	PassportID domain.PassportID `json:"passport_id"`
	Exchanges  int               `json:"exchanges"`
	Open       int               `json:"open"`
	Escrowed   ledger.Amount     `json:"escrowed"`
	Balanced   bool              `json:"balanced"`
}
