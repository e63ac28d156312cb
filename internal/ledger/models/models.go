package models

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"passport/pkg/domain"
)

// Amount is a non-negative quantity of value units.
type Amount uint64

// MaxAmount is the largest representable balance.
const MaxAmount = Amount(math.MaxUint64)

// Add returns a+b and false when the sum overflows.
func (a Amount) Add(b Amount) (Amount, bool) {
	if a > MaxAmount-b {
		return 0, false
	}
	return a + b, true
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAmount parses a base-10 unsigned integer.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount(v), nil
}

// Account names a balance in the ledger.
type Account string

// IdentityAccount holds the free balance of an address.
func IdentityAccount(addr domain.Address) Account {
	return Account("id:" + addr.String())
}

// PassportAccount holds value sent to the passport itself. Destroy sweeps it.
func PassportAccount(pid domain.PassportID) Account {
	return Account("passport:" + pid.String())
}

// EscrowAccount holds the stakes of one exchange record.
func EscrowAccount(pid domain.PassportID, idx uint64) Account {
	return Account(fmt.Sprintf("escrow:%s:%d", pid, idx))
}

// Direction of a journal entry relative to its account.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Entry is one side of a ledger movement. Every transfer produces a debit
// on the source and a credit on the destination sharing a TransferID.
type Entry struct {
	TransferID   uuid.UUID `json:"transfer_id"`
	Account      Account   `json:"account"`
	Counterparty Account   `json:"counterparty"`
	Direction    Direction `json:"direction"`
	Amount       Amount    `json:"amount"`
	Memo         string    `json:"memo"`
	CreatedAt    time.Time `json:"created_at"`
}

// MintAccount is the counterparty of operator credits.
const MintAccount Account = "mint"
