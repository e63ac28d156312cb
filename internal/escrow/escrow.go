// Package escrow holds exchange stakes in per-record accounts of the balance
// ledger and pays them out exactly once.
//
// Invariant: the escrow balance of an open record equals the sum of the stakes
// recorded on it, and the balance of a closed record is zero.
package escrow

import (
	"context"
	"fmt"

	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

// Ledger is the subset of the balance ledger escrow needs.
type Ledger interface {
	Balance(ctx context.Context, account ledger.Account) (ledger.Amount, error)
	Transfer(ctx context.Context, from, to ledger.Account, amount ledger.Amount, memo string) error
}

// Escrow moves stakes between participant accounts and exchange escrow.
type Escrow struct {
	ledger Ledger
}

func New(l Ledger) *Escrow {
	return &Escrow{ledger: l}
}

// Lock debits amount from the payer into the escrow of exchange idx.
func (e *Escrow) Lock(ctx context.Context, pid domain.PassportID, idx uint64, payer ledger.Account, amount ledger.Amount) error {
	return e.ledger.Transfer(ctx, payer, ledger.EscrowAccount(pid, idx), amount,
		fmt.Sprintf("stake exchange %d", idx))
}

// Held returns the escrow balance of exchange idx.
func (e *Escrow) Held(ctx context.Context, pid domain.PassportID, idx uint64) (ledger.Amount, error) {
	return e.ledger.Balance(ctx, ledger.EscrowAccount(pid, idx))
}

// CheckRelease reports whether Release of exchange idx to recipient would
// succeed: the held balance must equal expected and the recipient must be
// able to absorb it. Callers run it before marking the record closed.
func (e *Escrow) CheckRelease(ctx context.Context, pid domain.PassportID, idx uint64, recipient ledger.Account, expected ledger.Amount) error {
	held, err := e.ledger.Balance(ctx, ledger.EscrowAccount(pid, idx))
	if err != nil {
		return err
	}
	if held != expected {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("escrow for exchange %d holds %s, expected %s", idx, held, expected))
	}
	return CheckCredit(ctx, e.ledger, recipient, held)
}

// Release pays the entire escrow of exchange idx to the recipient. The held
// balance must equal expected, the sum of both stakes.
func (e *Escrow) Release(ctx context.Context, pid domain.PassportID, idx uint64, recipient ledger.Account, expected ledger.Amount) (ledger.Amount, error) {
	if err := e.CheckRelease(ctx, pid, idx, recipient, expected); err != nil {
		return 0, err
	}
	account := ledger.EscrowAccount(pid, idx)
	if err := e.ledger.Transfer(ctx, account, recipient, expected, fmt.Sprintf("release exchange %d", idx)); err != nil {
		return 0, err
	}
	return expected, nil
}

// CheckCredit fails when adding amount to account would overflow its balance.
func CheckCredit(ctx context.Context, l Ledger, account ledger.Account, amount ledger.Amount) error {
	balance, err := l.Balance(ctx, account)
	if err != nil {
		return err
	}
	if _, ok := balance.Add(amount); !ok {
		return dErrors.New(dErrors.CodeValidation, "amount overflows balance")
	}
	return nil
}

// Holding describes what one exchange record should have in escrow.
type Holding struct {
	PassportID domain.PassportID
	Index      uint64
	Open       bool
	Stakes     ledger.Amount
}

// Reconcile checks conservation across holdings and reports every mismatch.
func (e *Escrow) Reconcile(ctx context.Context, holdings []Holding) error {
	var mismatches []string
	for _, h := range holdings {
		held, err := e.ledger.Balance(ctx, ledger.EscrowAccount(h.PassportID, h.Index))
		if err != nil {
			return err
		}
		want := ledger.Amount(0)
		if h.Open {
			want = h.Stakes
		}
		if held != want {
			mismatches = append(mismatches, fmt.Sprintf("exchange %d holds %s, expected %s", h.Index, held, want))
		}
	}
	if len(mismatches) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("escrow mismatch: %v", mismatches))
	}
	return nil
}
