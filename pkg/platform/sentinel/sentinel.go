package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: the record does not exist
//   - ErrConflict: a record with the same identity already exists
//   - ErrInsufficientFunds: a ledger debit would overdraw the account
//   - ErrOverflow: a ledger credit would exceed the amount range
//   - ErrUnavailable: the backing store cannot be reached
//
// Input validation uses pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("amount overflow")
	ErrUnavailable       = errors.New("unavailable")
)
