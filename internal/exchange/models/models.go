package models

import (
	"time"

	"passport/internal/commitment"
	ledger "passport/internal/ledger/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

// MaxEncryptedExchangeKeySize bounds the opaque payload a requester attaches
// for the owner.
const MaxEncryptedExchangeKeySize = 4096

// State is the exchange lifecycle state. Values are persisted.
type State uint8

const (
	StateClosed   State = 0
	StateProposed State = 1
	StateAccepted State = 2
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateProposed:
		return "proposed"
	case StateAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closed":
		*s = StateClosed
	case "proposed":
		*s = StateProposed
	case "accepted":
		*s = StateAccepted
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown exchange state "+string(text))
	}
	return nil
}

// Exchange is one record of a passport's append-only exchange ledger.
//
// Invariants:
//   - Index is assigned once per passport and never reused
//   - Stakes, commitments and the descriptor copy are immutable once set
//   - Closed is terminal
//   - StateExpiry keeps the value of the last transition that set it
type Exchange struct {
	PassportID           domain.PassportID `json:"passport_id"`
	Index                uint64            `json:"index"`
	Requester            domain.Address    `json:"requester"`
	RequesterStake       ledger.Amount     `json:"requester_stake"`
	Owner                domain.Address    `json:"owner"`
	OwnerStake           ledger.Amount     `json:"owner_stake"`
	Attester             domain.Address    `json:"attester"`
	Key                  domain.FactKey    `json:"key"`
	ContentPointer       string            `json:"content_pointer"`
	DataKeyHash          commitment.Digest `json:"data_key_hash"`
	EncryptedExchangeKey domain.HexBytes   `json:"encrypted_exchange_key"`
	ExchangeKeyHash      commitment.Digest `json:"exchange_key_hash"`
	EncryptedDataKey     commitment.Key    `json:"encrypted_data_key"`
	State                State             `json:"state"`
	StateExpiry          time.Time         `json:"state_expiry"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Proposal carries the requester's side of a new exchange.
type Proposal struct {
	Requester            domain.Address
	Attester             domain.Address
	Key                  domain.FactKey
	EncryptedExchangeKey domain.HexBytes
	ExchangeKeyHash      commitment.Digest
	Stake                ledger.Amount
}

func (p Proposal) Validate() error {
	if p.Requester.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "requester cannot be the zero address")
	}
	if len(p.EncryptedExchangeKey) > MaxEncryptedExchangeKeySize {
		return dErrors.New(dErrors.CodeValidation, "encrypted exchange key is too large")
	}
	return nil
}

// Descriptor is the copy of the private data commitment an exchange is
// bound to.
type Descriptor struct {
	ContentPointer string
	DataKeyHash    commitment.Digest
}

// NewExchange builds the Proposed record. owner is the passport owner at this
// instant and stays on the record even if ownership later moves.
func NewExchange(pid domain.PassportID, idx uint64, p Proposal, owner domain.Address, d Descriptor, now time.Time, proposeTimeout time.Duration) (*Exchange, error) {
	if pid.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "passport ID cannot be nil")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner cannot be the zero address")
	}
	if proposeTimeout <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "propose timeout must be positive")
	}
	return &Exchange{
		PassportID:           pid,
		Index:                idx,
		Requester:            p.Requester,
		RequesterStake:       p.Stake,
		Owner:                owner,
		Attester:             p.Attester,
		Key:                  p.Key,
		ContentPointer:       d.ContentPointer,
		DataKeyHash:          d.DataKeyHash,
		EncryptedExchangeKey: append(domain.HexBytes(nil), p.EncryptedExchangeKey...),
		ExchangeKeyHash:      p.ExchangeKeyHash,
		State:                StateProposed,
		StateExpiry:          now.Add(proposeTimeout),
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Expired reports whether now is at or past StateExpiry.
func (e *Exchange) Expired(now time.Time) bool {
	return !now.Before(e.StateExpiry)
}

func (e *Exchange) IsOpen() bool {
	return e.State != StateClosed
}

// Escrowed is the value that must be held for this record while open.
func (e *Exchange) Escrowed() ledger.Amount {
	return e.RequesterStake + e.OwnerStake
}

func (e *Exchange) requireState(want State) error {
	if e.State == want {
		return nil
	}
	if e.State == StateClosed {
		return dErrors.New(dErrors.CodeInvalidState, "exchange is closed")
	}
	return dErrors.New(dErrors.CodeInvalidState, "exchange is "+e.State.String()+", expected "+want.String())
}

// CanAccept checks that caller is the recorded owner and the proposal has
// not lapsed.
func (e *Exchange) CanAccept(caller domain.Address, now time.Time) error {
	if err := e.requireState(StateProposed); err != nil {
		return err
	}
	if caller != e.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the passport owner can accept")
	}
	if e.Expired(now) {
		return dErrors.New(dErrors.CodeExpired, "proposal has expired")
	}
	return nil
}

func (e *Exchange) ApplyAccept(encryptedDataKey commitment.Key, stake ledger.Amount, now time.Time, acceptTimeout time.Duration) {
	e.EncryptedDataKey = encryptedDataKey
	e.OwnerStake = stake
	e.State = StateAccepted
	e.StateExpiry = now.Add(acceptTimeout)
	e.UpdatedAt = now
}

// CanTimeout allows anyone to close a lapsed proposal.
func (e *Exchange) CanTimeout(now time.Time) error {
	if err := e.requireState(StateProposed); err != nil {
		return err
	}
	if !e.Expired(now) {
		return dErrors.New(dErrors.CodeNotYetExpired, "proposal has not expired")
	}
	return nil
}

// CanFinish allows the requester at any time after accept, or anyone once
// the dispute window has passed.
func (e *Exchange) CanFinish(caller domain.Address, now time.Time) error {
	if err := e.requireState(StateAccepted); err != nil {
		return err
	}
	if caller != e.Requester && !e.Expired(now) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the requester can finish before expiry")
	}
	return nil
}

// CanDispute checks caller and window. The reveal itself is checked by
// Resolve.
func (e *Exchange) CanDispute(caller domain.Address, now time.Time) error {
	if err := e.requireState(StateAccepted); err != nil {
		return err
	}
	if caller != e.Requester {
		return dErrors.New(dErrors.CodeUnauthorized, "only the requester can dispute")
	}
	if e.Expired(now) {
		return dErrors.New(dErrors.CodeExpired, "dispute window has closed")
	}
	return nil
}

// Verdict is the outcome of a dispute.
type Verdict struct {
	// Successful is true when the dispute proved the owner cheated.
	Successful bool
	Cheater    domain.Address
	Winner     domain.Address
}

// Resolve checks the revealed exchange key against its commitment and then
// decides who cheated. A reveal that does not match fails with
// InvalidReveal and decides nothing.
func (e *Exchange) Resolve(revealed commitment.Key) (Verdict, error) {
	if !commitment.Verify(revealed, e.ExchangeKeyHash) {
		return Verdict{}, dErrors.New(dErrors.CodeInvalidReveal, "exchange key does not match its commitment")
	}
	candidate := commitment.XOR(e.EncryptedDataKey, revealed)
	if !commitment.Verify(candidate, e.DataKeyHash) {
		return Verdict{Successful: true, Cheater: e.Owner, Winner: e.Requester}, nil
	}
	return Verdict{Successful: false, Cheater: e.Requester, Winner: e.Owner}, nil
}

// ApplyClose marks the record terminal. StateExpiry is left untouched.
func (e *Exchange) ApplyClose(now time.Time) {
	e.State = StateClosed
	e.UpdatedAt = now
}
