package models

import (
	"time"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

// Passport is the per-subject record that owns facts, private data
// descriptors and exchanges.
//
// Invariants:
//   - Owner is never the zero address
//   - Ownership moves in two phases: the owner nominates PendingOwner, and
//     only PendingOwner can complete the transfer
//   - A destroyed passport accepts no further operations
//   - Lifecycle changes other than Unpause are refused while paused
type Passport struct {
	ID           domain.PassportID `json:"id"`
	Owner        domain.Address    `json:"owner"`
	PendingOwner *domain.Address   `json:"pending_owner,omitempty"`
	Paused       bool              `json:"paused"`
	Destroyed    bool              `json:"destroyed"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewPassport(id domain.PassportID, owner domain.Address, now time.Time) (*Passport, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "passport ID cannot be nil")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "passport owner cannot be the zero address")
	}
	return &Passport{
		ID:        id,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Passport) IsOwner(addr domain.Address) bool {
	return p.Owner == addr
}

func (p *Passport) requireOwner(caller domain.Address) error {
	if !p.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the passport owner")
	}
	return nil
}

func (p *Passport) requireNotPaused() error {
	if p.Paused {
		return dErrors.New(dErrors.CodePaused, "passport is paused")
	}
	return nil
}

// CanTransferOwnership checks that caller may nominate newOwner.
func (p *Passport) CanTransferOwnership(caller, newOwner domain.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if err := p.requireNotPaused(); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new owner cannot be the zero address")
	}
	return nil
}

// ApplyTransferOwnership records the nominee. Call CanTransferOwnership first.
func (p *Passport) ApplyTransferOwnership(newOwner domain.Address, now time.Time) {
	nominee := newOwner
	p.PendingOwner = &nominee
	p.UpdatedAt = now
}

// CanClaimOwnership checks that caller is the current nominee.
func (p *Passport) CanClaimOwnership(caller domain.Address) error {
	if p.PendingOwner == nil || *p.PendingOwner != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the pending owner")
	}
	return p.requireNotPaused()
}

// ApplyClaimOwnership makes the nominee the owner and clears the nomination.
// Returns the previous owner.
func (p *Passport) ApplyClaimOwnership(now time.Time) domain.Address {
	previous := p.Owner
	p.Owner = *p.PendingOwner
	p.PendingOwner = nil
	p.UpdatedAt = now
	return previous
}

func (p *Passport) CanPause(caller domain.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if p.Paused {
		return dErrors.New(dErrors.CodeInvalidState, "passport is already paused")
	}
	return nil
}

func (p *Passport) ApplyPause(now time.Time) {
	p.Paused = true
	p.UpdatedAt = now
}

func (p *Passport) CanUnpause(caller domain.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	if !p.Paused {
		return dErrors.New(dErrors.CodeInvalidState, "passport is not paused")
	}
	return nil
}

func (p *Passport) ApplyUnpause(now time.Time) {
	p.Paused = false
	p.UpdatedAt = now
}

// CanDestroy checks owner and pause state. Open exchanges are checked by the
// service, which owns that query.
func (p *Passport) CanDestroy(caller domain.Address) error {
	if err := p.requireOwner(caller); err != nil {
		return err
	}
	return p.requireNotPaused()
}

func (p *Passport) ApplyDestroy(now time.Time) {
	p.Destroyed = true
	p.PendingOwner = nil
	p.UpdatedAt = now
}
