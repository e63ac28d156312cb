package models

import (
	"time"

	"passport/internal/commitment"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

// Fact is a plain value an attester recorded about the subject. Deleting a
// fact clears Exists and keeps the last value.
type Fact struct {
	PassportID domain.PassportID `json:"passport_id"`
	Attester   domain.Address    `json:"attester"`
	Key        domain.FactKey    `json:"key"`
	Exists     bool              `json:"exists"`
	Value      string            `json:"value"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// PrivateData describes off-engine ciphertext: where it lives and the
// commitment to the key that decrypts it.
type PrivateData struct {
	PassportID     domain.PassportID `json:"passport_id"`
	Attester       domain.Address    `json:"attester"`
	Key            domain.FactKey    `json:"key"`
	Exists         bool              `json:"exists"`
	ContentPointer string            `json:"content_pointer"`
	DataKeyHash    commitment.Digest `json:"data_key_hash"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PermissionMode selects who may write facts into a passport.
type PermissionMode string

const (
	ModeOpen          PermissionMode = "open"
	ModeAllowListOnly PermissionMode = "allowlist_only"
)

func ParsePermissionMode(s string) (PermissionMode, error) {
	switch PermissionMode(s) {
	case ModeOpen, ModeAllowListOnly:
		return PermissionMode(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "permission mode must be open or allowlist_only")
	}
}

// Permissions is the write gate of one passport.
type Permissions struct {
	Mode      PermissionMode
	AllowList map[domain.Address]struct{}
}

// Permits reports whether attester may mutate facts under these permissions.
func (p Permissions) Permits(attester domain.Address) bool {
	if p.Mode != ModeAllowListOnly {
		return true
	}
	_, ok := p.AllowList[attester]
	return ok
}
