// Package domain holds the identifier types shared across the passport
// services. Parsing happens at trust boundaries; inside the services these
// types are always valid.
package domain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	dErrors "passport/pkg/domain-errors"
)

// AddressLength is the size in bytes of an identity address.
const AddressLength = 20

// FactKeyLength is the size in bytes of a fact key.
const FactKeyLength = 32

// Address identifies a subject, attester or requester.
type Address [AddressLength]byte

// PassportID names the storage of a single subject.
type PassportID uuid.UUID

// FactKey identifies a fact within an attester's namespace.
type FactKey [FactKeyLength]byte

// ParseAddress parses a 0x-prefixed 40 character hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, ok := strings.CutPrefix(strings.TrimSpace(s), "0x")
	if !ok {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	if len(raw) != AddressLength*2 {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes")
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is not valid hex")
	}
	return a, nil
}

// MustAddress parses s and panics on failure. Intended for tests and constants.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// NewPassportID returns a fresh random passport ID.
func NewPassportID() PassportID {
	return PassportID(uuid.New())
}

// ParsePassportID parses a UUID string, rejecting the nil UUID.
func ParsePassportID(s string) (PassportID, error) {
	if s == "" {
		return PassportID{}, dErrors.New(dErrors.CodeInvalidInput, "passport ID is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return PassportID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid passport ID")
	}
	if parsed == uuid.Nil {
		return PassportID{}, dErrors.New(dErrors.CodeInvalidInput, "passport ID cannot be nil")
	}
	return PassportID(parsed), nil
}

func (id PassportID) String() string {
	return uuid.UUID(id).String()
}

func (id PassportID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id PassportID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *PassportID) UnmarshalText(text []byte) error {
	parsed, err := ParsePassportID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseFactKey parses a 0x-prefixed hex string of at most 32 bytes. Shorter
// keys are right-padded with zeros.
func ParseFactKey(s string) (FactKey, error) {
	var k FactKey
	raw, ok := strings.CutPrefix(strings.TrimSpace(s), "0x")
	if !ok {
		return k, dErrors.New(dErrors.CodeInvalidInput, "fact key must be 0x-prefixed")
	}
	if len(raw) == 0 || len(raw)%2 != 0 {
		return k, dErrors.New(dErrors.CodeInvalidInput, "fact key must be a whole number of bytes")
	}
	if len(raw) > FactKeyLength*2 {
		return k, dErrors.New(dErrors.CodeInvalidInput, "fact key must be at most 32 bytes")
	}
	if _, err := hex.Decode(k[:], []byte(raw)); err != nil {
		return FactKey{}, dErrors.New(dErrors.CodeInvalidInput, "fact key is not valid hex")
	}
	return k, nil
}

// FactKeyFromString right-pads the bytes of a short ASCII label into a key.
func FactKeyFromString(label string) (FactKey, error) {
	var k FactKey
	if label == "" {
		return k, dErrors.New(dErrors.CodeInvalidInput, "fact key label is required")
	}
	if len(label) > FactKeyLength {
		return k, dErrors.New(dErrors.CodeInvalidInput, "fact key label must be at most 32 bytes")
	}
	copy(k[:], label)
	return k, nil
}

func (k FactKey) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (k FactKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FactKey) UnmarshalText(text []byte) error {
	parsed, err := ParseFactKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
