package domain

import (
	"encoding/hex"
	"strings"

	dErrors "passport/pkg/domain-errors"
)

// HexBytes is an opaque byte payload encoded as 0x-prefixed hex text.
type HexBytes []byte

func ParseHexBytes(s string) (HexBytes, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(s), "0x")
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "hex payload must be 0x-prefixed")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "hex payload is not valid hex")
	}
	return HexBytes(b), nil
}

func (b HexBytes) String() string {
	return "0x" + hex.EncodeToString(b)
}

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	parsed, err := ParseHexBytes(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
