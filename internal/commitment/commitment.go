// Package commitment provides the hash commitments and one-time-pad key
// combination used by the private-data exchange.
//
// Every party computes the same values: the data holder commits to its data
// key with Hash, the requester commits to a one-time exchange key with Hash,
// and the holder hands over EncryptedDataKey = XOR(dataKey, exchangeKey).
package commitment

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "passport/pkg/domain-errors"
)

// Size is the byte length of digests and keys.
const Size = 32

// Digest is a Keccak-256 digest.
type Digest [Size]byte

// Key is a 32-byte secret: a data key, an exchange key or their combination.
type Key [Size]byte

// Hash returns the Keccak-256 digest of a key. This is the legacy Keccak
// padding, not the standardised SHA3-256.
func Hash(k Key) Digest {
	var d Digest
	h := sha3.NewLegacyKeccak256()
	h.Write(k[:])
	h.Sum(d[:0])
	return d
}

// XOR combines two keys byte by byte. It is its own inverse.
func XOR(a, b Key) Key {
	var out Key
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Verify reports whether candidate hashes to committed.
func Verify(candidate Key, committed Digest) bool {
	return Hash(candidate) == committed
}

// NewKey draws a random key from crypto/rand.
func NewKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return Key{}, fmt.Errorf("read random key: %w", err)
	}
	return k, nil
}

func parse32(s, what string) ([Size]byte, error) {
	var out [Size]byte
	raw, ok := strings.CutPrefix(strings.TrimSpace(s), "0x")
	if !ok {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" must be 0x-prefixed")
	}
	if len(raw) != Size*2 {
		return out, dErrors.New(dErrors.CodeInvalidInput, what+" must be 32 bytes")
	}
	if _, err := hex.Decode(out[:], []byte(raw)); err != nil {
		return [Size]byte{}, dErrors.New(dErrors.CodeInvalidInput, what+" is not valid hex")
	}
	return out, nil
}

// ParseDigest parses a 0x-prefixed 64 character hex string.
func ParseDigest(s string) (Digest, error) {
	b, err := parse32(s, "digest")
	return Digest(b), err
}

// ParseKey parses a 0x-prefixed 64 character hex string.
func ParseKey(s string) (Key, error) {
	b, err := parse32(s, "key")
	return Key(b), err
}

func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
