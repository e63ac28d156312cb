package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "passport/pkg/domain-errors"
)

// Parsing at trust boundaries must reject anything that is not a canonical
// identifier so services never see malformed addresses or keys.
func TestParseAddress(t *testing.T) {
	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("ab", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("ab", 19))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non hex", func(t *testing.T) {
		_, err := ParseAddress("0x" + strings.Repeat("zz", 20))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round trips lowercase hex", func(t *testing.T) {
		in := "0x" + strings.Repeat("0A", 20)
		a, err := ParseAddress(in)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(in), a.String())
		assert.False(t, a.IsZero())
	})
}

func TestAddressJSON(t *testing.T) {
	a := MustAddress("0x00000000000000000000000000000000000000ff")
	payload, err := json.Marshal(map[string]Address{"owner": a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"0x00000000000000000000000000000000000000ff"}`, string(payload))

	var decoded map[string]Address
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, a, decoded["owner"])
}

func TestParsePassportID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePassportID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePassportID(uuid.Nil.String())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParsePassportID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, PassportID(raw), id)
		assert.False(t, id.IsNil())
	})
}

func TestParseFactKey(t *testing.T) {
	t.Run("short keys are right padded", func(t *testing.T) {
		k, err := ParseFactKey("0x6162")
		require.NoError(t, err)
		assert.Equal(t, byte('a'), k[0])
		assert.Equal(t, byte('b'), k[1])
		assert.Equal(t, byte(0), k[31])
	})

	t.Run("rejects odd length", func(t *testing.T) {
		_, err := ParseFactKey("0x616")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects keys longer than 32 bytes", func(t *testing.T) {
		_, err := ParseFactKey("0x" + strings.Repeat("00", 33))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("label and hex forms agree", func(t *testing.T) {
		fromLabel, err := FactKeyFromString("ab")
		require.NoError(t, err)
		fromHex, err := ParseFactKey(fromLabel.String())
		require.NoError(t, err)
		assert.Equal(t, fromLabel, fromHex)
	})
}

func TestHexBytes(t *testing.T) {
	b, err := ParseHexBytes("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, HexBytes{0xde, 0xad, 0xbe, 0xef}, b)
	assert.Equal(t, "0xdeadbeef", b.String())

	empty, err := ParseHexBytes("0x")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseHexBytes("deadbeef")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
