package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsComparesCodes(t *testing.T) {
	err := New(CodeInvalidState, "exchange is closed")
	require.ErrorIs(t, err, New(CodeInvalidState, "anything"))
	assert.NotErrorIs(t, err, New(CodeExpired, "exchange is closed"))
}

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		inner := New(CodeNotFound, "exchange not found")
		err := fmt.Errorf("lookup: %w", inner)
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches cause of outer domain error", func(t *testing.T) {
		err := Wrap(New(CodeInsufficientFunds, "balance too low"), CodeInternal, "lock stake")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeInsufficientFunds))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))

	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load passport")
	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "failed to load passport", MessageOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Empty(t, MessageOf(errors.New("boom")))
}
