package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/testutil"
)

var (
	owner    = domain.MustAddress("0x1000000000000000000000000000000000000001")
	nominee  = domain.MustAddress("0x2000000000000000000000000000000000000002")
	stranger = domain.MustAddress("0x3000000000000000000000000000000000000003")
	now      = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
)

func newPassport(t *testing.T) *Passport {
	t.Helper()
	p, err := NewPassport(domain.NewPassportID(), owner, now)
	require.NoError(t, err)
	return p
}

func TestNewPassport(t *testing.T) {
	t.Run("rejects zero owner", func(t *testing.T) {
		_, err := NewPassport(domain.NewPassportID(), domain.Address{}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects nil ID", func(t *testing.T) {
		_, err := NewPassport(domain.PassportID{}, owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestTwoPhaseOwnership(t *testing.T) {
	p := newPassport(t)

	assert.True(t, dErrors.HasCode(p.CanTransferOwnership(stranger, nominee), dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(p.CanClaimOwnership(nominee), dErrors.CodeUnauthorized))

	require.NoError(t, p.CanTransferOwnership(owner, nominee))
	p.ApplyTransferOwnership(nominee, now)
	require.NotNil(t, p.PendingOwner)
	assert.Equal(t, owner, p.Owner)

	assert.True(t, dErrors.HasCode(p.CanClaimOwnership(stranger), dErrors.CodeUnauthorized))
	require.NoError(t, p.CanClaimOwnership(nominee))
	previous := p.ApplyClaimOwnership(now)

	assert.Equal(t, owner, previous)
	assert.Equal(t, nominee, p.Owner)
	assert.Nil(t, p.PendingOwner)
}

func TestPauseBlocksLifecycle(t *testing.T) {
	p := newPassport(t)
	require.NoError(t, p.CanTransferOwnership(owner, nominee))
	p.ApplyTransferOwnership(nominee, now)

	require.NoError(t, p.CanPause(owner))
	p.ApplyPause(now)

	assert.True(t, dErrors.HasCode(p.CanPause(owner), dErrors.CodeInvalidState))
	assert.True(t, dErrors.HasCode(p.CanTransferOwnership(owner, stranger), dErrors.CodePaused))
	assert.True(t, dErrors.HasCode(p.CanClaimOwnership(nominee), dErrors.CodePaused))
	assert.True(t, dErrors.HasCode(p.CanDestroy(owner), dErrors.CodePaused))

	require.NoError(t, p.CanUnpause(owner))
	p.ApplyUnpause(now)
	assert.True(t, dErrors.HasCode(p.CanUnpause(owner), dErrors.CodeInvalidState))
	assert.NoError(t, p.CanDestroy(owner))
}

func TestPauseIsOwnerOnly(t *testing.T) {
	p := newPassport(t)
	assert.True(t, dErrors.HasCode(p.CanPause(stranger), dErrors.CodeUnauthorized))
	p.ApplyPause(now)
	assert.True(t, dErrors.HasCode(p.CanUnpause(stranger), dErrors.CodeUnauthorized))
}

func TestOwnershipHandOffScenario(t *testing.T) {
	testutil.Given(t, "an owner who nominated a successor", func(t *testing.T) {
		p := newPassport(t)
		require.NoError(t, p.CanTransferOwnership(owner, nominee))
		p.ApplyTransferOwnership(nominee, now)

		testutil.When(t, "the owner re-nominates before the claim", func(t *testing.T) {
			require.NoError(t, p.CanTransferOwnership(owner, stranger))
			p.ApplyTransferOwnership(stranger, now)

			testutil.Then(t, "only the latest nominee can claim", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(p.CanClaimOwnership(nominee), dErrors.CodeUnauthorized))
				assert.NoError(t, p.CanClaimOwnership(stranger))
			})
		})

		testutil.When(t, "the latest nominee claims", func(t *testing.T) {
			p.ApplyClaimOwnership(now)

			testutil.Then(t, "the previous owner loses owner rights", func(t *testing.T) {
				assert.False(t, p.IsOwner(owner))
				assert.True(t, dErrors.HasCode(p.CanPause(owner), dErrors.CodeUnauthorized))
			})

			testutil.And(t, "no transfer is pending", func(t *testing.T) {
				assert.Nil(t, p.PendingOwner)
			})
		})
	})
}
