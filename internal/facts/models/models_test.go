package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

func TestPermits(t *testing.T) {
	listed := domain.MustAddress("0x0000000000000000000000000000000000000001")
	other := domain.MustAddress("0x0000000000000000000000000000000000000002")

	open := Permissions{Mode: ModeOpen}
	assert.True(t, open.Permits(other))

	zero := Permissions{}
	assert.True(t, zero.Permits(other), "unset mode behaves as open")

	restricted := Permissions{Mode: ModeAllowListOnly, AllowList: map[domain.Address]struct{}{listed: {}}}
	assert.True(t, restricted.Permits(listed))
	assert.False(t, restricted.Permits(other))
}

func TestParsePermissionMode(t *testing.T) {
	mode, err := ParsePermissionMode("allowlist_only")
	require.NoError(t, err)
	assert.Equal(t, ModeAllowListOnly, mode)

	_, err = ParsePermissionMode("closed")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
