package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("tablet-1", "scanner", "schoolattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	claims, err := Parse(pair.AccessToken, "secret", "schoolattend")
	require.NoError(t, err)
	assert.Equal(t, "tablet-1", claims.DeviceID)
	assert.Equal(t, "scanner", claims.Role)
}

func TestParse_WrongKey(t *testing.T) {
	pair, err := Issue("tablet-1", "scanner", "schoolattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-secret", "schoolattend")
	assert.Error(t, err)
}

func TestParse_IssuerMismatch(t *testing.T) {
	pair, err := Issue("tablet-1", "scanner", "someone-else", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "schoolattend")
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	pair, err := Issue("tablet-1", "scanner", "schoolattend", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "schoolattend")
	assert.Error(t, err)
}
