package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedelbailey/occla-backend/utils"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken(42, "ahmed@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ahmed@example.com", claims.Email)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := utils.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken(42, "ahmed@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = utils.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, utils.CheckPassword(hash, "secret123"))
	assert.False(t, utils.CheckPassword(hash, "secret124"))
}

func TestBlacklistToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token := "some.jwt.token"
	assert.False(t, utils.IsTokenBlacklisted(token))

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, utils.IsTokenBlacklisted(token))

	// a token past its natural expiry is not worth tracking
	utils.BlacklistToken("expired.jwt.token", time.Now().Add(-time.Hour))
	assert.False(t, utils.IsTokenBlacklisted("expired.jwt.token"))
}
