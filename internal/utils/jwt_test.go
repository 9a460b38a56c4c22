package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "auth-service"
	testAudience = "web-client"
)

func sign(t *testing.T, accountID uint64, role string, ttl time.Duration) string {
	t.Helper()
	raw, err := SignToken(accountID, role, testSecret, testIssuer, testAudience, ttl)
	require.NoError(t, err)
	return raw
}

func TestSignAndVerifyToken(t *testing.T) {
	raw := sign(t, 42, "CONSUMER", time.Hour)

	claims, err := VerifyToken(raw, testSecret, testIssuer, testAudience)
	require.NoError(t, err)

	assert.Equal(t, "CONSUMER", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	raw := sign(t, 1, "CONSUMER", time.Hour)

	_, err := VerifyToken(raw, "other-secret", testIssuer, testAudience)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_WrongIssuerOrAudience(t *testing.T) {
	raw := sign(t, 1, "CONSUMER", time.Hour)

	_, err := VerifyToken(raw, testSecret, "someone-else", testAudience)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = VerifyToken(raw, testSecret, testIssuer, "mobile-client")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_Expired(t *testing.T) {
	// Expired well past the leeway window.
	raw := sign(t, 1, "CONSUMER", -time.Minute)

	_, err := VerifyToken(raw, testSecret, testIssuer, testAudience)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyToken_ExpiredWithinLeeway(t *testing.T) {
	// Nominally expired but inside the clock-skew tolerance.
	raw := sign(t, 1, "CONSUMER", -2*time.Second)

	_, err := VerifyToken(raw, testSecret, testIssuer, testAudience)
	assert.NoError(t, err)
}

func TestVerifyToken_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := VerifyToken(raw, testSecret, testIssuer, testAudience)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", raw)
	}
}

func TestTokensCarryUniqueIDs(t *testing.T) {
	a := sign(t, 7, "PROVIDER", time.Hour)
	b := sign(t, 7, "PROVIDER", time.Hour)
	assert.NotEqual(t, a, b)
}

func TestAccountID_NonNumericSubject(t *testing.T) {
	c := &Claims{}
	c.Subject = "abc"
	_, err := c.AccountID()
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
