package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	raw, err := Issue(secret, 42, "sess-1", "Editor", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := Parse(secret, raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "Editor", claims.Role)
}

func TestParseRejectsExpired(t *testing.T) {
	raw, err := Issue(secret, 1, "s", "User", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = Parse(secret, raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := Issue(secret, 1, "s", "User", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = Parse([]byte("other"), raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsMissingSession(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = Parse(secret, raw)
	assert.ErrorIs(t, err, ErrInvalid)
}
