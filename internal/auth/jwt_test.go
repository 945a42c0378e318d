package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	signed, expires, err := tokens.Issue("ops@alphatravel.ng", RoleMerchant, "m-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@alphatravel.ng", claims.Subject)
	assert.Equal(t, RoleMerchant, claims.Role)
	assert.Equal(t, "m-1", claims.MerchantID)
}

func TestTokens_ParseRejectsExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, _, err := tokens.Issue("ops@alphatravel.ng", RoleAdmin, "")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(signed)

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokens_ParseRejectsForeignSecret(t *testing.T) {
	signed, _, err := NewTokens("other", time.Hour).Issue("x", RoleAdmin, "")
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(signed)

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokens_ParseRejectsNoneAlg(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(unsigned)

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTokens_IssueWithoutSecret(t *testing.T) {
	_, _, err := NewTokens("", time.Hour).Issue("x", RoleAdmin, "")
	assert.Error(t, err)
}
