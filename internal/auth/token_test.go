package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archie-s/card-vault/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("test-secret", 1)
	user := &domain.User{ID: "user-1", Username: "ada", RoleName: "customer"}

	token, expiresAt, err := manager.GenerateToken(user)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "customer", claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("issuer-secret", 1)
	verifier := NewTokenManager("other-secret", 1)

	token, _, err := issuer.GenerateToken(&domain.User{ID: "user-1", RoleName: "admin"})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", 1)

	_, err := manager.ParseToken("not.a.token")
	assert.Error(t, err)
}
