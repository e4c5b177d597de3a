package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("u1", "u1@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "u1@example.com", claims.Email)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("u1", "", []byte("secret-a"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret-b"))
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("u1", "", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	require.Error(t, err)
}
