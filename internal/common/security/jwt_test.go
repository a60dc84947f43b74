package security

import (
	"testing"
	"time"

	"classtrack/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestJWT(t *testing.T, exp time.Duration) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: exp,
	}
	InitJWT()
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	initTestJWT(t, 30*time.Minute)

	tokenString, err := GenerateToken("user-123", "teacher")
	require.NoError(t, err)

	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	require.NoError(t, err)

	userID, ok := token.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "user-123", userID)

	role, ok := token.Get("role")
	require.True(t, ok)
	assert.Equal(t, "teacher", role)
}

func TestExpiredTokenRejected(t *testing.T) {
	initTestJWT(t, -1*time.Minute)

	tokenString, err := GenerateToken("user-123", "student")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, tokenString)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	initTestJWT(t, 30*time.Minute)

	tokenString, err := GenerateToken("user-123", "student")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, tokenString+"x")
	assert.Error(t, err)
}

func TestClaimHelpers(t *testing.T) {
	claims := map[string]interface{}{"user_id": "u1", "role": "student"}

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "student", role)

	_, err = GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
	_, err = GetUserRoleFromClaims(map[string]interface{}{"role": 42})
	assert.Error(t, err)
}
