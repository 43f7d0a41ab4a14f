package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func newTestService() *Service {
	return NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
}

func TestNewService(t *testing.T) {
	service := newTestService()

	assert.NotNil(t, service)
	assert.Equal(t, testAccessSecret, service.accessSecret)
	assert.Equal(t, testRefreshSecret, service.refreshSecret)
	assert.Equal(t, time.Hour, service.AccessTokenExpiry())
	assert.Equal(t, 24*time.Hour, service.refreshTokenExpiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(42, "mia@example.com", "agent")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "mia@example.com", claims.Email)
	assert.Equal(t, "agent", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateRefreshToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateRefreshToken(7, "user@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Empty(t, claims.Role)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestTokenIDsAreUnique(t *testing.T) {
	service := newTestService()

	first, err := service.GenerateAccessToken(1, "a@example.com", "user")
	require.NoError(t, err)
	second, err := service.GenerateAccessToken(1, "a@example.com", "user")
	require.NoError(t, err)

	c1, err := service.ExtractClaims(first)
	require.NoError(t, err)
	c2, err := service.ExtractClaims(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestValidateAccessToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(3, "admin@example.com", "admin")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		claims, err := service.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.ValidateAccessToken("invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		wrongService := NewService("wrong-secret", testRefreshSecret, time.Hour, 24*time.Hour)
		_, err := wrongService.ValidateAccessToken(token)
		assert.Error(t, err)
	})
}

func TestValidateToken_WrongType(t *testing.T) {
	// Same secret for both so only the type check can reject.
	service := NewService("shared-secret", "shared-secret", time.Hour, 24*time.Hour)

	refresh, err := service.GenerateRefreshToken(1, "a@example.com")
	require.NoError(t, err)
	_, err = service.ValidateAccessToken(refresh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")

	access, err := service.GenerateAccessToken(1, "a@example.com", "user")
	require.NoError(t, err)
	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, -time.Minute, -time.Minute)

	token, err := service.GenerateAccessToken(1, "a@example.com", "user")
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, service.IsTokenExpired(token))
}

func TestIsTokenExpired(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAccessToken(1, "a@example.com", "user")
	require.NoError(t, err)

	assert.False(t, service.IsTokenExpired(token))
	assert.True(t, service.IsTokenExpired("garbage"))
}

func TestValidateToken_WrongSigningMethod(t *testing.T) {
	service := newTestService()

	claims := Claims{
		UserID:    1,
		Role:      "admin",
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	service := newTestService()

	claims := Claims{
		UserID:    1,
		Role:      "admin",
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "someone-else",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}
