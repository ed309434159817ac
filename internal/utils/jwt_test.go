package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("u-1", "admin@devhub.io", RoleSuperAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin@devhub.io", claims.Email)
	assert.Equal(t, RoleSuperAdmin, claims.Role)
}

func TestValidateJWTRejects(t *testing.T) {
	SetJWTSecret("test-secret")

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateJWT("u-1", "a@b.c", "developer", -time.Minute)
		require.NoError(t, err)
		_, err = ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateJWT("u-1", "a@b.c", "developer", time.Hour)
		require.NoError(t, err)
		SetJWTSecret("other")
		defer SetJWTSecret("test-secret")
		_, err = ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u-1"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateJWT("not-a-token")
		assert.Error(t, err)
	})
}
