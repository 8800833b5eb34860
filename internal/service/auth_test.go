package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebook/backend/internal/service"
)

func TestGenerateAndValidateToken(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	userID := uuid.New()

	token, err := auth.GenerateToken(userID, "chef", time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "chef", claims.Username)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := service.NewAuthService("one").GenerateToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = service.NewAuthService("two").ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	token, err := auth.GenerateToken(uuid.New(), "", -time.Minute)
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenSubjectFallback(t *testing.T) {
	userID := uuid.New()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got, err := service.NewAuthService("test-secret").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
}

func TestValidateTokenWithoutUser(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = service.NewAuthService("test-secret").ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrMissingUser)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = service.NewAuthService("test-secret").ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := service.NewAuthService("test-secret").ValidateToken("not.a.token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
