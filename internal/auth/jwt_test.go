package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(ServiceConfig{
		SigningKey: "test-signing-key-do-not-use-in-prod",
		Issuer:     "https://api.test.local",
		Audience:   "skateroute-api",
	})
}

func TestService_GenerateAndValidate(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateAccessToken("rider_123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(AccessTokenExpiry), expiresAt, 5*time.Second)

	riderID, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "rider_123", riderID)
}

func TestService_RejectsWrongKey(t *testing.T) {
	token, _, err := newTestService().GenerateAccessToken("rider_123")
	require.NoError(t, err)

	other := NewService(ServiceConfig{
		SigningKey: "a-different-key",
		Issuer:     "https://api.test.local",
		Audience:   "skateroute-api",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestService_RejectsWrongAudience(t *testing.T) {
	token, _, err := newTestService().GenerateAccessToken("rider_123")
	require.NoError(t, err)

	other := NewService(ServiceConfig{
		SigningKey: "test-signing-key-do-not-use-in-prod",
		Issuer:     "https://api.test.local",
		Audience:   "some-other-service",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestService_RejectsExpiredToken(t *testing.T) {
	svc := newTestService()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://api.test.local",
			Subject:   "rider_123",
			Audience:  jwt.ClaimStrings{"skateroute-api"},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
		RiderID: "rider_123",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key-do-not-use-in-prod"))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.True(t, errors.Is(err, ErrAccessTokenExpired))
}

func TestService_RejectsGarbage(t *testing.T) {
	_, err := newTestService().ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}
