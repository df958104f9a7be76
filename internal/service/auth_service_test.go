package service

import (
	"testing"
	"time"

	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}, nil, nil)
}

func TestAuthService_PasswordHashing(t *testing.T) {
	s := testAuthService()
	hash, err := s.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, s.CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, s.CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	s := testAuthService()
	signed, jti, err := s.signToken(12, model.RoleAdmin, time.Now())
	require.NoError(t, err)

	claims, err := s.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, 12, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestAuthService_RejectsForeignAndExpiredTokens(t *testing.T) {
	s := testAuthService()
	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil, nil)

	signed, _, err := other.signToken(1, model.RoleLearner, time.Now())
	require.NoError(t, err)
	_, err = s.ValidateToken(signed)
	assert.Error(t, err)

	expired, _, err := s.signToken(1, model.RoleLearner, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = s.ValidateToken(expired)
	assert.Error(t, err)
}
