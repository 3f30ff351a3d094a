package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "antares-helpdesk/pkg/errors"
)

func newTestService() *jwtService {
	return NewJWTService("test-secret", time.Hour, 24*time.Hour, zap.NewNop()).(*jwtService)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	s := newTestService()
	userID := uuid.New()

	access, refresh, err := s.GenerateTokens(userID)
	require.NoError(t, err)

	claims, err := s.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.False(t, claims.IsRefreshToken)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := s.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefreshToken)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestValidateToken_Expired(t *testing.T) {
	s := newTestService()
	access, _, err := s.GenerateTokens(uuid.New())
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = s.ValidateToken(access)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	access, _, err := newTestService().GenerateTokens(uuid.New())
	require.NoError(t, err)

	other := NewJWTService("another-secret", time.Hour, time.Hour, zap.NewNop())
	_, err = other.ValidateToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestStorageToken_BoundToBucket(t *testing.T) {
	s := newTestService()

	token, expiresAt, err := s.GenerateStorageToken("ticket-attachments", "u1/2026-10-18/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	path, err := s.ValidateStorageToken(token, "ticket-attachments")
	require.NoError(t, err)
	assert.Equal(t, "u1/2026-10-18/a.pdf", path)

	_, err = s.ValidateStorageToken(token, "message-attachments")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestStorageToken_NotAcceptedAsSession(t *testing.T) {
	s := newTestService()
	token, _, err := s.GenerateStorageToken("ticket-attachments", "x.png", time.Hour)
	require.NoError(t, err)

	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
