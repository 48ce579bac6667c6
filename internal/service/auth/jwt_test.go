package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", "school")
	svc := NewAuthService(logger.Discard(), manager)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, []string{models.TeacherRole}, time.Hour)
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.True(t, user.HasRole(models.TeacherRole))
	assert.False(t, user.HasRole(models.StudentRole))
}

func TestAuthenticateRejects(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("secret", "school")
	svc := NewAuthService(logger.Discard(), manager)

	expired, err := manager.GenerateAccessToken(uuid.New(), nil, -time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), expired)
	require.ErrorIs(t, err, app_errors.ErrTokenExpired)

	foreign, err := NewJWTManager("other", "school").GenerateAccessToken(uuid.New(), nil, time.Hour)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), foreign)
	require.ErrorIs(t, err, app_errors.ErrUnauthorized)

	wrongIssuer, err := NewJWTManager("secret", "elsewhere").GenerateAccessToken(uuid.New(), nil, time.Hour)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), wrongIssuer)
	require.ErrorIs(t, err, app_errors.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, app_errors.ErrUnauthorized)
}
