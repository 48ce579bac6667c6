package auth

import (
	"context"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type AuthService struct {
	log        logger.Log
	jwtManager *JWTManager
}

func NewAuthService(l logger.Log, manager *JWTManager) *AuthService {
	return &AuthService{
		log:        l,
		jwtManager: manager,
	}
}

// Authenticate verifies an access token and returns its user.
func (s *AuthService) Authenticate(_ context.Context, token string) (models.User, error) {
	claims, err := s.jwtManager.AccessClaims(token)
	if err != nil {
		s.log.Debug("rejected access token", "error", err)
		return models.User{}, err
	}
	return models.User{ID: claims.UserID, Roles: claims.Roles}, nil
}
