package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

const (
	ClientIDCtx    = "client_id"
	ClientRolesCtx = "client_roles"
)

type AuthService interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

type AuthMiddlewareProvider struct {
	log     logger.Log
	service AuthService
}

func NewAuthMiddlewareProvider(log logger.Log, s AuthService) *AuthMiddlewareProvider {
	return &AuthMiddlewareProvider{
		log:     log,
		service: s,
	}
}

func (h *AuthMiddlewareProvider) AuthMiddleware(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.log.Info("failed to authenticate request", "error", err, "path", c.FullPath())
		if errors.Is(err, app_errors.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrTokenExpired.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": app_errors.ErrUnauthorized.Error()})
		return
	}

	c.Set(ClientIDCtx, user.ID)
	c.Set(ClientRolesCtx, user.Roles)
	c.Next()
}
