package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type fakeAuth map[string]models.User

func (f fakeAuth) Authenticate(_ context.Context, token string) (models.User, error) {
	if token == "expired" {
		return models.User{}, app_errors.ErrTokenExpired
	}
	u, ok := f[token]
	if !ok {
		return models.User{}, app_errors.ErrUnauthorized
	}
	return u, nil
}

func TestAuthAndRoles(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	teacher := models.User{ID: uuid.New(), Roles: []string{models.TeacherRole}}
	student := models.User{ID: uuid.New(), Roles: []string{models.StudentRole}}
	auth := NewAuthMiddlewareProvider(logger.Discard(), fakeAuth{"t": teacher, "s": student})

	r := gin.New()
	r.GET("/private", auth.AuthMiddleware, RequireRoles(models.TeacherRole), func(c *gin.Context) {
		id, _ := c.Get(ClientIDCtx)
		c.String(http.StatusOK, id.(uuid.UUID).String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "no header", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer expired", status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer s", status: http.StatusForbidden},
		{name: "teacher", header: "Bearer t", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, teacher.ID.String(), w.Body.String())
			}
		})
	}
}
