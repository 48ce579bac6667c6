package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
)

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, app_errors.ErrValidation),
		errors.Is(err, app_errors.ErrInvalidSelection),
		errors.Is(err, app_errors.ErrUnknownMediaKind):
		return http.StatusBadRequest
	case errors.Is(err, app_errors.ErrUnauthorized),
		errors.Is(err, app_errors.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrLessonNotFound),
		errors.Is(err, app_errors.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, app_errors.ErrBusy),
		errors.Is(err, app_errors.ErrAlreadyUploading):
		return http.StatusConflict
	case errors.Is(err, app_errors.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, app_errors.ErrUploadsPending):
		return http.StatusLocked
	case errors.Is(err, app_errors.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Fail aborts the request with the status and body matching err. Server side
// failures are attached to the context for the logging middleware.
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)
	body := gin.H{"error": err.Error()}

	var verr *app_errors.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
