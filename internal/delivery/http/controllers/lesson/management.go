package lesson

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type ManagementService interface {
	Create(ctx context.Context, path tree.ContentPath, fields models.LessonFields) (string, error)
	Update(ctx context.Context, path tree.ContentPath, id string, fields models.LessonFields) error
	Delete(ctx context.Context, path tree.ContentPath, id string, confirmed bool) error
}

type ManagementHandler struct {
	log     logger.Log
	service ManagementService
}

func NewManagementHandler(log logger.Log, service ManagementService) *ManagementHandler {
	return &ManagementHandler{log: log, service: service}
}

type createLessonRequest struct {
	Path string `json:"path" binding:"required"`
	models.LessonFields
}

func (h *ManagementHandler) CreateLesson(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.Create(c.Request.Context(), tree.ParseKey(req.Path), req.LessonFields)
	if err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ManagementHandler) UpdateLesson(c *gin.Context) {
	var fields models.LessonFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("lesson_id")
	if err := h.service.Update(c.Request.Context(), tree.ParseKey(c.Query("path")), id, fields); err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// DeleteLesson removes a lesson. The caller must pass confirm=true.
func (h *ManagementHandler) DeleteLesson(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	id := c.Param("lesson_id")
	if err := h.service.Delete(c.Request.Context(), tree.ParseKey(c.Query("path")), id, confirmed); err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "lesson deleted"})
}
