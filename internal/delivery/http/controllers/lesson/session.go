package lesson

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/editor"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/upload"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type SessionService interface {
	OpenNew(path tree.ContentPath) (*editor.Session, error)
	OpenExisting(ctx context.Context, path tree.ContentPath, id string) (*editor.Session, error)
	Session(id string) (*editor.Session, error)
	CloseSession(id string) error
}

// UploadLimits bounds files received for media uploads. Files are spooled
// to Dir until their upload to storage finishes.
type UploadLimits struct {
	Dir     string
	MaxSize int64
}

type SessionHandler struct {
	log     logger.Log
	service SessionService
	limits  UploadLimits
}

func NewSessionHandler(log logger.Log, service SessionService, limits UploadLimits) *SessionHandler {
	return &SessionHandler{log: log, service: service, limits: limits}
}

type openSessionRequest struct {
	Path     string `json:"path" binding:"required"`
	LessonID string `json:"lessonId"`
}

func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path := tree.ParseKey(req.Path)
	var (
		s   *editor.Session
		err error
	)
	if req.LessonID == "" {
		s, err = h.service.OpenNew(path)
	} else {
		s, err = h.service.OpenExisting(c.Request.Context(), path, req.LessonID)
	}
	if err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *SessionHandler) EditSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var fields models.LessonFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Set(fields); err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *SessionHandler) SaveSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id, err := s.Save(c.Request.Context())
	if err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "session": s.View()})
}

func (h *SessionHandler) CloseSession(c *gin.Context) {
	if err := h.service.CloseSession(c.Param("session_id")); err != nil {
		controllers.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StartUpload spools the multipart "file" field to disk and hands it to the
// session. The upload outlives the request.
func (h *SessionHandler) StartUpload(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	kind, ok := mediaKind(c)
	if !ok {
		return
	}

	if h.limits.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxSize)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	tmp, err := os.CreateTemp(h.limits.Dir, "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		controllers.Fail(c, fmt.Errorf("spool upload: %w", err))
		return
	}
	tmp.Close()
	if err := c.SaveUploadedFile(fileHeader, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		controllers.Fail(c, fmt.Errorf("spool upload: %w", err))
		return
	}

	task, err := s.StartUpload(context.WithoutCancel(c.Request.Context()), kind, upload.LocalFile{
		Path:        tmp.Name(),
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Temporary:   true,
	})
	if err != nil {
		os.Remove(tmp.Name())
		controllers.Fail(c, err)
		return
	}
	h.log.Debug("upload started", "session", s.ID(), "kind", kind, "task", task.ID())
	c.JSON(http.StatusAccepted, task.Status())
}

func (h *SessionHandler) CancelUpload(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	kind, ok := mediaKind(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": s.CancelUpload(kind)})
}

func (h *SessionHandler) session(c *gin.Context) (*editor.Session, bool) {
	s, err := h.service.Session(c.Param("session_id"))
	if err != nil {
		controllers.Fail(c, err)
		return nil, false
	}
	return s, true
}

func mediaKind(c *gin.Context) (models.MediaKind, bool) {
	kind, ok := models.ParseMediaKind(c.Param("kind"))
	if !ok {
		controllers.Fail(c, fmt.Errorf("%w: %q", app_errors.ErrUnknownMediaKind, c.Param("kind")))
		return "", false
	}
	return kind, true
}
