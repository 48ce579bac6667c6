package editor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/metrics"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type lessonStore interface {
	AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error)
	UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error
	DeleteLesson(ctx context.Context, collection, id string) error
	GetLesson(ctx context.Context, collection, id string) (models.Lesson, error)
}

type fileStorage interface {
	UploadFile(ctx context.Context, dest string, r io.Reader, size int64, contentType string, progress func(sent int64)) (string, error)
}

type resolver interface {
	Resolve(selections ...string) (tree.ContentPath, error)
	CollectionPath(path tree.ContentPath) (string, error)
}

// Coordinator applies lesson writes against the collection of a content
// path and keeps the open edit sessions. Writes are never reflected locally;
// clients see them in the next live snapshot.
type Coordinator struct {
	log      logger.Log
	tree     resolver
	store    lessonStore
	files    fileStorage
	metrics  *metrics.Collector
	validate *validator.Validate
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewCoordinator(l logger.Log, t resolver, store lessonStore, files fileStorage, m *metrics.Collector) *Coordinator {
	return &Coordinator{
		log:      l,
		tree:     t,
		store:    store,
		files:    files,
		metrics:  m,
		validate: newValidator(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create adds a lesson to the collection of path and returns its id.
// Absent optional fields are stored empty.
func (c *Coordinator) Create(ctx context.Context, path tree.ContentPath, fields models.LessonFields) (string, error) {
	collection, err := c.collection(path)
	if err != nil {
		return "", err
	}
	fields = normalize(fields)
	if err := c.checkFields(fields, true); err != nil {
		return "", err
	}
	return c.add(ctx, collection, withDefaults(fields))
}

// Update merges the present fields into lesson id. Absent fields keep their
// stored value; concurrent writers race and the last one wins.
func (c *Coordinator) Update(ctx context.Context, path tree.ContentPath, id string, fields models.LessonFields) error {
	collection, err := c.collection(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return &app_errors.ValidationError{Field: "id", Reason: "is required"}
	}
	fields = normalize(fields)
	if fields.Empty() {
		return &app_errors.ValidationError{Field: "fields", Reason: "nothing to update"}
	}
	if err := c.checkFields(fields, false); err != nil {
		return err
	}
	return c.update(ctx, collection, id, fields)
}

// Delete removes lesson id. The caller must pass confirmed=true once the
// user has confirmed the irreversible delete.
func (c *Coordinator) Delete(ctx context.Context, path tree.ContentPath, id string, confirmed bool) error {
	collection, err := c.collection(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return &app_errors.ValidationError{Field: "id", Reason: "is required"}
	}
	if !confirmed {
		return fmt.Errorf("%w: %w", &app_errors.ValidationError{Field: "confirm", Reason: "must be true"}, app_errors.ErrConfirmationRequired)
	}

	err = c.store.DeleteLesson(ctx, collection, id)
	c.metrics.LessonWrite("delete", err)
	if err != nil {
		c.log.ErrorErr("delete lesson", err, "collection", collection, "id", id)
		return err
	}
	c.log.Info("lesson deleted", "collection", collection, "id", id)
	return nil
}

func (c *Coordinator) add(ctx context.Context, collection string, fields models.LessonFields) (string, error) {
	id, err := c.store.AddLesson(ctx, collection, fields)
	c.metrics.LessonWrite("create", err)
	if err != nil {
		c.log.ErrorErr("create lesson", err, "collection", collection)
		return "", err
	}
	c.log.Info("lesson created", "collection", collection, "id", id)
	return id, nil
}

func (c *Coordinator) update(ctx context.Context, collection, id string, fields models.LessonFields) error {
	err := c.store.UpdateLesson(ctx, collection, id, fields)
	c.metrics.LessonWrite("update", err)
	if err != nil {
		c.log.ErrorErr("update lesson", err, "collection", collection, "id", id)
		return err
	}
	c.log.Info("lesson updated", "collection", collection, "id", id)
	return nil
}

func (c *Coordinator) collection(path tree.ContentPath) (string, error) {
	resolved, err := c.tree.Resolve(path...)
	if err != nil {
		return "", err
	}
	return c.tree.CollectionPath(resolved)
}

// OpenNew starts an edit session for a new lesson under path.
func (c *Coordinator) OpenNew(path tree.ContentPath) (*Session, error) {
	resolved, err := c.tree.Resolve(path...)
	if err != nil {
		return nil, err
	}
	collection, err := c.tree.CollectionPath(resolved)
	if err != nil {
		return nil, err
	}
	return c.open(resolved, collection, models.Lesson{Collection: collection}), nil
}

// OpenExisting starts an edit session prefilled from lesson id.
func (c *Coordinator) OpenExisting(ctx context.Context, path tree.ContentPath, id string) (*Session, error) {
	resolved, err := c.tree.Resolve(path...)
	if err != nil {
		return nil, err
	}
	collection, err := c.tree.CollectionPath(resolved)
	if err != nil {
		return nil, err
	}
	lesson, err := c.store.GetLesson(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return c.open(resolved, collection, lesson), nil
}

func (c *Coordinator) open(path tree.ContentPath, collection string, base models.Lesson) *Session {
	s := newSession(c, uuid.NewString(), path, collection, base)

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
	c.metrics.SessionOpened()

	c.log.Debug("edit session opened", "session", s.id, "collection", collection, "lesson", base.ID)
	return s
}

// Session returns the open session with the given id.
func (c *Coordinator) Session(id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, app_errors.ErrSessionNotFound
	}
	return s, nil
}

// CloseSession closes the session with the given id, cancelling its uploads.
func (c *Coordinator) CloseSession(id string) error {
	s, err := c.Session(id)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// ExpireIdle closes sessions that have not been touched for ttl.
func (c *Coordinator) ExpireIdle(ttl time.Duration) int {
	cutoff := c.now().Add(-ttl)

	c.mu.Lock()
	var stale []*Session
	for _, s := range c.sessions {
		if s.lastUsed().Before(cutoff) {
			stale = append(stale, s)
		}
	}
	c.mu.Unlock()

	for _, s := range stale {
		c.log.Info("closing idle edit session", "session", s.id)
		s.Close()
	}
	return len(stale)
}

// Close closes every open session.
func (c *Coordinator) Close() {
	c.mu.Lock()
	all := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		all = append(all, s)
	}
	c.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

func (c *Coordinator) forget(s *Session) {
	c.mu.Lock()
	_, ok := c.sessions[s.id]
	delete(c.sessions, s.id)
	c.mu.Unlock()
	if ok {
		c.metrics.SessionClosed()
	}
}
