package editor

import (
	"context"
	"sync"
	"time"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/upload"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

type State string

const (
	StateIdle    State = "idle"
	StateEditing State = "editing"
	StateSaving  State = "saving"
)

// View is a point-in-time copy of a session for display.
type View struct {
	ID        string                                   `json:"id"`
	Path      tree.ContentPath                         `json:"path"`
	LessonID  string                                   `json:"lessonId,omitempty"`
	State     State                                    `json:"state"`
	Lesson    models.Lesson                            `json:"lesson"`
	Uploads   map[models.MediaKind]models.UploadStatus `json:"uploads,omitempty"`
	LastError string                                   `json:"lastError,omitempty"`
}

// Session is the edit session of one lesson, new or existing.
type Session struct {
	id         string
	path       tree.ContentPath
	collection string
	c          *Coordinator
	uploads    *upload.Tracker

	mu       sync.Mutex
	state    State
	lessonID string
	base     models.Lesson
	draft    models.LessonFields
	statuses map[models.MediaKind]models.UploadStatus
	lastErr  error
	used     time.Time
	closed   bool
}

func newSession(c *Coordinator, id string, path tree.ContentPath, collection string, base models.Lesson) *Session {
	s := &Session{
		id:         id,
		path:       path,
		collection: collection,
		c:          c,
		state:      StateEditing,
		lessonID:   base.ID,
		base:       base,
		statuses:   make(map[models.MediaKind]models.UploadStatus),
		used:       c.now(),
	}
	s.uploads = upload.NewTracker(c.log.With("session", id), c.files, c.metrics, upload.Options{
		OnProgress: s.recordUpload,
		OnSuccess:  s.setUploaded,
	})
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set lays fields over the draft. A session left Idle by a save returns to
// Editing.
func (s *Session) Set(fields models.LessonFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.draft = s.draft.Merge(fields)
	s.state = StateEditing
	return nil
}

func (s *Session) SetTitle(title string) error {
	return s.Set(models.LessonFields{Title: models.StringPtr(title)})
}

func (s *Session) SetComment(lines ...string) error {
	return s.Set(models.LessonFields{Comment: models.CommentPtr(lines...)})
}

// SetMediaURL sets the URL field of kind, e.g. to an external video link.
func (s *Session) SetMediaURL(kind models.MediaKind, url string) error {
	f, err := mediaField(kind, url)
	if err != nil {
		return err
	}
	return s.Set(f)
}

// StartUpload uploads file and writes its URL into the field of kind once
// it succeeds.
func (s *Session) StartUpload(ctx context.Context, kind models.MediaKind, file upload.LocalFile) (*upload.Task, error) {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	return s.uploads.StartUpload(ctx, kind, file)
}

// CancelUpload cancels the in-flight upload of kind.
func (s *Session) CancelUpload(kind models.MediaKind) bool {
	return s.uploads.CancelKind(kind)
}

// Save creates or updates the lesson. It fails with ErrBusy while another
// save runs and with ErrUploadsPending while uploads are in flight; in both
// cases the session state is left as it was.
func (s *Session) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", app_errors.ErrSessionClosed
	}
	if s.state == StateSaving {
		s.mu.Unlock()
		return "", app_errors.ErrBusy
	}
	if s.uploads.Pending() {
		s.mu.Unlock()
		return "", app_errors.ErrUploadsPending
	}

	isNew := s.lessonID == ""
	fields := normalize(s.draft)
	if !isNew && fields.Empty() {
		s.state = StateIdle
		id := s.lessonID
		s.mu.Unlock()
		return id, nil
	}
	if isNew {
		fields = withDefaults(fields)
	}
	if err := s.c.checkFields(fields, isNew); err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return "", err
	}
	s.state = StateSaving
	s.used = s.c.now()
	id := s.lessonID
	s.mu.Unlock()

	var err error
	if isNew {
		id, err = s.c.add(ctx, s.collection, fields)
	} else {
		err = s.c.update(ctx, s.collection, id, fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.used = s.c.now()
	if err != nil {
		s.state = StateEditing
		s.lastErr = err
		return "", err
	}
	s.state = StateIdle
	s.lastErr = nil
	s.lessonID = id
	s.base = s.base.Apply(fields)
	s.base.ID = id
	s.draft = models.LessonFields{}
	return id, nil
}

// Close ends the session without saving. In-flight uploads are cancelled;
// bytes they already sent stay in storage.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.uploads.CancelAll()
	s.c.forget(s)
	s.c.log.Debug("edit session closed", "session", s.id)
}

// Wait blocks until the session's uploads have finished.
func (s *Session) Wait() {
	s.uploads.Wait()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:       s.id,
		Path:     append(tree.ContentPath(nil), s.path...),
		LessonID: s.lessonID,
		State:    s.state,
		Lesson:   s.base.Apply(s.draft),
		Uploads:  make(map[models.MediaKind]models.UploadStatus, len(s.statuses)),
	}
	for k, st := range s.statuses {
		v.Uploads[k] = st
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	return v
}

func (s *Session) usableLocked() error {
	if s.closed {
		return app_errors.ErrSessionClosed
	}
	if s.state == StateSaving {
		return app_errors.ErrBusy
	}
	s.used = s.c.now()
	return nil
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

func (s *Session) recordUpload(st models.UploadStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.Kind] = st
}

func (s *Session) setUploaded(kind models.MediaKind, url string) {
	f, err := mediaField(kind, url)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.draft = s.draft.Merge(f)
	if s.state == StateIdle {
		s.state = StateEditing
	}
}

func mediaField(kind models.MediaKind, url string) (models.LessonFields, error) {
	var f models.LessonFields
	switch kind {
	case models.MediaImage:
		f.ImageURL = models.StringPtr(url)
	case models.MediaVideo:
		f.VideoURL = models.StringPtr(url)
	case models.MediaPDF:
		f.PDFURL = models.StringPtr(url)
	case models.MediaAudio:
		f.AudioURL = models.StringPtr(url)
	default:
		return f, app_errors.ErrUnknownMediaKind
	}
	return f, nil
}
