package realtime

import (
	"context"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type lessonRepo interface {
	AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error)
	UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error
	DeleteLesson(ctx context.Context, collection, id string) error
	GetLesson(ctx context.Context, collection, id string) (models.Lesson, error)
}

// publisher fans a change out to other instances.
type publisher interface {
	Publish(ctx context.Context, collection string) error
}

type indexer interface {
	IndexLesson(ctx context.Context, lesson models.Lesson) error
	DeleteLesson(ctx context.Context, id string) error
}

// Store is the document store seen by the rest of the engine: writes go to
// the repo and every successful write notifies live subscribers.
type Store struct {
	*Hub
	log  logger.Log
	repo lessonRepo
	pub  publisher
	idx  indexer
}

type Option func(*Store)

func WithPublisher(p publisher) Option {
	return func(s *Store) { s.pub = p }
}

func WithIndexer(i indexer) Option {
	return func(s *Store) { s.idx = i }
}

func NewStore(l logger.Log, repo lessonRepo, hub *Hub, opts ...Option) *Store {
	s := &Store{Hub: hub, log: l, repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error) {
	id, err := s.repo.AddLesson(ctx, collection, fields)
	if err != nil {
		return "", app_errors.Transport("add lesson", err)
	}
	s.changed(ctx, collection)
	s.index(ctx, collection, id)
	return id, nil
}

func (s *Store) UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error {
	if err := s.repo.UpdateLesson(ctx, collection, id, fields); err != nil {
		return app_errors.Transport("update lesson", err)
	}
	s.changed(ctx, collection)
	s.index(ctx, collection, id)
	return nil
}

func (s *Store) DeleteLesson(ctx context.Context, collection, id string) error {
	if err := s.repo.DeleteLesson(ctx, collection, id); err != nil {
		return app_errors.Transport("delete lesson", err)
	}
	s.changed(ctx, collection)
	if s.idx != nil {
		if err := s.idx.DeleteLesson(ctx, id); err != nil {
			s.log.ErrorErr("remove lesson from search index", err, "id", id)
		}
	}
	return nil
}

func (s *Store) GetLesson(ctx context.Context, collection, id string) (models.Lesson, error) {
	lesson, err := s.repo.GetLesson(ctx, collection, id)
	if err != nil {
		return models.Lesson{}, app_errors.Transport("get lesson", err)
	}
	return lesson, nil
}

// changed wakes local watchers and tells other instances. A failed publish
// only delays remote snapshots until the next change.
func (s *Store) changed(ctx context.Context, collection string) {
	s.Notify(collection)
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, collection); err != nil {
		s.log.ErrorErr("publish lesson change", err, "collection", collection)
	}
}

func (s *Store) index(ctx context.Context, collection, id string) {
	if s.idx == nil {
		return
	}
	lesson, err := s.repo.GetLesson(ctx, collection, id)
	if err != nil {
		s.log.ErrorErr("load lesson for indexing", err, "id", id)
		return
	}
	if err := s.idx.IndexLesson(ctx, lesson); err != nil {
		s.log.ErrorErr("index lesson", err, "id", id)
	}
}
