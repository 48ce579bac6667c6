package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

// LessonRepo keeps lessons in process memory. It backs local runs and tests.
type LessonRepo struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Lesson
	last        time.Time
	now         func() time.Time
}

func NewLessonRepo() *LessonRepo {
	return &LessonRepo{
		collections: make(map[string]map[string]models.Lesson),
		now:         time.Now,
	}
}

// AddLesson stores a new lesson and assigns its id and creation time.
// Creation times strictly increase across the repo.
func (r *LessonRepo) AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", app_errors.Transport("add lesson", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}
	r.last = now

	lesson := models.Lesson{
		ID:         uuid.NewString(),
		Collection: collection,
		CreatedAt:  &now,
		UpdatedAt:  &now,
	}.Apply(fields)

	docs, ok := r.collections[collection]
	if !ok {
		docs = make(map[string]models.Lesson)
		r.collections[collection] = docs
	}
	docs[lesson.ID] = lesson
	return lesson.ID, nil
}

func (r *LessonRepo) UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error {
	if err := ctx.Err(); err != nil {
		return app_errors.Transport("update lesson", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lesson, ok := r.collections[collection][id]
	if !ok {
		return app_errors.ErrLessonNotFound
	}
	now := r.now().UTC()
	lesson = lesson.Apply(fields)
	lesson.UpdatedAt = &now
	r.collections[collection][id] = lesson
	return nil
}

func (r *LessonRepo) DeleteLesson(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return app_errors.Transport("delete lesson", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.collections[collection][id]; !ok {
		return app_errors.ErrLessonNotFound
	}
	delete(r.collections[collection], id)
	return nil
}

func (r *LessonRepo) GetLesson(ctx context.Context, collection, id string) (models.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return models.Lesson{}, app_errors.Transport("get lesson", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	lesson, ok := r.collections[collection][id]
	if !ok {
		return models.Lesson{}, app_errors.ErrLessonNotFound
	}
	return clone(lesson), nil
}

// ListLessons returns the lessons of collection by creation time.
func (r *LessonRepo) ListLessons(ctx context.Context, collection string) ([]models.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, app_errors.Transport("list lessons", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Lesson, 0, len(r.collections[collection]))
	for _, l := range r.collections[collection] {
		out = append(out, clone(l))
	}
	slices.SortFunc(out, func(a, b models.Lesson) int {
		if c := a.CreatedAt.Compare(*b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// ListLevels returns the nodes under root that hold at least one lesson,
// ordered by their first lesson.
func (r *LessonRepo) ListLevels(ctx context.Context, root string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, app_errors.Transport("list levels", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	type level struct {
		name  string
		first time.Time
	}
	var levels []level
	for collection, docs := range r.collections {
		croot, node, ok := tree.SplitCollection(collection)
		if !ok || croot != root || len(docs) == 0 {
			continue
		}
		var first time.Time
		for _, l := range docs {
			if first.IsZero() || l.CreatedAt.Before(first) {
				first = *l.CreatedAt
			}
		}
		levels = append(levels, level{name: node, first: first})
	}
	slices.SortFunc(levels, func(a, b level) int {
		if c := a.first.Compare(b.first); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.name)
	}
	return out, nil
}

// Search matches query case-insensitively against titles and comments.
// It stands in for the search index when none is configured.
func (r *LessonRepo) Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, app_errors.Transport("search lessons", err)
	}
	if size <= 0 {
		size = 10
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	var out []models.Lesson
	for name, docs := range r.collections {
		if collection != "" && name != collection {
			continue
		}
		for _, l := range docs {
			if needle == "" || matches(l, needle) {
				out = append(out, clone(l))
			}
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Lesson) int {
		if c := a.CreatedAt.Compare(*b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

func matches(l models.Lesson, needle string) bool {
	if strings.Contains(strings.ToLower(l.Title), needle) {
		return true
	}
	for _, c := range l.Comment {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}

func clone(l models.Lesson) models.Lesson {
	l.Comment = slices.Clone(l.Comment)
	return l
}
