package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/memory"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

const passage1 = "ieltsMaterials/Reading Passage 1/lessons"

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func newTestStore() *Store {
	repo := memory.NewLessonRepo()
	hub := NewHub(logger.Discard(), repo)
	return NewStore(logger.Discard(), repo, hub)
}

func TestSubscribeLessonsDeliversChanges(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	defer s.Close()

	snapshots := make(chan []models.Lesson, 16)
	cancel, err := s.SubscribeLessons(passage1, func(l []models.Lesson) { snapshots <- l }, nil)
	require.NoError(t, err)
	defer cancel()

	assert.Empty(t, recv(t, snapshots))

	ctx := context.Background()
	id, err := s.AddLesson(ctx, passage1, models.LessonFields{Title: models.StringPtr("Skimming")})
	require.NoError(t, err)

	got := recv(t, snapshots)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Skimming", got[0].Title)
	assert.NotNil(t, got[0].CreatedAt)

	require.NoError(t, s.UpdateLesson(ctx, passage1, id, models.LessonFields{Comment: models.CommentPtr("read fast")}))
	got = recv(t, snapshots)
	require.Len(t, got, 1)
	assert.Equal(t, "Skimming", got[0].Title)
	assert.Equal(t, models.Comment{"read fast"}, got[0].Comment)

	require.NoError(t, s.DeleteLesson(ctx, passage1, id))
	assert.Empty(t, recv(t, snapshots))
}

func TestOtherCollectionsDoNotWake(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	defer s.Close()

	snapshots := make(chan []models.Lesson, 16)
	cancel, err := s.SubscribeLessons(passage1, func(l []models.Lesson) { snapshots <- l }, nil)
	require.NoError(t, err)
	defer cancel()
	recv(t, snapshots)

	_, err = s.AddLesson(context.Background(), "ieltsMaterials/Reading Passage 2/lessons", models.LessonFields{Title: models.StringPtr("x")})
	require.NoError(t, err)

	select {
	case got := <-snapshots:
		t.Fatalf("unexpected snapshot %v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeLevels(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	defer s.Close()

	levels := make(chan []string, 16)
	cancel, err := s.SubscribeLevels("grammarMaterials", func(l []string) { levels <- l }, nil)
	require.NoError(t, err)
	defer cancel()
	assert.Empty(t, recv(t, levels))

	ctx := context.Background()
	_, err = s.AddLesson(ctx, "grammarMaterials/Intermediate/lessons", models.LessonFields{Title: models.StringPtr("a")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intermediate"}, recv(t, levels))

	_, err = s.AddLesson(ctx, "grammarMaterials/Advanced/lessons", models.LessonFields{Title: models.StringPtr("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intermediate", "Advanced"}, recv(t, levels))
}

func TestCancelStopsWatcher(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	defer s.Close()

	snapshots := make(chan []models.Lesson, 16)
	cancel, err := s.SubscribeLessons(passage1, func(l []models.Lesson) { snapshots <- l }, nil)
	require.NoError(t, err)
	recv(t, snapshots)
	assert.Equal(t, 1, s.Watchers())

	cancel()
	cancel()
	assert.Zero(t, s.Watchers())
}

func TestStoreNotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore()
	defer s.Close()

	ctx := context.Background()
	err := s.UpdateLesson(ctx, passage1, "missing", models.LessonFields{Title: models.StringPtr("x")})
	require.ErrorIs(t, err, app_errors.ErrLessonNotFound)
	assert.NotErrorIs(t, err, app_errors.ErrTransport)

	require.ErrorIs(t, s.DeleteLesson(ctx, passage1, "missing"), app_errors.ErrLessonNotFound)
	_, err = s.GetLesson(ctx, passage1, "missing")
	require.ErrorIs(t, err, app_errors.ErrLessonNotFound)
}

type failingQuerier struct{}

func (failingQuerier) ListLessons(context.Context, string) ([]models.Lesson, error) {
	return nil, errors.New("connection refused")
}

func (failingQuerier) ListLevels(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestQueryErrorsAreReported(t *testing.T) {
	t.Parallel()

	hub := NewHub(logger.Discard(), failingQuerier{})
	defer hub.Close()

	errs := make(chan error, 1)
	cancel, err := hub.SubscribeLessons(passage1, func([]models.Lesson) {}, func(err error) { errs <- err })
	require.NoError(t, err)
	defer cancel()

	assert.ErrorIs(t, recv(t, errs), app_errors.ErrTransport)
}

type recordingPublisher struct {
	published chan string
}

func (p *recordingPublisher) Publish(_ context.Context, collection string) error {
	p.published <- collection
	return nil
}

func TestStorePublishesChanges(t *testing.T) {
	t.Parallel()

	repo := memory.NewLessonRepo()
	pub := &recordingPublisher{published: make(chan string, 4)}
	s := NewStore(logger.Discard(), repo, NewHub(logger.Discard(), repo), WithPublisher(pub))
	defer s.Close()

	_, err := s.AddLesson(context.Background(), passage1, models.LessonFields{Title: models.StringPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, passage1, recv(t, pub.published))
}
