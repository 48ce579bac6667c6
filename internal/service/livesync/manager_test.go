package livesync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type fakeListener struct {
	collection string
	onSnapshot func([]models.Lesson)
	onLevels   func([]string)
	onError    func(error)
	cancelled  int
}

type fakeSource struct {
	mu        sync.Mutex
	listeners []*fakeListener
	failNext  error
}

func (s *fakeSource) SubscribeLessons(collection string, onSnapshot func([]models.Lesson), onError func(error)) (func(), error) {
	return s.add(&fakeListener{collection: collection, onSnapshot: onSnapshot, onError: onError})
}

func (s *fakeSource) SubscribeLevels(root string, onLevels func([]string), onError func(error)) (func(), error) {
	return s.add(&fakeListener{collection: root, onLevels: onLevels, onError: onError})
}

func (s *fakeSource) add(l *fakeListener) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}
	s.listeners = append(s.listeners, l)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		l.cancelled++
	}, nil
}

func (s *fakeSource) listener(i int) *fakeListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners[i]
}

func (s *fakeSource) cancelled(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners[i].cancelled
}

func newTestManager(src *fakeSource) *Manager {
	return NewManager(logger.Discard(), tree.New(), src, nil)
}

var readingPassage1 = tree.ContentPath{"ielts", "IELTS READING", "Passage 1"}

func at(sec int) *time.Time {
	t := time.Date(2025, 1, 1, 0, 0, sec, 0, time.UTC)
	return &t
}

func TestSubscribeReplacesExisting(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	var first, second []models.Lesson
	h1, err := m.Subscribe(readingPassage1, func(l []models.Lesson) { first = l }, nil)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "ieltsMaterials/Reading Passage 1/lessons", src.listener(0).collection)

	h2, err := m.Subscribe(tree.ContentPath{"IELTS", "ielts reading", "Reading Passage 1"}, func(l []models.Lesson) { second = l }, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, src.cancelled(0))

	// The replaced listener may still emit; nothing reaches its callback.
	src.listener(0).onSnapshot([]models.Lesson{{ID: "a", Title: "old"}})
	src.listener(1).onSnapshot([]models.Lesson{{ID: "b", Title: "new"}})
	assert.Nil(t, first)
	require.Len(t, second, 1)
	assert.Equal(t, "new", second[0].Title)

	// Unsubscribing the stale handle must not remove the live one.
	m.Unsubscribe(h1)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, src.cancelled(1))

	m.Unsubscribe(h2)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, src.cancelled(1))
}

func TestAtMostOneSubscriptionPerPath(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	var handles []*Handle
	for i := 0; i < 10; i++ {
		h, err := m.Subscribe(readingPassage1, nil, nil)
		require.NoError(t, err)
		handles = append(handles, h)
		require.LessOrEqual(t, m.Len(), 1)
		if i%3 == 0 {
			m.Unsubscribe(h)
			require.Equal(t, 0, m.Len())
		}
	}
	for _, h := range handles {
		h.Unsubscribe()
		require.Equal(t, 0, m.Len())
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	calls := 0
	h, err := m.Subscribe(readingPassage1, func([]models.Lesson) { calls++ }, nil)
	require.NoError(t, err)

	m.Unsubscribe(h)
	m.Unsubscribe(h)
	assert.Equal(t, 1, src.cancelled(0))
	assert.False(t, h.State().Active)

	src.listener(0).onSnapshot([]models.Lesson{{ID: "x"}})
	assert.Zero(t, calls)
}

func TestNoCallbackAfterUnsubscribeReturns(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	deliveries := 0

	h, err := m.Subscribe(readingPassage1, func([]models.Lesson) {
		mu.Lock()
		deliveries++
		n := deliveries
		mu.Unlock()
		if n == 1 {
			close(entered)
			<-release
		}
	}, nil)
	require.NoError(t, err)

	emit := src.listener(0).onSnapshot
	go emit([]models.Lesson{{ID: "1"}})
	<-entered

	done := make(chan struct{})
	go func() {
		m.Unsubscribe(h)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("unsubscribe returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-done

	emit([]models.Lesson{{ID: "2"}})
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, deliveries)
}

func TestSnapshotOrdering(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	var got []models.Lesson
	_, err := m.Subscribe(readingPassage1, func(l []models.Lesson) { got = l }, nil)
	require.NoError(t, err)
	emit := src.listener(0).onSnapshot

	emit([]models.Lesson{
		{ID: "t3", CreatedAt: at(3)},
		{ID: "pending-b"},
		{ID: "t1", CreatedAt: at(1)},
		{ID: "t2", CreatedAt: at(2)},
	})
	assert.Equal(t, []string{"t1", "t2", "t3", "pending-b"}, ids(got))

	// pending-a arrives later than pending-b and stays behind it.
	emit([]models.Lesson{
		{ID: "pending-a"},
		{ID: "t2", CreatedAt: at(2)},
		{ID: "pending-b"},
		{ID: "t1", CreatedAt: at(1)},
	})
	assert.Equal(t, []string{"t1", "t2", "pending-b", "pending-a"}, ids(got))

	// Once confirmed, pending-b takes its place by timestamp.
	emit([]models.Lesson{
		{ID: "pending-a"},
		{ID: "pending-b", CreatedAt: at(4)},
		{ID: "t2", CreatedAt: at(2)},
		{ID: "t1", CreatedAt: at(1)},
	})
	assert.Equal(t, []string{"t1", "t2", "pending-b", "pending-a"}, ids(got))

	// Equal timestamps break ties by id.
	emit([]models.Lesson{
		{ID: "z", CreatedAt: at(5)},
		{ID: "y", CreatedAt: at(5)},
	})
	assert.Equal(t, []string{"y", "z"}, ids(got))
}

func TestErrorStateIsRecorded(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	var gotErr error
	_, err := m.Subscribe(readingPassage1, nil, func(err error) { gotErr = err })
	require.NoError(t, err)

	boom := errors.New("connection reset")
	src.listener(0).onError(boom)
	assert.ErrorIs(t, gotErr, boom)

	st, ok := m.State(readingPassage1)
	require.True(t, ok)
	assert.True(t, st.Active)
	assert.ErrorIs(t, st.LastErr, boom)

	// No automatic resubscribe.
	src.mu.Lock()
	assert.Len(t, src.listeners, 1)
	src.mu.Unlock()

	src.listener(0).onSnapshot([]models.Lesson{{ID: "a", CreatedAt: at(1)}})
	st, ok = m.State(readingPassage1)
	require.True(t, ok)
	assert.NoError(t, st.LastErr)
	assert.Equal(t, 1, st.Received)
	assert.Equal(t, []string{"a"}, ids(st.Snapshot))
}

func TestSubscribeRejectsNonCollections(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeSource{})

	_, err := m.Subscribe(tree.ContentPath{"ielts", "IELTS READING"}, nil, nil)
	require.Error(t, err)
	_, err = m.Subscribe(nil, nil, nil)
	require.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestSubscribeBackendFailure(t *testing.T) {
	t.Parallel()

	src := &fakeSource{failNext: errors.New("unavailable")}
	m := newTestManager(src)

	_, err := m.Subscribe(readingPassage1, nil, nil)
	require.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestSubscribeChildren(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := newTestManager(src)

	var levels []string
	h, err := m.SubscribeChildren(tree.ContentPath{"grammar"}, func(l []string) { levels = l }, nil)
	require.NoError(t, err)
	assert.Equal(t, "grammarMaterials", src.listener(0).collection)

	_, err = m.Subscribe(tree.ContentPath{"grammar", "Advanced"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	src.listener(0).onLevels([]string{"Beginner and Elementary", "Advanced"})
	assert.Equal(t, []string{"Beginner and Elementary", "Advanced"}, levels)

	st, ok := m.ChildrenState(tree.ContentPath{"grammar"})
	require.True(t, ok)
	assert.Equal(t, levels, st.Children)

	_, err = m.SubscribeChildren(tree.ContentPath{"ielts"}, nil, nil)
	require.Error(t, err)

	h.Unsubscribe()
	assert.Equal(t, 1, m.Len())
	m.Close()
	assert.Zero(t, m.Len())
	assert.Equal(t, 1, src.cancelled(1))
}

func ids(lessons []models.Lesson) []string {
	out := make([]string, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, l.ID)
	}
	return out
}
