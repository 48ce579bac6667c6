package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

const (
	topicLessons = "lessons:"
	topicLevels  = "levels:"

	defaultQueryTimeout = 10 * time.Second
)

type querier interface {
	ListLessons(ctx context.Context, collection string) ([]models.Lesson, error)
	ListLevels(ctx context.Context, root string) ([]string, error)
}

// Hub turns change notifications into live snapshots. Every watcher re-reads
// its query after a change; bursts of notifications coalesce into one read.
type Hub struct {
	log     logger.Log
	q       querier
	timeout time.Duration

	mu       sync.Mutex
	watchers map[string]map[uint64]*watcher
	nextID   uint64
	closed   bool
}

type watcher struct {
	id     uint64
	topic  string
	signal chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(l logger.Log, q querier) *Hub {
	return &Hub{
		log:      l,
		q:        q,
		timeout:  defaultQueryTimeout,
		watchers: make(map[string]map[uint64]*watcher),
	}
}

// SubscribeLessons delivers the lessons of collection now and after every
// change. Snapshots of one subscription are delivered in order.
func (h *Hub) SubscribeLessons(collection string, onSnapshot func([]models.Lesson), onError func(error)) (func(), error) {
	return h.watch(topicLessons+collection, func(ctx context.Context) error {
		lessons, err := h.q.ListLessons(ctx, collection)
		if err != nil {
			return app_errors.Transport("list lessons", err)
		}
		onSnapshot(lessons)
		return nil
	}, onError)
}

// SubscribeLevels delivers the level names under a materials root.
func (h *Hub) SubscribeLevels(root string, onLevels func([]string), onError func(error)) (func(), error) {
	return h.watch(topicLevels+root, func(ctx context.Context) error {
		levels, err := h.q.ListLevels(ctx, root)
		if err != nil {
			return app_errors.Transport("list levels", err)
		}
		onLevels(levels)
		return nil
	}, onError)
}

func (h *Hub) watch(topic string, read func(ctx context.Context) error, onError func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		topic:  topic,
		signal: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	w.signal <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return nil, app_errors.Transport("subscribe", context.Canceled)
	}
	h.nextID++
	w.id = h.nextID
	if h.watchers[topic] == nil {
		h.watchers[topic] = make(map[uint64]*watcher)
	}
	h.watchers[topic][w.id] = w
	h.mu.Unlock()

	go h.loop(w, read, onError)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.remove(w)
			cancel()
		})
	}, nil
}

func (h *Hub) loop(w *watcher, read func(ctx context.Context) error, onError func(error)) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.signal:
		}

		ctx, cancel := context.WithTimeout(w.ctx, h.timeout)
		err := read(ctx)
		cancel()
		if err != nil && w.ctx.Err() == nil {
			h.log.Warn("live query failed", "topic", w.topic, "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[w.topic], w.id)
	if len(h.watchers[w.topic]) == 0 {
		delete(h.watchers, w.topic)
	}
}

// Notify marks collection as changed. Watchers of the collection and of its
// materials root re-read their queries.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.signalLocked(topicLessons + collection)
	if root, _, ok := tree.SplitCollection(collection); ok {
		h.signalLocked(topicLevels + root)
	}
}

func (h *Hub) signalLocked(topic string) {
	for _, w := range h.watchers[topic] {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

// Watchers is the number of live watchers.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ws := range h.watchers {
		n += len(ws)
	}
	return n
}

// Close stops every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for topic, ws := range h.watchers {
		for _, w := range ws {
			w.cancel()
		}
		delete(h.watchers, topic)
	}
}
