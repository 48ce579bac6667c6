package livesync

import (
	"fmt"
	"sync"

	"github.com/mamadaliyev66/CAM-APP/internal/metrics"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type source interface {
	SubscribeLessons(collection string, onSnapshot func([]models.Lesson), onError func(error)) (func(), error)
	SubscribeLevels(root string, onLevels func([]string), onError func(error)) (func(), error)
}

type resolver interface {
	Resolve(selections ...string) (tree.ContentPath, error)
	CollectionPath(path tree.ContentPath) (string, error)
	LevelsRoot(path tree.ContentPath) (string, error)
}

// Manager owns the live subscriptions of one screen or connection. It keeps
// at most one subscription per path.
//
// Callbacks run on the backend's delivery goroutine. They must not call
// Subscribe, Unsubscribe or Close on the same Manager synchronously.
type Manager struct {
	log     logger.Log
	tree    resolver
	src     source
	metrics *metrics.Collector

	// opMu serializes subscribe/unsubscribe so teardown of a replaced
	// subscription completes before its successor is registered.
	opMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]*Handle
	nextID uint64
}

func NewManager(l logger.Log, t resolver, src source, m *metrics.Collector) *Manager {
	return &Manager{
		log:     l,
		tree:    t,
		src:     src,
		metrics: m,
		subs:    make(map[string]*Handle),
	}
}

// Subscribe starts a live lesson subscription for a lesson-collection path.
// Any subscription already registered for the path is torn down first.
func (m *Manager) Subscribe(path tree.ContentPath, onSnapshot func([]models.Lesson), onError func(error)) (*Handle, error) {
	resolved, err := m.tree.Resolve(path...)
	if err != nil {
		return nil, err
	}
	collection, err := m.tree.CollectionPath(resolved)
	if err != nil {
		return nil, err
	}

	return m.subscribe(resolved, kindLessons, func(h *Handle) (func(), error) {
		return m.src.SubscribeLessons(collection,
			func(lessons []models.Lesson) { h.deliverLessons(lessons, onSnapshot) },
			func(err error) { h.deliverError(err, onError) },
		)
	})
}

// SubscribeChildren starts a live subscription to the server-driven children
// of a dynamic branch, such as the grammar levels.
func (m *Manager) SubscribeChildren(path tree.ContentPath, onChildren func([]string), onError func(error)) (*Handle, error) {
	resolved, err := m.tree.Resolve(path...)
	if err != nil {
		return nil, err
	}
	root, err := m.tree.LevelsRoot(resolved)
	if err != nil {
		return nil, err
	}

	return m.subscribe(resolved, kindLevels, func(h *Handle) (func(), error) {
		return m.src.SubscribeLevels(root,
			func(levels []string) { h.deliverLevels(levels, onChildren) },
			func(err error) { h.deliverError(err, onError) },
		)
	})
}

func (m *Manager) subscribe(path tree.ContentPath, kind string, start func(h *Handle) (func(), error)) (*Handle, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	key := kind + ":" + path.Key()

	m.mu.Lock()
	prev := m.subs[key]
	delete(m.subs, key)
	m.nextID++
	h := &Handle{
		id:      m.nextID,
		key:     key,
		path:    path,
		kind:    kind,
		manager: m,
		seen:    make(map[string]uint64),
	}
	m.mu.Unlock()

	if prev != nil {
		m.log.Debug("replacing subscription", "path", path.Key(), "kind", kind)
		m.teardown(prev)
	}

	cancel, err := start(h)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path.Key(), err)
	}
	h.cancel = cancel

	m.mu.Lock()
	m.subs[key] = h
	m.mu.Unlock()
	m.metrics.SubscriptionOpened()

	return h, nil
}

// Unsubscribe releases the subscription behind h. No callback of h fires
// after it returns. Calling it again is a no-op, and a newer subscription
// registered for the same path is left alone.
func (m *Manager) Unsubscribe(h *Handle) {
	if h == nil {
		return
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.subs[h.key] == h {
		delete(m.subs, h.key)
	}
	m.mu.Unlock()

	m.teardown(h)
}

// Close tears down every subscription of the manager.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.subs))
	for key, h := range m.subs {
		handles = append(handles, h)
		delete(m.subs, key)
	}
	m.mu.Unlock()

	for _, h := range handles {
		m.teardown(h)
	}
}

// Len is the number of registered subscriptions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// State reports the lesson subscription registered for path, if any.
func (m *Manager) State(path tree.ContentPath) (State, bool) {
	return m.state(kindLessons, path)
}

// ChildrenState reports the children subscription registered for path.
func (m *Manager) ChildrenState(path tree.ContentPath) (State, bool) {
	return m.state(kindLevels, path)
}

func (m *Manager) state(kind string, path tree.ContentPath) (State, bool) {
	resolved, err := m.tree.Resolve(path...)
	if err != nil {
		return State{}, false
	}
	m.mu.Lock()
	h := m.subs[kind+":"+resolved.Key()]
	m.mu.Unlock()
	if h == nil {
		return State{}, false
	}
	return h.State(), true
}

func (m *Manager) teardown(h *Handle) {
	if !h.close() {
		return
	}
	if h.cancel != nil {
		h.cancel()
	}
	m.metrics.SubscriptionClosed()
}
