package livesync

import (
	"slices"
	"strings"
	"sync"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

const (
	kindLessons = "lessons"
	kindLevels  = "levels"
)

// State is what a subscription has received so far.
type State struct {
	Path     tree.ContentPath
	Active   bool
	Snapshot []models.Lesson
	Children []string
	LastErr  error
	Received int
}

// Handle identifies one registered subscription.
type Handle struct {
	id      uint64
	key     string
	path    tree.ContentPath
	kind    string
	manager *Manager
	cancel  func()

	// deliverMu is held while a callback runs; closing takes it so that no
	// callback is running or can start once close returns.
	deliverMu sync.Mutex
	closed    bool
	seen      map[string]uint64
	seq       uint64

	stateMu  sync.Mutex
	snapshot []models.Lesson
	children []string
	lastErr  error
	received int
}

func (h *Handle) Path() tree.ContentPath {
	return append(tree.ContentPath(nil), h.path...)
}

// Unsubscribe is shorthand for Manager.Unsubscribe.
func (h *Handle) Unsubscribe() {
	h.manager.Unsubscribe(h)
}

func (h *Handle) State() State {
	h.deliverMu.Lock()
	active := !h.closed
	h.deliverMu.Unlock()

	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return State{
		Path:     h.Path(),
		Active:   active,
		Snapshot: slices.Clone(h.snapshot),
		Children: slices.Clone(h.children),
		LastErr:  h.lastErr,
		Received: h.received,
	}
}

// close marks the handle closed and reports whether it was open.
func (h *Handle) close() bool {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	return true
}

func (h *Handle) deliverLessons(lessons []models.Lesson, onSnapshot func([]models.Lesson)) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.closed {
		return
	}

	sorted := h.order(lessons)

	h.stateMu.Lock()
	h.snapshot = sorted
	h.lastErr = nil
	h.received++
	h.stateMu.Unlock()

	h.manager.metrics.SnapshotDelivered(kindLessons)
	if onSnapshot != nil {
		onSnapshot(slices.Clone(sorted))
	}
}

func (h *Handle) deliverLevels(levels []string, onChildren func([]string)) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.closed {
		return
	}

	h.stateMu.Lock()
	h.children = slices.Clone(levels)
	h.lastErr = nil
	h.received++
	h.stateMu.Unlock()

	h.manager.metrics.SnapshotDelivered(kindLevels)
	if onChildren != nil {
		onChildren(slices.Clone(levels))
	}
}

func (h *Handle) deliverError(err error, onError func(error)) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	if h.closed {
		return
	}

	h.stateMu.Lock()
	h.lastErr = err
	h.stateMu.Unlock()

	h.manager.metrics.SubscriptionError()
	h.manager.log.Warn("subscription error", "path", h.path.Key(), "kind", h.kind, "error", err)
	if onError != nil {
		onError(err)
	}
}

// order sorts lessons by creation time ascending. Lessons without a
// confirmed timestamp go last in the order this subscription first saw them.
// Must be called with deliverMu held.
func (h *Handle) order(lessons []models.Lesson) []models.Lesson {
	out := slices.Clone(lessons)

	seen := make(map[string]uint64, len(out))
	for _, l := range out {
		if s, ok := h.seen[l.ID]; ok {
			seen[l.ID] = s
			continue
		}
		h.seq++
		seen[l.ID] = h.seq
	}
	h.seen = seen

	slices.SortStableFunc(out, func(a, b models.Lesson) int {
		switch {
		case a.CreatedAt != nil && b.CreatedAt != nil:
			if c := a.CreatedAt.Compare(*b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		case a.CreatedAt != nil:
			return -1
		case b.CreatedAt != nil:
			return 1
		}
		switch sa, sb := seen[a.ID], seen[b.ID]; {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
	return out
}
