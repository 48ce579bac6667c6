package upload

import (
	"context"
	"sync"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
)

// LocalFile is a file picked for upload. Temporary files are removed once
// the upload has finished, whatever the outcome.
type LocalFile struct {
	Path        string
	Name        string
	ContentType string
	Temporary   bool
}

// Task is one upload tracked by a Tracker.
type Task struct {
	id          string
	kind        models.MediaKind
	source      string
	destination string
	cancel      context.CancelFunc
	done        chan struct{}

	mu        sync.Mutex
	state     models.UploadState
	percent   int
	url       string
	err       error
	cancelled bool
	committed bool
	sent      int64
}

func (t *Task) ID() string {
	return t.id
}

func (t *Task) Kind() models.MediaKind {
	return t.kind
}

func (t *Task) Destination() string {
	return t.destination
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the failure reason of a failed task.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) Status() models.UploadStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Task) statusLocked() models.UploadStatus {
	st := models.UploadStatus{
		ID:          t.id,
		Kind:        t.kind,
		Source:      t.source,
		Destination: t.destination,
		Percent:     t.percent,
		State:       t.state,
		URL:         t.url,
	}
	if t.err != nil {
		st.Error = t.err.Error()
	}
	return st
}

// advance raises the percentage and reports whether it changed.
func (t *Task) advance(percent int) (models.UploadStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if percent > 100 {
		percent = 100
	}
	if !t.state.InFlight() || percent <= t.percent {
		return models.UploadStatus{}, false
	}
	t.percent = percent
	return t.statusLocked(), true
}

func percentOf(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	if sent >= total {
		return 100
	}
	return int((sent*100 + total/2) / total)
}
