package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/metrics"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type fileStorage interface {
	UploadFile(ctx context.Context, dest string, r io.Reader, size int64, contentType string, progress func(sent int64)) (string, error)
}

// Options configures the callbacks of a Tracker. OnProgress receives every
// state or percentage change; OnSuccess receives the URL of a finished
// upload before the task leaves the active set.
type Options struct {
	OnProgress func(models.UploadStatus)
	OnSuccess  func(kind models.MediaKind, url string)
	Now        func() time.Time
}

// Tracker runs the uploads of one edit session, at most one per media kind.
type Tracker struct {
	log     logger.Log
	store   fileStorage
	metrics *metrics.Collector
	opts    Options

	mu     sync.Mutex
	active map[models.MediaKind]*Task
	wg     sync.WaitGroup
}

func NewTracker(l logger.Log, store fileStorage, m *metrics.Collector, opts Options) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		log:     l,
		store:   store,
		metrics: m,
		opts:    opts,
		active:  make(map[models.MediaKind]*Task),
	}
}

// StartUpload begins uploading file in the background and returns at once.
// It fails with ErrAlreadyUploading while another upload of kind is in flight.
func (tr *Tracker) StartUpload(ctx context.Context, kind models.MediaKind, file LocalFile) (*Task, error) {
	if kind.Field() == "" {
		return nil, fmt.Errorf("%w: %q", app_errors.ErrUnknownMediaKind, kind)
	}

	tr.mu.Lock()
	if prev, ok := tr.active[kind]; ok && prev.Status().State.InFlight() {
		tr.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", app_errors.ErrAlreadyUploading, kind)
	}

	f, err := os.Open(file.Path)
	if err != nil {
		tr.mu.Unlock()
		return nil, fmt.Errorf("open %s: %w", file.Path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		tr.mu.Unlock()
		return nil, fmt.Errorf("stat %s: %w", file.Path, err)
	}

	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		id:          uuid.NewString(),
		kind:        kind,
		source:      name,
		destination: Destination(kind, name, tr.opts.Now()),
		cancel:      cancel,
		done:        make(chan struct{}),
		state:       models.UploadPending,
	}
	tr.active[kind] = task
	tr.wg.Add(1)
	tr.mu.Unlock()

	tr.notify(task.Status())

	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	go func() {
		defer tr.wg.Done()
		defer func() {
			f.Close()
			if file.Temporary {
				if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
					tr.log.Warn("remove temporary upload", "path", file.Path, "error", err)
				}
			}
		}()
		tr.run(taskCtx, task, f, info.Size(), contentType)
	}()

	return task, nil
}

func (tr *Tracker) run(ctx context.Context, task *Task, r io.Reader, size int64, contentType string) {
	defer task.cancel()

	task.mu.Lock()
	if task.cancelled {
		task.mu.Unlock()
		tr.fail(task, app_errors.ErrCancelled)
		return
	}
	task.state = models.UploadUploading
	st := task.statusLocked()
	task.mu.Unlock()
	tr.notify(st)

	url, err := tr.store.UploadFile(ctx, task.destination, r, size, contentType, func(sent int64) {
		task.mu.Lock()
		task.sent = sent
		task.mu.Unlock()
		if st, ok := task.advance(percentOf(sent, size)); ok {
			tr.notify(st)
		}
	})

	task.mu.Lock()
	switch {
	case task.cancelled || (err != nil && ctx.Err() != nil):
		task.mu.Unlock()
		tr.fail(task, app_errors.ErrCancelled)
		return
	case err != nil:
		task.mu.Unlock()
		tr.fail(task, app_errors.Transport("upload "+task.destination, err))
		return
	}
	task.committed = true
	task.mu.Unlock()

	if st, ok := task.advance(100); ok {
		tr.notify(st)
	}
	if tr.opts.OnSuccess != nil {
		tr.opts.OnSuccess(task.kind, url)
	}

	tr.mu.Lock()
	task.mu.Lock()
	task.state = models.UploadSucceeded
	task.url = url
	sent := task.sent
	st = task.statusLocked()
	task.mu.Unlock()
	tr.release(task)
	tr.mu.Unlock()

	tr.log.Info("upload finished", "kind", task.kind, "destination", task.destination)
	tr.metrics.UploadFinished(string(task.kind), "succeeded", sent)
	tr.notify(st)
	close(task.done)
}

func (tr *Tracker) fail(task *Task, reason error) {
	tr.mu.Lock()
	task.mu.Lock()
	task.state = models.UploadFailed
	task.err = reason
	sent := task.sent
	st := task.statusLocked()
	task.mu.Unlock()
	tr.release(task)
	tr.mu.Unlock()

	result := "failed"
	if errors.Is(reason, app_errors.ErrCancelled) {
		result = "cancelled"
		tr.log.Debug("upload cancelled", "kind", task.kind, "destination", task.destination)
	} else {
		tr.log.ErrorErr("upload failed", reason, "kind", task.kind, "destination", task.destination)
	}
	tr.metrics.UploadFinished(string(task.kind), result, sent)
	tr.notify(st)
	close(task.done)
}

// release drops task from the active set. Must be called with tr.mu held.
func (tr *Tracker) release(task *Task) {
	if tr.active[task.kind] == task {
		delete(tr.active, task.kind)
	}
}

// Cancel aborts task. It reports false when the task already finished or
// its result is being committed. Bytes already sent stay in storage.
func (tr *Tracker) Cancel(task *Task) bool {
	if task == nil {
		return false
	}
	task.mu.Lock()
	if !task.state.InFlight() || task.committed || task.cancelled {
		task.mu.Unlock()
		return false
	}
	task.cancelled = true
	task.mu.Unlock()
	task.cancel()
	return true
}

// CancelKind cancels the in-flight upload of kind, if any.
func (tr *Tracker) CancelKind(kind models.MediaKind) bool {
	tr.mu.Lock()
	task := tr.active[kind]
	tr.mu.Unlock()
	return tr.Cancel(task)
}

// CancelAll cancels every in-flight upload.
func (tr *Tracker) CancelAll() {
	tr.mu.Lock()
	tasks := make([]*Task, 0, len(tr.active))
	for _, t := range tr.active {
		tasks = append(tasks, t)
	}
	tr.mu.Unlock()

	for _, t := range tasks {
		tr.Cancel(t)
	}
}

// Wait blocks until every started upload has finished.
func (tr *Tracker) Wait() {
	tr.wg.Wait()
}

// Pending reports whether any upload is still pending or uploading.
func (tr *Tracker) Pending() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, t := range tr.active {
		if t.Status().State.InFlight() {
			return true
		}
	}
	return false
}

// Active returns the statuses of the uploads still in the active set.
func (tr *Tracker) Active() []models.UploadStatus {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]models.UploadStatus, 0, len(tr.active))
	for _, kind := range models.MediaKinds {
		if t, ok := tr.active[kind]; ok {
			out = append(out, t.Status())
		}
	}
	return out
}

// Task returns the active task with the given id.
func (tr *Tracker) Task(id string) (*Task, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, t := range tr.active {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

func (tr *Tracker) notify(st models.UploadStatus) {
	if tr.opts.OnProgress != nil {
		tr.opts.OnProgress(st)
	}
}

// Destination builds the storage key of an upload:
// {folder}/{unix millis}_{random}{.ext}.
func Destination(kind models.MediaKind, name string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("%s/%d_%s%s", kind.Folder(), now.UnixMilli(), suffix, ext)
}
