package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

type fakeStorage struct {
	block   bool
	err     error
	started chan struct{}
	steps   []int64
}

func (s *fakeStorage) UploadFile(ctx context.Context, dest string, r io.Reader, size int64, _ string, progress func(int64)) (string, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	for _, sent := range s.steps {
		progress(sent)
	}
	if s.err != nil {
		return "", s.err
	}
	return "https://files.example/" + dest, nil
}

type recorder struct {
	mu       sync.Mutex
	statuses []models.UploadStatus
	urls     map[models.MediaKind]string
}

func (r *recorder) options() Options {
	return Options{
		OnProgress: func(st models.UploadStatus) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, st)
		},
		OnSuccess: func(kind models.MediaKind, url string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.urls == nil {
				r.urls = map[models.MediaKind]string{}
			}
			r.urls[kind] = url
		},
	}
}

func (r *recorder) url(kind models.MediaKind) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.urls[kind]
	return u, ok
}

func (r *recorder) snapshot() []models.UploadStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.UploadStatus(nil), r.statuses...)
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("upload did not finish")
	}
}

func TestUploadSucceeds(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	store := &fakeStorage{steps: []int64{100, 250, 200, 400, 1000}}
	tr := NewTracker(logger.Discard(), store, nil, rec.options())

	task, err := tr.StartUpload(context.Background(), models.MediaImage, LocalFile{Path: writeFile(t, "cover.PNG", 1000)})
	require.NoError(t, err)
	waitDone(t, task)

	st := task.Status()
	assert.Equal(t, models.UploadSucceeded, st.State)
	assert.Equal(t, 100, st.Percent)
	assert.Regexp(t, `^images/\d+_[0-9a-f]{12}\.png$`, st.Destination)
	assert.Equal(t, "https://files.example/"+st.Destination, st.URL)

	url, ok := rec.url(models.MediaImage)
	require.True(t, ok)
	assert.Equal(t, st.URL, url)
	assert.False(t, tr.Pending())
	assert.Empty(t, tr.Active())

	statuses := rec.snapshot()
	last := -1
	var percents []int
	for i, s := range statuses {
		assert.GreaterOrEqual(t, s.Percent, last, "progress went backwards at %d", i)
		last = s.Percent
		if s.State == models.UploadUploading {
			percents = append(percents, s.Percent)
		}
	}
	assert.Equal(t, []int{0, 10, 25, 40, 100}, percents)
	assert.Equal(t, models.UploadSucceeded, statuses[len(statuses)-1].State)
	assert.Equal(t, 100, statuses[len(statuses)-2].Percent)
}

func TestUploadUnknownSizeReportsHundredAtEnd(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	tr := NewTracker(logger.Discard(), &fakeStorage{}, nil, rec.options())

	task, err := tr.StartUpload(context.Background(), models.MediaAudio, LocalFile{Path: writeFile(t, "track.mp3", 0)})
	require.NoError(t, err)
	waitDone(t, task)

	var percents []int
	for _, s := range rec.snapshot() {
		if s.State == models.UploadUploading {
			percents = append(percents, s.Percent)
		}
	}
	assert.Equal(t, []int{0, 100}, percents)
}

func TestCancelUpload(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	store := &fakeStorage{block: true, started: make(chan struct{})}
	tr := NewTracker(logger.Discard(), store, nil, rec.options())

	task, err := tr.StartUpload(context.Background(), models.MediaImage, LocalFile{Path: writeFile(t, "a.jpg", 10)})
	require.NoError(t, err)
	<-store.started
	assert.True(t, tr.Pending())

	require.True(t, tr.Cancel(task))
	waitDone(t, task)

	assert.Equal(t, models.UploadFailed, task.Status().State)
	assert.ErrorIs(t, task.Err(), app_errors.ErrCancelled)
	_, ok := rec.url(models.MediaImage)
	assert.False(t, ok)
	assert.False(t, tr.Pending())

	assert.False(t, tr.Cancel(task))
}

func TestAlreadyUploading(t *testing.T) {
	t.Parallel()

	store := &fakeStorage{block: true}
	tr := NewTracker(logger.Discard(), store, nil, Options{})

	first, err := tr.StartUpload(context.Background(), models.MediaVideo, LocalFile{Path: writeFile(t, "a.mp4", 10)})
	require.NoError(t, err)

	_, err = tr.StartUpload(context.Background(), models.MediaVideo, LocalFile{Path: writeFile(t, "b.mp4", 10)})
	require.ErrorIs(t, err, app_errors.ErrAlreadyUploading)

	other, err := tr.StartUpload(context.Background(), models.MediaPDF, LocalFile{Path: writeFile(t, "c.pdf", 10)})
	require.NoError(t, err)
	assert.Len(t, tr.Active(), 2)

	tr.CancelAll()
	tr.Wait()
	assert.ErrorIs(t, first.Err(), app_errors.ErrCancelled)
	assert.ErrorIs(t, other.Err(), app_errors.ErrCancelled)

	// A new pick of the same kind is accepted once the previous one is gone.
	again, err := tr.StartUpload(context.Background(), models.MediaVideo, LocalFile{Path: writeFile(t, "d.mp4", 10)})
	require.NoError(t, err)
	require.True(t, tr.CancelKind(models.MediaVideo))
	waitDone(t, again)
}

func TestUploadTransportFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	tr := NewTracker(logger.Discard(), &fakeStorage{err: boom}, nil, Options{})

	path := writeFile(t, "notes.pdf", 10)
	task, err := tr.StartUpload(context.Background(), models.MediaPDF, LocalFile{Path: path, Temporary: true})
	require.NoError(t, err)
	waitDone(t, task)
	tr.Wait()

	assert.Equal(t, models.UploadFailed, task.Status().State)
	assert.ErrorIs(t, task.Err(), app_errors.ErrTransport)
	assert.ErrorIs(t, task.Err(), boom)
	assert.False(t, tr.Pending())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStartUploadRejectsBadInput(t *testing.T) {
	t.Parallel()

	tr := NewTracker(logger.Discard(), &fakeStorage{}, nil, Options{})

	_, err := tr.StartUpload(context.Background(), models.MediaKind("gif"), LocalFile{Path: writeFile(t, "a.gif", 1)})
	require.ErrorIs(t, err, app_errors.ErrUnknownMediaKind)

	_, err = tr.StartUpload(context.Background(), models.MediaImage, LocalFile{Path: filepath.Join(t.TempDir(), "missing.png")})
	require.Error(t, err)
	assert.Empty(t, tr.Active())
}

func TestDestination(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	a := Destination(models.MediaAudio, "Track.MP3", now)
	b := Destination(models.MediaAudio, "Track.MP3", now)

	assert.Regexp(t, regexp.MustCompile(`^audios/1700000000123_[0-9a-f]{12}\.mp3$`), a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^pdfs/1700000000123_[0-9a-f]{12}$`, Destination(models.MediaPDF, "noext", now))
}
