package content

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	lessoncontent "github.com/mamadaliyev66/CAM-APP/internal/service/lesson/content"
	"github.com/mamadaliyev66/CAM-APP/internal/service/livesync"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

const maxStreamPaths = 8

type Subscriptions interface {
	Subscribe(path tree.ContentPath, onSnapshot func([]models.Lesson), onError func(error)) (*livesync.Handle, error)
	SubscribeChildren(path tree.ContentPath, onChildren func([]string), onError func(error)) (*livesync.Handle, error)
	Close()
}

type Presenter interface {
	Present(ctx context.Context, lessons []models.Lesson) []lessoncontent.LessonView
}

type StreamHandler struct {
	log       logger.Log
	catalog   Catalog
	presenter Presenter
	// open returns the subscription manager owned by one stream.
	open      func() Subscriptions
	heartbeat time.Duration
}

func NewStreamHandler(log logger.Log, catalog Catalog, presenter Presenter, open func() Subscriptions, heartbeat time.Duration) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &StreamHandler{
		log:       log,
		catalog:   catalog,
		presenter: presenter,
		open:      open,
		heartbeat: heartbeat,
	}
}

type streamEvent struct {
	name    string
	path    string
	lessons []models.Lesson
	levels  []string
	err     error
}

// Stream sends server-sent events for every ?path= until the client goes
// away: "snapshot" for lesson collections, "levels" for server-driven level
// lists and "error" when a subscription fails.
func (h *StreamHandler) Stream(c *gin.Context) {
	keys := c.QueryArray("path")
	if len(keys) == 0 || len(keys) > maxStreamPaths {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("between 1 and %d paths are required", maxStreamPaths)})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	subs := h.open()
	defer subs.Close()
	defer cancel()

	events := make(chan streamEvent, 2*maxStreamPaths)
	emit := func(e streamEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	for _, key := range keys {
		if err := h.subscribe(subs, key, emit); err != nil {
			controllers.Fail(c, err)
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("stream closed", "paths", keys, "reason", ctx.Err())
			return
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
		case e := <-events:
			c.SSEvent(e.name, h.payload(ctx, e))
		}
		c.Writer.Flush()
	}
}

func (h *StreamHandler) subscribe(subs Subscriptions, key string, emit func(streamEvent)) error {
	path, err := h.catalog.Resolve(tree.ParseKey(key)...)
	if err != nil {
		return err
	}
	branch, err := h.catalog.ChildrenOf(path)
	if err != nil {
		return err
	}
	dyn, ok := branch.(tree.DynamicBranch)
	if !ok {
		return fmt.Errorf("%w: %q has no live content", app_errors.ErrInvalidSelection, path.Key())
	}

	name := path.Key()
	onError := func(err error) {
		emit(streamEvent{name: "error", path: name, err: err})
	}
	switch dyn.Query.Kind {
	case tree.QueryLevels:
		_, err = subs.SubscribeChildren(path, func(levels []string) {
			emit(streamEvent{name: "levels", path: name, levels: levels})
		}, onError)
	default:
		_, err = subs.Subscribe(path, func(lessons []models.Lesson) {
			emit(streamEvent{name: "snapshot", path: name, lessons: lessons})
		}, onError)
	}
	return err
}

func (h *StreamHandler) payload(ctx context.Context, e streamEvent) gin.H {
	switch e.name {
	case "snapshot":
		return gin.H{"path": e.path, "lessons": h.presenter.Present(ctx, e.lessons)}
	case "levels":
		return gin.H{"path": e.path, "levels": e.levels}
	}
	return gin.H{"path": e.path, "error": e.err.Error()}
}
