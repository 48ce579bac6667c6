package service

import (
	"context"

	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/auth"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/content"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/editor"
	"github.com/mamadaliyev66/CAM-APP/internal/service/livesync"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

type Searcher interface {
	Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error)
}

// Collection is everything the delivery layer serves.
type Collection struct {
	*auth.AuthService
	Catalog     *tree.Tree
	Coordinator *editor.Coordinator
	Content     *content.LessonContentService
	Searcher    Searcher
	// Subscriptions opens a subscription manager for one client connection.
	Subscriptions func() *livesync.Manager
	// Checks probe backend dependencies for the readiness endpoint.
	Checks map[string]func(ctx context.Context) error
}
