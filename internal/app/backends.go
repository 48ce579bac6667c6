package app

import (
	"context"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/localfs"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/memory"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/minio_storage"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/postgres"
)

type lessonRepo interface {
	AddLesson(ctx context.Context, collection string, fields models.LessonFields) (string, error)
	UpdateLesson(ctx context.Context, collection, id string, fields models.LessonFields) error
	DeleteLesson(ctx context.Context, collection, id string) error
	GetLesson(ctx context.Context, collection, id string) (models.Lesson, error)
	ListLessons(ctx context.Context, collection string) ([]models.Lesson, error)
	ListLevels(ctx context.Context, root string) ([]string, error)
	Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error)
}

type fileStore interface {
	UploadFile(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string, progress func(sent int64)) (string, error)
	ObjectURL(ctx context.Context, objectKey string) (string, error)
}

type check = func(ctx context.Context) error

// openRepo opens the configured lesson store. The returned close func is
// never nil.
func openRepo(ctx context.Context, cfg *config.Config, checks map[string]check) (lessonRepo, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewLessonRepo(), func() {}, nil
	case config.BackendPostgres:
		pg, err := postgres.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewLessonPostgres(pg.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		checks["postgres"] = pg.Ping
		return repo, pg.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func openFiles(ctx context.Context, cfg *config.Config, checks map[string]check) (fileStore, error) {
	if !cfg.Minio.Enabled {
		files, err := localfs.NewFileStore(cfg.Sync.FilesDir, http.FilesRoute)
		if err != nil {
			return nil, err
		}
		return files, nil
	}
	ms, err := minio_storage.NewMinioStorage(cfg.Minio)
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	files, err := minio_storage.NewLessonStorage(ctx, ms, cfg.Minio.Bucket, cfg.Minio.PresignTTL)
	if err != nil {
		return nil, err
	}
	checks["minio"] = files.Ping
	return files, nil
}

func pingElastic(client *elasticsearch.Client) check {
	return func(ctx context.Context) error {
		res, err := client.Ping(client.Ping.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch: %s", res.Status())
		}
		return nil
	}
}
