package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mamadaliyev66/CAM-APP/internal/app/server"
	"github.com/mamadaliyev66/CAM-APP/internal/config"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http"
	"github.com/mamadaliyev66/CAM-APP/internal/metrics"
	"github.com/mamadaliyev66/CAM-APP/internal/service"
	"github.com/mamadaliyev66/CAM-APP/internal/service/auth"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/content"
	"github.com/mamadaliyev66/CAM-APP/internal/service/lesson/editor"
	"github.com/mamadaliyev66/CAM-APP/internal/service/livesync"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/changefeed"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/elastic"
	"github.com/mamadaliyev66/CAM-APP/internal/storage/realtime"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("Starting with Env: "+cfg.Env, "backend", cfg.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	checks := make(map[string]check)

	repo, closeRepo, err := openRepo(ctx, cfg, checks)
	if err != nil {
		log.FatalErr("error opening lesson store", err)
	}
	defer closeRepo()

	hub := realtime.NewHub(log.With("component", "hub"), repo)
	var (
		storeOpts []realtime.Option
		searcher  service.Searcher = repo
		feed      *changefeed.RedisFeed
	)
	if cfg.Redis.Enabled {
		feed, err = changefeed.NewRedisFeed(ctx, log, cfg.Redis, uuid.NewString())
		if err != nil {
			log.FatalErr("error connecting to redis", err)
		}
		defer feed.Close()
		storeOpts = append(storeOpts, realtime.WithPublisher(feed))
		checks["redis"] = feed.Ping
	}
	if cfg.ES.Enabled {
		client, err := elastic.NewElasticClient(cfg.ES)
		if err != nil {
			log.FatalErr("error connecting to elasticsearch", err)
		}
		index := elastic.NewLessonSearchRepository(client, cfg.ES.Index)
		if err := index.CreateIndexIfNotExist(ctx); err != nil {
			log.FatalErr("error creating lesson index", err)
		}
		storeOpts = append(storeOpts, realtime.WithIndexer(index))
		searcher = index
		checks["elasticsearch"] = pingElastic(client)
	}
	store := realtime.NewStore(log.With("component", "store"), repo, hub, storeOpts...)
	defer store.Close()

	files, err := openFiles(ctx, cfg, checks)
	if err != nil {
		log.FatalErr("error opening file storage", err)
	}

	if cfg.JWT.SecretKey == "" {
		log.Warn("jwt secret is empty, teacher endpoints will reject every token")
	}
	catalog := tree.New()
	coordinator := editor.NewCoordinator(log.With("component", "editor"), catalog, store, files, m)
	defer coordinator.Close()

	u := service.Collection{
		AuthService: auth.NewAuthService(log, auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer)),
		Catalog:     catalog,
		Coordinator: coordinator,
		Content:     content.NewLessonContentService(log.With("component", "content"), files),
		Searcher:    searcher,
		Subscriptions: func() *livesync.Manager {
			return livesync.NewManager(log.With("component", "livesync"), catalog, store, m)
		},
		Checks: checks,
	}

	r := http.InitRoutes(log, cfg, u, reg)
	srv := server.New(cfg.HTTPServer, r)
	srv.Start()
	log.Info("http server started", "address", cfg.HTTPServer.Address)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-srv.Notify():
			return err
		}
	})
	if feed != nil {
		g.Go(func() error {
			return feed.Listen(gctx, hub.Notify)
		})
	}
	g.Go(func() error {
		sweepSessions(gctx, log, coordinator, cfg.Sync.SessionTTL)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.ErrorErr("app stopped with error", err)
	} else {
		log.Info("app signal: shutting down")
	}
	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.ErrorErr("http server shutdown", err)
	}
}

// sweepSessions closes edit sessions left idle longer than ttl.
func sweepSessions(ctx context.Context, log logger.Log, c *editor.Coordinator, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.ExpireIdle(ttl); n > 0 {
				log.Info("expired idle edit sessions", "count", n)
			}
		}
	}
}
