package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers/content"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers/lesson"
	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers/middleware"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service"
	"github.com/mamadaliyev66/CAM-APP/pkg/logger"
)

// FilesRoute serves stored media when MinIO is disabled.
const FilesRoute = "/v1/files"

func InitRoutes(l logger.Log, cfg *config.Config, u service.Collection, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	checks := make(map[string]controllers.Check, len(u.Checks))
	for name, check := range u.Checks {
		checks[name] = check
	}
	healthController := controllers.NewHealthHandler(checks)
	authProvider := middleware.NewAuthMiddlewareProvider(l, u.AuthService)
	treeController := content.NewTreeHandler(u.Catalog)
	streamController := content.NewStreamHandler(l.With("component", "stream"), u.Catalog, u.Content,
		func() content.Subscriptions { return u.Subscriptions() }, cfg.Sync.Heartbeat)
	searchController := content.NewSearchHandler(u.Catalog, u.Searcher, u.Content)
	sessionController := lesson.NewSessionHandler(l, u.Coordinator, lesson.UploadLimits{
		Dir:     cfg.Sync.UploadDir,
		MaxSize: cfg.Sync.MaxUploadSize,
	})
	lessonController := lesson.NewManagementHandler(l, u.Coordinator)

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", healthController.Ready)

	v1 := r.Group("/v1", middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", healthController.Status)
		v1.GET("/tree", treeController.Children)
		v1.GET("/lessons/stream", streamController.Stream)
		v1.GET("/search", searchController.Search)
		if !cfg.Minio.Enabled {
			v1.Static("/files", cfg.Sync.FilesDir)
		}

		teacher := v1.Group("", authProvider.AuthMiddleware, middleware.RequireRoles(models.TeacherRole))
		{
			teacher.POST("/lessons", lessonController.CreateLesson)
			teacher.PATCH("/lessons/:lesson_id", lessonController.UpdateLesson)
			teacher.DELETE("/lessons/:lesson_id", lessonController.DeleteLesson)

			sessions := teacher.Group("/sessions")
			{
				sessions.POST("", sessionController.OpenSession)
				sessions.GET("/:session_id", sessionController.GetSession)
				sessions.PATCH("/:session_id", sessionController.EditSession)
				sessions.POST("/:session_id/save", sessionController.SaveSession)
				sessions.DELETE("/:session_id", sessionController.CloseSession)
				sessions.POST("/:session_id/uploads/:kind", sessionController.StartUpload)
				sessions.DELETE("/:session_id/uploads/:kind", sessionController.CancelUpload)
			}
		}
	}
	return r
}
