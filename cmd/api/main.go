package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ZyrticX/youreditable-api/internal/handler"
	"github.com/ZyrticX/youreditable-api/internal/middleware"
	"github.com/ZyrticX/youreditable-api/internal/repository"
	"github.com/ZyrticX/youreditable-api/internal/service"
	"github.com/ZyrticX/youreditable-api/pkg/cache"
	"github.com/ZyrticX/youreditable-api/pkg/config"
	"github.com/ZyrticX/youreditable-api/pkg/database"
	"github.com/ZyrticX/youreditable-api/pkg/logger"
	corsmiddleware "github.com/ZyrticX/youreditable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ZyrticX/youreditable-api/pkg/middleware/requestid"
	"github.com/ZyrticX/youreditable-api/pkg/retry"
	"github.com/ZyrticX/youreditable-api/pkg/token"
)

// @title Editable Review API
// @version 1.0.0
// @description Video review workflow: projects, share links, client feedback and approvals
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	cacheEnabled := cfg.Review.CacheEnabled
	var cacheRepo service.CacheRepository
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, review cache disabled", "error", err)
			cacheEnabled = false
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Review.CacheTTL, logr, cacheEnabled)

	projectRepo := repository.NewProjectRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()
	tokens := token.NewRandomSource(cfg.Share.TokenBytes)
	retryCfg := retry.Config{MaxAttempts: cfg.Store.MaxAttempts, BaseDelay: cfg.Store.RetryBase}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifierSvc := service.NewNotifierService(cfg.Notify, service.NewLogSender(logr, cfg.Notify.FromEmail), logr)
	notifierSvc.Start(rootCtx)
	defer notifierSvc.Stop()

	statusSvc := service.NewStatusService(projectRepo, videoRepo, noteRepo, logr).WithMetrics(metricsSvc)
	reviewSvc := service.NewReviewService(projectRepo, videoRepo, noteRepo, approvalRepo, statusSvc, notifierSvc, cacheSvc, validate, logr, retryCfg)
	projectSvc := service.NewProjectService(projectRepo, videoRepo, noteRepo, approvalRepo, statusSvc, notifierSvc, cacheSvc, tokens, validate, logr, retryCfg, cfg.Share.LinkTTL)
	exportSvc := service.NewExportService(projectSvc, nil, nil, logr)
	authSvc := service.NewAuthService(userRepo, tokens, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "youreditable-api",
	})

	authHandler := handler.NewAuthHandler(authSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	videoHandler := handler.NewVideoHandler(projectSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authSecured := auth.Group("", middleware.JWT(authSvc))
	authSecured.POST("/logout", authHandler.Logout)
	authSecured.POST("/change-password", authHandler.ChangePassword)
	authSecured.GET("/me", authHandler.Me)

	projects := api.Group("/projects", middleware.JWT(authSvc))
	projects.GET("", projectHandler.List)
	projects.POST("", projectHandler.Create)
	projects.GET("/:id", projectHandler.Get)
	projects.PUT("/:id", projectHandler.Update)
	projects.POST("/:id/archive", projectHandler.Archive)
	projects.POST("/:id/unarchive", projectHandler.Unarchive)
	projects.POST("/:id/approve", projectHandler.OverrideApprove)
	projects.POST("/:id/share-link", projectHandler.ManageShareLink)
	projects.POST("/:id/notes/resolve", projectHandler.ResolveNotes)
	projects.GET("/:id/approvals", projectHandler.ListApprovals)
	projects.GET("/:id/export", exportHandler.Download)

	videos := api.Group("/videos", middleware.JWT(authSvc))
	videos.POST("/:id/versions", videoHandler.ReplaceSource)
	videos.GET("/:id/versions", videoHandler.ListVersions)
	videos.GET("/:id/notes", videoHandler.ListNotes)

	review := api.Group("/review")
	review.GET("/:token", reviewHandler.GetPage)
	reviewSecured := review.Group("/:token", middleware.ShareToken(reviewSvc))
	reviewSecured.POST("/feedback", reviewHandler.SubmitFeedback)
	reviewSecured.POST("/videos/:id/approve", reviewHandler.ApproveVideo)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
