package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-editor/api/swagger"
	"github.com/noah-isme/sma-timetable-editor/internal/backend"
	"github.com/noah-isme/sma-timetable-editor/internal/editor"
	"github.com/noah-isme/sma-timetable-editor/internal/handler"
	"github.com/noah-isme/sma-timetable-editor/internal/middleware"
	"github.com/noah-isme/sma-timetable-editor/internal/models"
	"github.com/noah-isme/sma-timetable-editor/internal/repository"
	"github.com/noah-isme/sma-timetable-editor/internal/service"
	"github.com/noah-isme/sma-timetable-editor/pkg/cache"
	"github.com/noah-isme/sma-timetable-editor/pkg/config"
	"github.com/noah-isme/sma-timetable-editor/pkg/database"
	"github.com/noah-isme/sma-timetable-editor/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-editor/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-editor/pkg/middleware/requestid"
)

// @title SMA Timetable Editor API
// @version 1.0.0
// @description Conflict-aware editor for lessons, invigilations and staff unavailability
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Snapshot.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Snapshot.CacheTTL, logr, cfg.Snapshot.CacheEnabled && redisClient != nil)

	bookingRepo := repository.NewBookingRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	snapshots := service.NewSnapshotService(bookingRepo, cacheSvc, cfg.Snapshot.CacheTTL, metrics, logr)

	client := backend.NewClient(cfg.Backend, logr, metrics)
	bundles := func(classID, staffID int64) editor.APIBundle {
		return client.Bundle(cfg.Backend.Shape, classID, staffID)
	}

	store := editor.NewStore(cfg.Editor.SessionTTL)
	janitor, err := editor.NewJanitor(store, cfg.Editor.JanitorSpec, logr, metrics.SetOpenSessions)
	if err != nil {
		logr.Fatal("invalid editor janitor schedule", zap.Error(err))
	}
	janitor.Start()
	defer janitor.Stop()

	editorSvc := service.NewEditorService(snapshots, catalogRepo, bundles, store, validator.New(), metrics, logr, service.EditorServiceConfig{
		Shape:         cfg.Backend.Shape,
		ExpandRepeats: cfg.Editor.ExpandRepeats,
	})
	verifier := service.NewTokenVerifier(cfg.JWT)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics)
	checks := map[string]handler.Pinger{"database": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready(checks))
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerEditorRoutes(r.Group(cfg.APIPrefix), handler.NewEditorHandler(editorSvc), verifier)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("backend_shape", cfg.Backend.Shape))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerEditorRoutes(api *gin.RouterGroup, h *handler.EditorHandler, verifier middleware.TokenValidator) {
	editorGroup := api.Group("/editor")
	editorGroup.Use(middleware.JWT(verifier))
	editorGroup.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))

	editorGroup.POST("/sessions", h.Open)
	editorGroup.GET("/sessions/:id", h.Get)
	editorGroup.PATCH("/sessions/:id/form", h.Patch)
	editorGroup.POST("/sessions/:id/validate", h.Validate)
	editorGroup.POST("/sessions/:id/confirm", h.Confirm)
	editorGroup.POST("/sessions/:id/delete", h.Delete)
	editorGroup.DELETE("/sessions/:id", h.Cancel)
	editorGroup.POST("/conflicts", h.Conflicts)
	editorGroup.GET("/occupancy", h.Occupancy)
}
