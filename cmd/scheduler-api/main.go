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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/dojocal/scheduler-api/api/swagger"
	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/dto"
	"github.com/dojocal/scheduler-api/internal/handler"
	"github.com/dojocal/scheduler-api/internal/middleware"
	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/repository"
	"github.com/dojocal/scheduler-api/internal/service"
	"github.com/dojocal/scheduler-api/pkg/cache"
	"github.com/dojocal/scheduler-api/pkg/config"
	"github.com/dojocal/scheduler-api/pkg/database"
	"github.com/dojocal/scheduler-api/pkg/jobs"
	"github.com/dojocal/scheduler-api/pkg/logger"
	corsmiddleware "github.com/dojocal/scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dojocal/scheduler-api/pkg/middleware/requestid"
)

// @title Dojo Calendar Scheduler API
// @version 1.0.0
// @description Event editor, validation and calendar service
// @BasePath /api/v1
// @schemes http https
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

	catalog, err := cohort.LoadFile(cfg.Calendar.CohortsFile)
	if err != nil {
		logr.Fatal("failed to load cohort catalog", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	validate := dto.NewValidator()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, "dojocal:", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.EventsTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	profileSvc := service.NewProfileService(repository.NewUserRepository(db), cacheSvc, cfg.Cache.ProfileTTL, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcasts := jobs.NewQueue("event-broadcast",
		service.NewBroadcastHandler(service.NewLogNotifier(logr), metrics),
		jobs.QueueConfig{
			Workers:    cfg.Broadcast.Workers,
			BufferSize: cfg.Broadcast.BufferSize,
			MaxRetries: cfg.Broadcast.MaxRetries,
			RetryDelay: cfg.Broadcast.RetryDelay,
			Logger:     logr,
		})
	broadcasts.Start(ctx)
	defer broadcasts.Stop()

	eventSvc := service.NewEventService(repository.NewEventRepository(db), profileSvc, catalog, service.EventServiceDeps{
		Cache:     cacheSvc,
		Metrics:   metrics,
		Publisher: broadcasts,
		ICS:       service.NewICSService("dojocal"),
		Validator: validate,
		Logger:    logr,
	}, service.EventServiceConfig{
		ExpirationGap:  cfg.Calendar.ExpirationGap,
		MaxOccurrences: cfg.Calendar.MaxOccurrences,
		MaxWindow:      cfg.Calendar.MaxWindow,
		ListTTL:        cfg.Cache.EventsTTL,
	})

	purge, err := service.NewPurgeScheduler(cfg.Purge.Schedule, eventSvc, logr)
	if err != nil {
		logr.Fatal("failed to schedule purge", zap.Error(err))
	}
	if cfg.Purge.Enabled {
		purge.Start()
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:     authSvc,
		metrics:  metrics,
		events:   handler.NewEventHandler(eventSvc),
		profiles: handler.NewProfileHandler(profileSvc, catalog),
		system:   handler.NewSystemHandler(metrics, readinessProbes(db, redisClient), purge),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	purge.Stop(shutdownCtx)
}

type routerDeps struct {
	auth     middleware.TokenValidator
	metrics  *service.MetricsService
	events   *handler.EventHandler
	profiles *handler.ProfileHandler
	system   *handler.SystemHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.auth))

	api.GET("/cohorts", deps.profiles.Cohorts)
	api.GET("/users/me", deps.profiles.Me)
	api.PUT("/users/me/timezone", deps.profiles.UpdateTimezone)

	events := api.Group("/events")
	events.GET("", deps.events.List)
	events.PUT("", deps.events.Save)
	events.POST("/drafts", deps.events.NewDraft)
	events.POST("/drafts/kind", deps.events.SwitchKind)
	events.POST("/validate", deps.events.Validate)
	events.GET("/:id", deps.events.Get)
	events.GET("/:id/draft", deps.events.EditDraft)
	events.GET("/:id/ics", deps.events.ExportICS)
	events.POST("/:id/cancel", deps.events.Cancel)
	events.DELETE("/:id", deps.events.Delete)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/purge", deps.system.Purge)

	return r
}

func readinessProbes(db *sqlx.DB, redisClient *redis.Client) map[string]handler.Probe {
	probes := map[string]handler.Probe{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return probes
}
