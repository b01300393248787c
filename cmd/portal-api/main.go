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
	"go.uber.org/zap"

	_ "github.com/noah-isme/physics-portal-api/api/swagger"
	"github.com/noah-isme/physics-portal-api/internal/handler"
	"github.com/noah-isme/physics-portal-api/internal/repository"
	"github.com/noah-isme/physics-portal-api/internal/router"
	"github.com/noah-isme/physics-portal-api/internal/service"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	"github.com/noah-isme/physics-portal-api/migrations"
	"github.com/noah-isme/physics-portal-api/pkg/cache"
	"github.com/noah-isme/physics-portal-api/pkg/config"
	"github.com/noah-isme/physics-portal-api/pkg/database"
	"github.com/noah-isme/physics-portal-api/pkg/jobs"
	"github.com/noah-isme/physics-portal-api/pkg/logger"
	"github.com/noah-isme/physics-portal-api/pkg/markdown"
	"github.com/noah-isme/physics-portal-api/pkg/storage"
)

// @title Physics Portal API
// @version 1.0.0
// @description Lessons, exams, videos and baccalaureate papers for secondary school physics.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, migrations.Files)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("migrations applied", zap.Strings("files", applied))
	}

	tax, err := taxonomy.LoadFile(cfg.Taxonomy.File)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	store, err := storage.NewObjectStore(storage.Options{
		Dir:           cfg.Storage.Dir,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		MaxBytes:      cfg.Storage.MaxFileSizeBytes,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	metrics := service.NewMetricsService()

	var redisRepo *repository.CacheRepository
	var redisErr error
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			redisErr = err
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			redisRepo = repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ListTTL, logr, cfg.Cache.Enabled)

	contentRepo := repository.NewContentRepository(db)
	bacRepo := repository.NewBacExamRepository(db)
	contactRepo := repository.NewContactRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	catalog := service.NewCatalogService(tax, contentRepo, bacRepo, cacheSvc, markdown.New(), metrics, logr, service.CatalogConfig{
		ListTTL: cfg.Cache.ListTTL,
		ItemTTL: cfg.Cache.ItemTTL,
	})

	cleanup := service.NewCleanupService(store, metrics, logr)
	queue := jobs.NewQueue("storage-cleanup", cleanup.Handle, jobs.QueueConfig{
		Workers:    cfg.Cleanup.Workers,
		MaxRetries: cfg.Cleanup.MaxRetries,
		RetryDelay: cfg.Cleanup.RetryDelay,
		Logger:     logr,
		OnFinish:   cleanup.Finish,
	})
	queue.Start(context.Background())
	defer queue.Stop()
	cleanup.Attach(queue)

	policy := service.UploadPolicy{MaxBytes: cfg.Storage.MaxFileSizeBytes, AllowedMIMEs: cfg.Storage.AllowedMIMEs}
	contentSvc := service.NewContentService(tax, contentRepo, store, cleanup, catalog, metrics, policy, validate, logr)
	bacSvc := service.NewBacService(tax, bacRepo, store, cleanup, catalog, metrics, policy, validate, logr)
	contactSvc := service.NewContactService(contactRepo, validate, logr)
	statsSvc := service.NewStatsService(contentRepo, bacRepo, contactRepo, metrics)
	if cfg.Export.PDFFontPath == "" {
		logr.Warn("EXPORT_PDF_FONT not set, pdf inventory export disabled")
	}
	exportSvc := service.NewExportService(tax, contentRepo, bacRepo, service.DefaultRenderers(cfg.Export.PDFFontPath), logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SignupEnabled:      cfg.Admin.SignupEnabled,
	})

	engine := router.New(router.Options{
		Config:   cfg,
		Logger:   logr,
		Tokens:   authSvc,
		Observer: metrics,
	}, router.Handlers{
		Catalog:      handler.NewCatalogHandler(catalog),
		Contact:      handler.NewContactHandler(contactSvc),
		Auth:         handler.NewAuthHandler(authSvc),
		AdminContent: handler.NewAdminContentHandler(contentSvc),
		AdminBac:     handler.NewAdminBacHandler(bacSvc),
		Admin:        handler.NewAdminHandler(statsSvc, exportSvc),
		Metrics:      handler.NewMetricsHandler(metrics, readinessChecks(db, cfg.Cache.Enabled, redisRepo, redisErr)...),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// readinessChecks lists the dependencies /ready reports on. A cache that was
// enabled but could not connect at startup stays listed and keeps failing.
func readinessChecks(db pinger, cacheEnabled bool, redisRepo cachePinger, startupErr error) []handler.ReadinessCheck {
	checks := []handler.ReadinessCheck{{Name: "postgres", Ping: db.PingContext}}
	if !cacheEnabled {
		return checks
	}
	if startupErr != nil || redisRepo == nil {
		if startupErr == nil {
			startupErr = errors.New("redis not connected")
		}
		err := fmt.Errorf("cache disabled at startup: %w", startupErr)
		return append(checks, handler.ReadinessCheck{Name: "redis", Ping: func(context.Context) error { return err }})
	}
	return append(checks, handler.ReadinessCheck{Name: "redis", Ping: redisRepo.Ping})
}
