package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sipal-api/api/swagger"
	"github.com/noah-isme/sipal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sipal-api/internal/middleware"
	"github.com/noah-isme/sipal-api/internal/models"
	"github.com/noah-isme/sipal-api/internal/repository"
	"github.com/noah-isme/sipal-api/internal/repository/memstore"
	"github.com/noah-isme/sipal-api/internal/seed"
	"github.com/noah-isme/sipal-api/internal/service"
	"github.com/noah-isme/sipal-api/pkg/cache"
	"github.com/noah-isme/sipal-api/pkg/config"
	"github.com/noah-isme/sipal-api/pkg/database"
	"github.com/noah-isme/sipal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sipal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sipal-api/pkg/middleware/requestid"
	"github.com/noah-isme/sipal-api/pkg/storage"
)

// @title SIPAL API
// @version 1.0.0
// @description Alumni tracer study: identity validation, career history, achievements, employer evaluations and admin reporting.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, db, err := openStores(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open stores", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	var (
		sessions  repository.SessionStore = memstore.NewSessionStore()
		cacheRepo service.CacheRepository
		redisRepo *repository.CacheRepository
	)
	if redisClient != nil {
		defer redisClient.Close()
		sessions = repository.NewSessionRepository(redisClient)
		redisRepo = repository.NewCacheRepository(redisClient, logr)
		cacheRepo = redisRepo
	}

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, stores, logr); err != nil {
			logr.Fatal("failed to apply seed", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr)

	authSvc := service.NewAuthService(
		[]models.AdminAccount{service.NewAdminAccount(cfg.Admin)},
		validate,
		logr,
		service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, AccessTokenExpiry: cfg.JWT.Expiration},
	)
	identitySvc := service.NewIdentityService(stores.Masters, sessions, cfg.Session.TTL, metrics, validate, logr)
	masterSvc := service.NewMasterService(stores.Masters, cacheSvc, metrics, validate, logr)
	careerSvc := service.NewCareerService(stores.Careers, stores.Masters, cacheSvc, validate, logr)
	wizardSvc := service.NewWizardService(careerSvc, stores.Masters, logr)
	achievementSvc := service.NewAchievementService(stores.Achievements, stores.Masters, cacheSvc, validate, logr)
	attachmentSvc := service.NewAttachmentService(achievementSvc, cfg.Attachments, metrics, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Masters:      stores.Masters,
		Careers:      stores.Careers,
		Achievements: stores.Achievements,
		Cache:        cacheSvc,
		Logger:       logr,
		Config:       service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL, TopN: cfg.Dashboard.TopN},
	})
	evaluationSvc := service.NewEvaluationService(stores.Evaluations, stores.Masters, validate, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Masters:   stores.Masters,
		Careers:   stores.Careers,
		Jobs:      memstore.NewExportJobStore(),
		Storage:   files,
		Signer:    storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Config: service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			Workers:         cfg.Exports.WorkerConcurrency,
			MaxRetries:      cfg.Exports.WorkerRetries,
			CleanupInterval: cfg.Exports.CleanupInterval,
		},
	})
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	checks := map[string]handler.Pinger{}
	if db != nil {
		checks["database"] = db.PingContext
	}
	if redisRepo != nil {
		checks["redis"] = redisRepo.Ping
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExtraHeaders:   []string{cfg.Session.Header},
	}))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.RegisterRoutes(r, handler.Routes{
		APIPrefix:     cfg.APIPrefix,
		SessionHeader: cfg.Session.Header,
		Tokens:        authSvc,
		Selections:    identitySvc,
		Logger:        logr,
		Auth:          handler.NewAuthHandler(authSvc),
		Identity:      handler.NewIdentityHandler(identitySvc, cfg.Session.Header),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Careers:       handler.NewCareerHandler(careerSvc, wizardSvc),
		Achievements:  handler.NewAchievementHandler(achievementSvc, attachmentSvc),
		Masters:       handler.NewMasterHandler(masterSvc),
		Exports:       handler.NewExportHandler(exportSvc),
		Evaluations:   handler.NewEvaluationHandler(evaluationSvc),
		Metrics:       handler.NewMetricsHandler(metrics, checks),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.Stores, *sqlx.DB, error) {
	if cfg.StoreDriver != config.StorePostgres {
		logr.Info("using in-memory stores")
		return repository.NewMemoryStores(memstore.New()), nil, nil
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return repository.Stores{}, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return repository.Stores{}, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return repository.NewPostgresStores(db), db, nil
}

func applySeed(ctx context.Context, path string, stores repository.Stores, logr *zap.Logger) error {
	ds, err := seed.Load(path)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, ds, seed.Stores{
		Masters:      stores.Masters,
		Careers:      stores.Careers,
		Achievements: stores.Achievements,
		Evaluations:  stores.Evaluations,
	}, logr)
	return err
}
