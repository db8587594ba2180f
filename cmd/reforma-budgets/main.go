package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reforma-budgets/internal/api"
	"reforma-budgets/internal/api/handlers"
	"reforma-budgets/internal/form"
	"reforma-budgets/internal/pipeline"
	"reforma-budgets/internal/render"
	"reforma-budgets/internal/repository"
	"reforma-budgets/internal/service"
	"reforma-budgets/migrations"
	"reforma-budgets/pkg/auth"
	"reforma-budgets/pkg/cache"
	"reforma-budgets/pkg/config"
	"reforma-budgets/pkg/logger"
	"reforma-budgets/pkg/postgres"
	"reforma-budgets/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @title Reforma Budgets API
// @version 1.0
// @description Geração de orçamentos em PDF, dados da empresa e portfólio de obras
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting budget service")

	settingsID, err := uuid.Parse(cfg.Company.SettingsID)
	if err != nil {
		appLogger.Fatal("Invalid COMPANY_SETTINGS_ID", zap.Error(err))
	}

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, migrations.FS, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Object storage
	store, err := storage.NewMinIOStore(&cfg.Storage, logger.Component("storage"))
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Draft cache: Redis when configured, in-process otherwise
	var draftCache cache.Client
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		draftCache = redisClient
	} else {
		appLogger.Warn("REDIS_ADDR not set, drafts are kept in memory")
		draftCache = cache.NewMemoryClient()
	}
	defer draftCache.Close()

	// Initialize repositories
	budgetRepo := repository.NewBudgetRepository(db, appLogger)
	settingsRepo := repository.NewSettingsRepository(db, appLogger)
	portfolioRepo := repository.NewPortfolioRepository(db, appLogger)

	// Budget pipeline
	orchestrator := pipeline.NewOrchestrator(
		store,
		render.NewRasterizer(cfg.PDF.RasterZoom, cfg.PDF.JPEGQuality, logger.Component("rasterizer")),
		render.NewSnapshotter(cfg.PDF.SnapshotScale, logger.Component("snapshotter")),
		render.NewAssembler(render.ParsePagination(cfg.PDF.Pagination), cfg.PDF.JPEGQuality, logger.Component("assembler")),
		budgetRepo,
		render.NewLogoFetcher(cfg.PDF.LogoTimeout, logger.Component("logo")),
		pipeline.Config{
			AttachmentBucket:  cfg.Storage.AttachmentBucket,
			BudgetBucket:      cfg.Storage.BudgetBucket,
			CompensateOrphans: cfg.Pipeline.CompensateOrphans,
		},
		logger.Component("orchestrator"),
	)
	orchestrator.OnTransition(func(s pipeline.State) {
		appLogger.Debug("Pipeline state", zap.String("state", s.String()))
	})

	// Initialize services
	settingsService := service.NewSettingsService(settingsID, settingsRepo, store, cfg.Storage.LogoBucket, appLogger)
	budgetService := service.NewBudgetService(
		form.NewCacheDraftStore(draftCache, cfg.Redis.DraftTTL),
		budgetRepo,
		orchestrator,
		settingsService,
		cfg.PDF.MaxAttachment,
		appLogger,
	)
	portfolioService := service.NewPortfolioService(portfolioRepo, store, cfg.Storage.PortfolioBucket, appLogger)

	// Initialize handlers
	h := api.Handlers{
		Drafts:    handlers.NewDraftHandler(budgetService, appLogger),
		Budgets:   handlers.NewBudgetHandler(budgetService, appLogger),
		Settings:  handlers.NewSettingsHandler(settingsService, appLogger),
		Portfolio: handlers.NewPortfolioHandler(portfolioService, appLogger),
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Setup router
	app := api.SetupRouter(h, jwtManager, api.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AccessLogs:   true,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
