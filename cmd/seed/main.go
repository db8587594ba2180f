package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"reforma-budgets/internal/models"
	"reforma-budgets/internal/repository"
	"reforma-budgets/migrations"
	"reforma-budgets/pkg/config"
	"reforma-budgets/pkg/logger"
	"reforma-budgets/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// seed applies the schema and creates the company profile row when it does
// not exist yet. SEED_COMPANY_* variables override the defaults.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	settingsID, err := uuid.Parse(cfg.Company.SettingsID)
	if err != nil {
		appLogger.Fatal("Invalid COMPANY_SETTINGS_ID", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Connect to database
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, migrations.FS, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	settingsRepo := repository.NewSettingsRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	existing, err := settingsRepo.Get(ctx, settingsID)
	switch {
	case err == nil:
		appLogger.Info("Company settings already present, nothing to do",
			zap.String("company_name", existing.CompanyName),
		)
		return
	case !errors.Is(err, repository.ErrNotFound):
		appLogger.Fatal("Failed to read company settings", zap.Error(err))
	}

	settings := seedSettings(settingsID)
	if _, err := settingsRepo.Upsert(ctx, settings); err != nil {
		appLogger.Fatal("Failed to seed company settings", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!",
		zap.String("settings_id", settingsID.String()),
		zap.String("company_name", settings.CompanyName),
	)
}

func seedSettings(id uuid.UUID) *models.CompanySettings {
	s := models.DefaultCompanySettings(id)
	s.CompanyName = getEnv("SEED_COMPANY_NAME", s.CompanyName)
	s.Phone = getEnv("SEED_COMPANY_PHONE", s.Phone)
	s.Email = getEnv("SEED_COMPANY_EMAIL", s.Email)
	s.CNPJ = getEnv("SEED_COMPANY_CNPJ", s.CNPJ)
	s.Address = getEnv("SEED_COMPANY_ADDRESS", s.Address)
	s.LogoURL = getEnv("SEED_COMPANY_LOGO_URL", "")
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
