package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Redis    RedisConfig
	PDF      PDFConfig
	Pipeline PipelineConfig
	Company  CompanyConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds the shared secret of the external identity provider.
// Tokens are only validated here, never issued for end users.
type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type StorageConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           bool
	Region           string
	PublicBaseURL    string
	AttachmentBucket string
	BudgetBucket     string
	LogoBucket       string
	PortfolioBucket  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
	DraftTTL time.Duration
}

type PDFConfig struct {
	RasterZoom    float64
	JPEGQuality   int
	SnapshotScale float64
	Pagination    string // "offset" or "slice"
	LogoTimeout   time.Duration
	MaxAttachment int64
}

type PipelineConfig struct {
	CompensateOrphans bool
}

// CompanyConfig identifies the single company_settings row.
type CompanyConfig struct {
	SettingsID string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way (Docker/K8s)
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "32"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisPool, _ := strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10"))
	draftTTL, _ := strconv.Atoi(getEnv("DRAFT_TTL_HOURS", "24"))
	zoom, err := strconv.ParseFloat(getEnv("PDF_RASTER_ZOOM", "1.5"), 64)
	if err != nil || zoom <= 0 {
		zoom = 1.5
	}
	snapshotScale, err := strconv.ParseFloat(getEnv("PDF_SNAPSHOT_SCALE", "2"), 64)
	if err != nil || snapshotScale <= 0 {
		snapshotScale = 2
	}
	jpegQuality, _ := strconv.Atoi(getEnv("PDF_JPEG_QUALITY", "90"))
	logoTimeout, _ := strconv.Atoi(getEnv("PDF_LOGO_TIMEOUT_SECONDS", "10"))
	maxAttachmentMB, _ := strconv.Atoi(getEnv("PDF_MAX_ATTACHMENT_MB", "25"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "reforma_budgets"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		Storage: StorageConfig{
			Endpoint:         getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:        getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey:        getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			UseSSL:           getEnv("STORAGE_USE_SSL", "false") == "true",
			Region:           getEnv("STORAGE_REGION", "us-east-1"),
			PublicBaseURL:    getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			AttachmentBucket: getEnv("STORAGE_ATTACHMENT_BUCKET", "material-budget-pdfs"),
			BudgetBucket:     getEnv("STORAGE_BUDGET_BUCKET", "budget-pdfs"),
			LogoBucket:       getEnv("STORAGE_LOGO_BUCKET", "logos"),
			PortfolioBucket:  getEnv("STORAGE_PORTFOLIO_BUCKET", "portfolio-images"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			PoolSize: redisPool,
			Prefix:   getEnv("REDIS_PREFIX", "budgets:"),
			DraftTTL: time.Duration(draftTTL) * time.Hour,
		},
		PDF: PDFConfig{
			RasterZoom:    zoom,
			JPEGQuality:   jpegQuality,
			SnapshotScale: snapshotScale,
			Pagination:    getEnv("PDF_SNAPSHOT_PAGINATION", "offset"),
			LogoTimeout:   time.Duration(logoTimeout) * time.Second,
			MaxAttachment: int64(maxAttachmentMB) * 1024 * 1024,
		},
		Pipeline: PipelineConfig{
			CompensateOrphans: getEnv("PIPELINE_COMPENSATE_ORPHANS", "true") == "true",
		},
		Company: CompanyConfig{
			SettingsID: getEnv("COMPANY_SETTINGS_ID", "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
