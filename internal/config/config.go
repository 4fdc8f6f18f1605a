package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	StoreDriver string
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Log         LogConfig
	Lifecycle   LifecycleConfig
	Seed        SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// RedisConfig holds the lifecycle event channel configuration.
// An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// LogConfig holds zap logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LifecycleConfig holds application lifecycle policy
type LifecycleConfig struct {
	RequireDocumentVerification bool
	DigestCron                  string
}

// SeedConfig holds bootstrap data settings
type SeedConfig struct {
	AdminPassword string
}

// Store drivers
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	storeDriver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreMemory)))
	if storeDriver != StoreMemory && storeDriver != StoreMySQL {
		return nil, fmt.Errorf("invalid STORE_DRIVER: '%s' (must be 'memory' or 'mysql')", storeDriver)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	requireVerification, err := strconv.ParseBool(getEnv("REQUIRE_DOCUMENT_VERIFICATION", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUIRE_DOCUMENT_VERIFICATION: %w", err)
	}

	cfg := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		StoreDriver: storeDriver,
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Channel:  getEnv("REDIS_CHANNEL", "bursary:lifecycle"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(appMode)),
		},
		Lifecycle: LifecycleConfig{
			RequireDocumentVerification: requireVerification,
			DigestCron:                  os.Getenv("DIGEST_CRON"),
		},
		Seed: SeedConfig{
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}
	if _, set := os.LookupEnv("DIGEST_CRON"); !set {
		cfg.Lifecycle.DigestCron = "30 8 * * *"
	}

	if cfg.IsProd() && cfg.JWT.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}
	return cfg, nil
}

const defaultJWTSecret = "default_secret"

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "bursary_portal"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, err := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))
	if err != nil || accessMins < 1 {
		accessMins = 60
	}

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		AccessTokenMins: accessMins,
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func defaultLogFormat(mode string) string {
	if mode == "prod" {
		return "json"
	}
	return "console"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://bursary.example.org"
	}
	return origins
}
