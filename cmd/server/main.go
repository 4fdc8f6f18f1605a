package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bursary-portal/internal/adapters/http/handlers"
	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/adapters/http/routes"
	"bursary-portal/internal/adapters/persistence/memory"
	"bursary-portal/internal/adapters/persistence/repositories"
	"bursary-portal/internal/config"
	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/core/services"
	"bursary-portal/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "bursary-portal/docs" // Swagger docs
)

// @title Bursary Portal API
// @version 1.0
// @description Bursary application lifecycle API: drafting, review, allocation and disbursement

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	store, db, err := openStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() { _ = config.CloseDatabase(db) }()

	if err := config.NewSeeder(store, cfg, zl).Run(ctx); err != nil {
		zl.Warn("seeding failed", zap.Error(err))
	}

	rdb, err := config.ConnectRedis(ctx, cfg, zl)
	if err != nil {
		zl.Warn("lifecycle events will not be published", zap.Error(err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Observers
	dispatcher := services.NewEventDispatcher(zl,
		services.NewHistoryRecorder(store),
		services.NewTransitionLogger(zl),
	)
	if rdb != nil {
		dispatcher.Register(services.NewNotificationService(rdb, cfg.Redis.Channel))
	}

	// Services
	engine := domain.NewEngine(cfg.Lifecycle.RequireDocumentVerification)
	applicationService := services.NewApplicationService(store, engine, dispatcher, zl)
	fundService := services.NewFundService(store, zl)
	deadlineService := services.NewDeadlineService(store, zl)
	authService := services.NewAuthService(store, cfg.JWT, zl)
	userService := services.NewUserService(store, zl)

	// Pending-queue digest (DIGEST_CRON)
	cronService := services.NewCronService(store, fundService, cfg.Lifecycle.DigestCron, zl)
	if err := cronService.Start(); err != nil {
		zl.Fatal("failed to start cron service", zap.Error(err))
	}
	defer cronService.Stop()

	if err := fundService.RefreshGauges(ctx); err != nil {
		zl.Warn("failed to prime fund gauges", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Bursary Portal API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, &routes.Handlers{
		Health:      handlers.NewHealthHandler(cfg.AppMode, healthChecks(db, rdb)),
		Auth:        handlers.NewAuthHandler(authService, cfg, zl),
		User:        handlers.NewUserHandler(userService, zl),
		Application: handlers.NewApplicationHandler(applicationService, zl),
		Fund:        handlers.NewFundHandler(fundService, zl),
		Deadline:    handlers.NewDeadlineHandler(deadlineService, zl),
	}, cfg)

	// Graceful shutdown
	go gracefulShutdown(app, zl)

	// Start server
	zl.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("mode", cfg.AppMode),
		zap.String("store", cfg.StoreDriver),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zl.Fatal("failed to start server", zap.Error(err))
	}
}

// openStore returns the configured persistence backend. The *gorm.DB is nil
// for the in-memory driver.
func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (domain.Store, *gorm.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		zl.Info("using in-memory store")
		return memory.New(), nil, nil
	}

	db, err := config.ConnectDatabase(cfg, zl)
	if err != nil {
		return nil, nil, err
	}

	store := repositories.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = config.CloseDatabase(db)
		return nil, nil, err
	}
	zl.Info("database migration completed")
	return store, db, nil
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, zl *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
	zl.Info("server stopped gracefully")
}
