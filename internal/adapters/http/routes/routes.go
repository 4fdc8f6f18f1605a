package routes

import (
	"time"

	"bursary-portal/internal/adapters/http/handlers"
	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/config"
	"bursary-portal/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestTimeout = 15 * time.Second
	fundCacheAge   = 30 * time.Second
)

// Handlers groups every HTTP handler mounted by Setup
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Application *handlers.ApplicationHandler
	Fund        *handlers.FundHandler
	Deadline    *handlers.DeadlineHandler
}

// Setup configures all routes for the application
func Setup(app *fiber.App, h *Handlers, cfg *config.Config) {
	// Health check & root routes
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1", middleware.RequestTimeout(requestTimeout))
	setupAPIV1Routes(apiV1, h, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h *Handlers, cfg *config.Config) {
	// API Info
	router.Get("/", h.Health.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, h.Auth, cfg)

	// Application lifecycle routes (Authenticated users)
	applicationRoutes := router.Group("/applications")
	applicationRoutes.Use(middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	setupApplicationRoutes(applicationRoutes, h.Application)

	// Fund routes (Staff)
	fundRoutes := router.Group("/funds")
	fundRoutes.Use(middleware.AuthMiddleware(cfg), middleware.StaffOnly())
	setupFundRoutes(fundRoutes, h.Fund)

	// Admin routes (Superadmin only)
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg), middleware.SuperadminOnly())
	setupAdminRoutes(adminRoutes, h.User, h.Deadline)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupApplicationRoutes configures lifecycle routes; ownership is enforced by the service
func setupApplicationRoutes(router fiber.Router, handler *handlers.ApplicationHandler) {
	aro := middleware.RoleMiddleware(domain.RoleARO, domain.RoleSuperadmin)
	fao := middleware.RoleMiddleware(domain.RoleFAO, domain.RoleSuperadmin)
	fdo := middleware.RoleMiddleware(domain.RoleFDO, domain.RoleSuperadmin)

	// Any authenticated user (students see their own)
	router.Get("/", handler.List)

	// Staff queues, registered before /:id
	router.Get("/counts", middleware.StaffOnly(), handler.Counts)
	router.Get("/pending", middleware.StaffOnly(), handler.Pending)

	router.Get("/:id", handler.Get)

	// Student drafting
	router.Post("/", middleware.StudentOnly(), handler.Create)
	router.Put("/:id", middleware.StudentOnly(), handler.Update)
	router.Post("/:id/documents", middleware.StudentOnly(), handler.AttachDocument)
	router.Post("/:id/submit", middleware.StudentOnly(), handler.Submit)

	// ARO review
	router.Post("/:id/review", aro, handler.Review)
	router.Post("/:id/forward", aro, handler.Forward)
	router.Post("/:id/verify-documents", aro, handler.VerifyDocuments)
	router.Post("/:id/request-corrections", aro, handler.RequestCorrections)

	// FAO allocation / FDO disbursement
	router.Post("/:id/allocate", fao, handler.Allocate)
	router.Post("/:id/disburse", fdo, handler.Disburse)

	// Audit trail (Staff)
	router.Get("/:id/history", middleware.StaffOnly(), handler.History)
	router.Get("/:id/disbursements", middleware.StaffOnly(), handler.Disbursements)
}

// setupFundRoutes configures fund routes; creation and closing are limited to FAO and superadmin.
// Fund reads are privately cacheable for a short time.
func setupFundRoutes(router fiber.Router, handler *handlers.FundHandler) {
	fao := middleware.RoleMiddleware(domain.RoleFAO, domain.RoleSuperadmin)
	cached := middleware.PrivateCacheHeaders(fundCacheAge)

	router.Get("/", cached, handler.List)
	router.Get("/:id", cached, handler.Get)
	router.Post("/", fao, handler.Create)
	router.Put("/:id/close", fao, handler.Close)
}

// setupAdminRoutes configures user and deadline management routes
func setupAdminRoutes(router fiber.Router, users *handlers.UserHandler, deadlines *handlers.DeadlineHandler) {
	router.Get("/users", users.ListUsers)
	router.Post("/users", users.CreateUser)
	router.Put("/users/:id/active", users.SetActive)

	router.Get("/deadlines", deadlines.List)
	router.Put("/deadlines", deadlines.Set)
}
