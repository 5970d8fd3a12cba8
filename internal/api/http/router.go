package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/civicdesk/grievance-service/internal/api/http/handlers"
	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/domain"
	"github.com/civicdesk/grievance-service/internal/observability"
)

// RateLimits are per-IP request caps for the public endpoints. Zero disables a limit.
type RateLimits struct {
	Window time.Duration
	Submit int
	Track  int
	Login  int
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Complaints     *handlers.ComplaintsHandler
	Admin          *handlers.AdminHandler
	Analytics      *handlers.AnalyticsHandler
	WhatsApp       *handlers.WhatsAppHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	RateLimits     RateLimits

	// AllowDefaultAdmin exposes the bootstrap endpoint.
	AllowDefaultAdmin bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/health", cfg.Health.Health)

	admins := func(chain ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin()}, chain...)
	}

	complaints := api.Group("/complaints")
	complaints.Post("/submit", limit(cfg.RateLimits.Submit, cfg.RateLimits.Window, "Too many complaints submitted from this IP, please try again later."), cfg.Complaints.Submit)
	complaints.Get("/track/:ticketId", limit(cfg.RateLimits.Track, cfg.RateLimits.Window, "Too many tracking requests, please try again later."), cfg.Complaints.Track)
	complaints.Get("/photo/:ticketId", cfg.Complaints.Photo)
	complaints.Get("/", admins(cfg.Complaints.List)...)
	complaints.Get("/:id", admins(cfg.Complaints.Get)...)
	complaints.Put("/:id/status", admins(
		auth.RequirePermission(auth.CanEditStatus, "Permission denied to update complaint status"),
		cfg.Complaints.UpdateStatus)...)

	admin := api.Group("/admin")
	admin.Post("/login", limit(cfg.RateLimits.Login, cfg.RateLimits.Window, "Too many login attempts, please try again later."), cfg.Admin.Login)
	if cfg.AllowDefaultAdmin {
		admin.Post("/create-default", cfg.Admin.CreateDefault)
	}
	admin.Get("/profile", admins(cfg.Admin.Profile)...)
	admin.Get("/all", admins(auth.RequireRole(domain.AdminRoleSuper), cfg.Admin.List)...)

	analytics := api.Group("/analytics", admins(
		auth.RequirePermission(auth.CanViewAnalytics, "Permission denied to view analytics"))...)
	analytics.Get("/dashboard", cfg.Analytics.Dashboard)
	analytics.Get("/trends", cfg.Analytics.Trends)
	analytics.Get("/department-performance", cfg.Analytics.DepartmentPerformance)

	api.Post("/whatsapp/webhook", cfg.WhatsApp.Webhook)
}

func limit(max int, window time.Duration, message string) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return rateLimiter(max, window, message)
}
