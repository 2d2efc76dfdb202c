package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-service/internal/api/http/handlers"
	"github.com/spec-kit/intake-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Intake         *handlers.IntakeHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	// the chat gateway forwards submissions here
	app.Post("/intake/requests", cfg.Intake.Submit)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/tickets/:id", cfg.Admin.GetTicket)
	admin.Post("/tickets/:id/accept", cfg.Admin.Accept)
	admin.Post("/tickets/:id/deny", cfg.Admin.Deny)
	admin.Post("/tickets/:id/prioritize", cfg.Admin.Prioritize)
	admin.Post("/tickets/:id/reply", cfg.Admin.Reply)
	admin.Get("/blacklist", cfg.Admin.Blacklist)
	admin.Post("/blacklist", cfg.Admin.Block)
	admin.Delete("/blacklist/:id", cfg.Admin.Unblock)
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/export", cfg.Admin.Export)
}
