package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/http/handlers"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	WS             *handlers.WSHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	users := protected.Group("/users")
	users.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.Create)
	users.Get("", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.List)
	users.Patch("/:id/role", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.ChangeRole)
	users.Patch("/:id/active", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.SetActive)

	tickets := protected.Group("/tickets")
	// Reports before the :id wildcard so "stats" never resolves as an ID.
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Tickets.Assign)
	tickets.Post("/:id/accept", auth.RequireRole(domain.RoleAgent), cfg.Tickets.Accept)
	tickets.Post("/:id/reject", auth.RequireRole(domain.RoleAgent), cfg.Tickets.Reject)

	tickets.Post("/:id/comments", cfg.Comments.Create)
	tickets.Get("/:id/comments", cfg.Comments.List)

	comments := protected.Group("/comments")
	comments.Get("/:id", cfg.Comments.Get)
	comments.Patch("/:id", cfg.Comments.Update)
	comments.Delete("/:id", cfg.Comments.Delete)

	protected.Get("/ws", cfg.WS.Upgrade, cfg.WS.Serve())
}
