package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/intern-portal-api/internal/config"
	"github.com/noah-isme/intern-portal-api/internal/handler"
	"github.com/noah-isme/intern-portal-api/internal/middleware"
	"github.com/noah-isme/intern-portal-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	SubmissionHandler *handler.SubmissionHandler
	ReviewHandler     *handler.ReviewHandler
	EmailHandler      *handler.EmailHandler
	HealthHandler     *handler.HealthHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	health := deps.HealthHandler
	if health == nil {
		health = handler.NewHealthHandler(cfg, nil, nil)
	}
	api.Get("/health", health.Check)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth, jwtMiddleware)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, middleware.RequireRole(models.RoleDeveloper))
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.ReviewHandler != nil {
		review := api.Group("/review", jwtMiddleware, middleware.RequireRole(models.RoleEvaluator))
		deps.ReviewHandler.Register(review)
	}

	// Internal wire contract consumed by other tooling; deliberately outside
	// the versioned API surface.
	if deps.EmailHandler != nil {
		deps.EmailHandler.Register(app.Group("/api"))
	}
}
