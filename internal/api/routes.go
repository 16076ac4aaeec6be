package api

import (
	"time"

	"github.com/ahrdadan/pagepilot/internal/queue"
	"github.com/ahrdadan/pagepilot/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Notifier fans out interaction feedback messages; the notifications
// WebSocket feed subscribes here.
type Notifier interface {
	Subscribe() <-chan string
	Unsubscribe(ch <-chan string)
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check (simple path)
	app.Get("/health", handler.HealthCheck)

	registerRoutes(app.Group("/pagepilot"), handler)
}

// RouteConfig holds configuration for routes
type RouteConfig struct {
	RateLimitRequests int           // requests per window
	RateLimitWindow   time.Duration // time window
	IdempotencyTTL    time.Duration // TTL for idempotency keys
	BaseURL           string        // Base URL for full URLs in responses
}

// DefaultRouteConfig returns default route configuration
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		IdempotencyTTL:    24 * time.Hour,
		BaseURL:           "http://localhost:8000",
	}
}

// SetupJobRoutes configures job queue routes
func SetupJobRoutes(app *fiber.App, queueManager *queue.Manager) {
	SetupJobRoutesWithConfig(app, queueManager, DefaultRouteConfig())
}

// SetupJobRoutesWithConfig configures job queue routes with custom config
func SetupJobRoutesWithConfig(app *fiber.App, queueManager *queue.Manager, config RouteConfig) {
	// Create security stores
	rateLimiter := security.NewRateLimiter(security.RateLimitConfig{
		RequestsPerWindow: config.RateLimitRequests,
		WindowDuration:    config.RateLimitWindow,
		BurstMax:          20,
	})
	idempotencyStore := security.NewIdempotencyStore(config.IdempotencyTTL)

	jobHandler := NewJobHandlerWithConfig(queueManager, idempotencyStore, config.BaseURL)

	// Create security middleware
	secMiddleware := security.NewMiddleware(rateLimiter, idempotencyStore)

	pagepilot := app.Group("/pagepilot")

	// Apply security headers to all pagepilot routes
	pagepilot.Use(security.SecurityHeadersMiddleware())

	// Job queue endpoints with rate limiting
	jobsGroup := pagepilot.Group("/jobs")
	jobsGroup.Use(secMiddleware.RateLimitMiddleware())

	jobsGroup.Post("", jobHandler.CreateJob)
	jobsGroup.Get("/:job_id", jobHandler.GetJobStatus)
	jobsGroup.Get("/:job_id/result", jobHandler.GetJobResult)
	jobsGroup.Post("/:job_id/cancel", jobHandler.CancelJob)
	jobsGroup.Get("/:job_id/events", jobHandler.StreamEvents)

	// WebSocket endpoint for job events
	app.Use("/pagepilot/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/pagepilot/ws", websocket.New(jobHandler.HandleWebSocket))
}

// SetupNotificationRoutes registers the WebSocket feed carrying interaction
// feedback messages.
func SetupNotificationRoutes(app *fiber.App, notifier Notifier) {
	app.Use("/pagepilot/notifications", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/pagepilot/notifications", websocket.New(func(c *websocket.Conn) {
		messages := notifier.Subscribe()
		defer notifier.Unsubscribe(messages)

		for message := range messages {
			if err := c.WriteJSON(map[string]string{"message": message}); err != nil {
				return
			}
		}
	}))
}

// SetupSecureRoutes configures routes with full security middleware
func SetupSecureRoutes(app *fiber.App, handler *Handler, config RouteConfig) {
	// Create rate limiter
	rateLimiter := security.NewRateLimiter(security.RateLimitConfig{
		RequestsPerWindow: config.RateLimitRequests,
		WindowDuration:    config.RateLimitWindow,
		BurstMax:          20,
	})

	// Create security middleware
	secMiddleware := security.NewMiddleware(rateLimiter, nil)

	// Health check (no rate limit)
	app.Get("/health", handler.HealthCheck)

	// Pagepilot routes with security
	pagepilot := app.Group("/pagepilot")
	pagepilot.Use(security.SecurityHeadersMiddleware())
	pagepilot.Use(secMiddleware.RateLimitMiddleware())

	registerRoutes(pagepilot, handler)
}

func registerRoutes(pagepilot fiber.Router, handler *Handler) {
	// Browser status
	pagepilot.Get("/browser/status", handler.BrowserStatus)

	// Session lifecycle
	pagepilot.Post("/session/open", handler.OpenSession)
	pagepilot.Get("/session/status", handler.SessionStatus)
	pagepilot.Post("/session/close", handler.CloseSession)

	// Page interactions
	pagepilot.Post("/page/click", handler.ClickElement)
	pagepilot.Post("/page/enter-text", handler.EnterText)
	pagepilot.Post("/page/bulk-enter-text", handler.BulkEnterText)

	// DOM extraction
	pagepilot.Post("/page/dom", handler.ExtractDOM)
}
