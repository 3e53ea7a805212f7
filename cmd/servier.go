package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/expomail/pkg/config"
	"github.com/Abraxas-365/expomail/pkg/httpx"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/Abraxas-365/expomail/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Configuration (logx reads LOG_* on its own)
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	logx.Info("🚀 Starting expomail...")

	// 2. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	container.StartBackgroundServices(ctx)

	// 3. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "expomail",
		DisableStartupMessage: true,
		ErrorHandler:          httpx.ErrorHandler,
		BodyLimit:             2 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Server.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: fiber.HeaderXRequestID,
		Generator: func() string {
			return "req-" + uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Use(metrics.HTTPMiddleware())

	// 5. Health & metrics
	app.Get("/health", healthCheckHandler(container))
	app.Get("/metrics", metrics.Handler())

	// 6. Routes
	admin := container.Auth.Require()
	email := app.Group("/api/email")
	container.MailHandlers.RegisterRoutes(email, admin)
	logx.Info("✓ Email core routes registered")
	container.NotifyHandlers.RegisterRoutes(email, admin)
	logx.Info("✓ Notifier routes registered")

	// 7. 404 handler
	app.Use(notFoundHandler)

	printRouteSummary()

	// 8. Serve with graceful shutdown
	startServer(app, cfg.Server.Port, stop)
}

// healthCheckHandler reports the state of the database, Redis and the queue.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":       "healthy",
			"service":      "expomail",
			"version":      container.Config.Server.Version,
			"transport":    container.Config.Mail.Transport,
			"queue_length": container.Dispatcher.QueueLength(),
			"sweeper":      container.Sweeper.Running(),
		}

		if container.DB != nil {
			if err := container.DB.PingContext(c.UserContext()); err != nil {
				health["db"] = "unhealthy"
				health["db_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["db"] = "healthy"
			}
		}

		if container.Redis != nil {
			if err := container.Redis.Ping(c.UserContext()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["redis_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["redis"] = "healthy"
			}
		}

		if c.QueryBool("check_templates", false) {
			ids, err := container.Dispatcher.AvailableTemplates(c.UserContext())
			if err != nil {
				health["templates"] = "unhealthy"
				health["templates_error"] = err.Error()
			} else {
				health["templates"] = len(ids)
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success":    false,
		"error":      "Route not found",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
}

func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Email: /api/email/send, /template, /queue, /templates, /template/:id")
	logx.Info("   ├─ Admin: /api/email/process-queue, /verify, /logs, /stats, /diagnose, /welcome-all")
	logx.Info("   ├─ Notifiers: /api/email/stall-application, /payment-reminder, /welcome, ...")
	logx.Info("   └─ Ops: /health, /metrics")
}

func startServer(app *fiber.App, port string, stop context.CancelFunc) {
	go func() {
		logx.Info("=" + repeatString("=", 60))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info("=" + repeatString("=", 60))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app, stop)
}

func gracefulShutdown(app *fiber.App, stop context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
	stop()

	logx.Info("✅ Server exited successfully")
}
