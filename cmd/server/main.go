package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahrdadan/pagepilot/internal/api"
	"github.com/ahrdadan/pagepilot/internal/browser"
	"github.com/ahrdadan/pagepilot/internal/config"
	"github.com/ahrdadan/pagepilot/internal/dom"
	"github.com/ahrdadan/pagepilot/internal/feedback"
	"github.com/ahrdadan/pagepilot/internal/interact"
	"github.com/ahrdadan/pagepilot/internal/nats"
	"github.com/ahrdadan/pagepilot/internal/queue"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Parse CLI flags
	cfg := config.ParseFlags()

	// Handle --version and --help
	config.HandleFlags(cfg)

	// Banner
	log.Printf("Starting %s v%s (Interact + Queue)", config.AppName, config.Version)

	// Chromium setup
	chromeBin := cfg.ChromeBin
	if cfg.ChromeDownload {
		bin, err := browser.InstallChrome(context.Background(), cfg.ChromeRevision)
		if err != nil {
			log.Fatalf("Failed to install Chromium: %v", err)
		}
		chromeBin = bin
	}

	browserManager := browser.NewManager(browser.Options{
		BinPath:  chromeBin,
		Headless: cfg.Headless,
		Proxy:    cfg.Proxy,
	})
	if err := browserManager.Start(); err != nil {
		log.Fatalf("Failed to start Chromium: %v", err)
	}
	defer func() {
		if err := browserManager.Stop(); err != nil {
			log.Printf("Failed to stop Chromium: %v", err)
		}
	}()

	// Interaction pipeline
	feedbackHub := feedback.NewHub(browserManager)

	interactCfg := interact.DefaultConfig()
	interactCfg.AttachTimeout = cfg.AttachTimeout()
	interactCfg.SoftTimeout = cfg.SoftWait()
	interactCfg.KeyboardFill = cfg.KeyboardFill
	interactCfg.TypeDelay = cfg.TypeDelay()
	interactCfg.SettleDelay = cfg.SettleDelay()
	interactCfg.TrailingNudge = cfg.TrailingNudge

	interactor := interact.New(interact.NewRodSession(browserManager), feedbackHub, interactCfg)

	extractor := dom.NewExtractor(browserManager)
	extractor.SnapshotDir = cfg.SnapshotDir

	// NATS + JetStream setup
	var natsServer *nats.Server
	var queueManager *queue.Manager

	if cfg.WithNats {
		log.Printf("Setting up NATS JetStream...")

		var err error
		natsServer, err = nats.NewServer(nats.ServerConfig{
			BinPath:  cfg.NatsBin,
			StoreDir: cfg.NatsStore,
			URL:      cfg.NatsURL,
			AutoDL:   cfg.NatsAutoDL,
		})
		if err != nil {
			log.Fatalf("Failed to create NATS server: %v", err)
		}

		ctx := context.Background()
		if err := natsServer.Start(ctx); err != nil {
			log.Fatalf("Failed to start NATS server: %v", err)
		}
		defer func() { _ = natsServer.Stop() }()

		// Create queue manager
		js := natsServer.GetJetStream()
		queueManager, err = queue.NewManager(js)
		if err != nil {
			log.Fatalf("Failed to create queue manager: %v", err)
		}

		// Create and start processor
		processor := queue.NewInteractionProcessor(interactor, browserManager)
		if err := queueManager.Start(processor); err != nil {
			log.Fatalf("Failed to start queue processor: %v", err)
		}
		defer queueManager.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      config.AppName,
		ErrorHandler: api.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Setup routes
	handler := api.NewHandler(browserManager, interactor, extractor)
	api.SetupRoutes(app, handler)
	api.SetupNotificationRoutes(app, feedbackHub)

	if queueManager != nil {
		// Setup job routes with security configuration
		routeConfig := api.RouteConfig{
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			IdempotencyTTL:    cfg.IdempotencyTTL,
			BaseURL:           cfg.BaseURL,
		}
		api.SetupJobRoutesWithConfig(app, queueManager, routeConfig)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := browserManager.Stop(); err != nil {
			log.Printf("Failed to stop Chromium: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Chromium CDP endpoint: %s", browserManager.GetEndpoint())
	if cfg.WithNats {
		log.Printf("NATS JetStream enabled at %s", cfg.NatsURL)
	}

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
