package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notification-hub/internal/config"
	"notification-hub/internal/handler"
	"notification-hub/internal/middleware"
	"notification-hub/internal/pkg/catalog"
	"notification-hub/internal/realtime"
	"notification-hub/internal/repository"
	"notification-hub/internal/service/audience"
	"notification-hub/internal/service/auth"
	"notification-hub/internal/service/email"
	"notification-hub/internal/service/event"
	"notification-hub/internal/service/inbox"
	"notification-hub/internal/service/notification"
	"notification-hub/internal/service/preference"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.JWTSecret == "" {
		zlog.Fatal("JWT_SECRET is required")
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := config.RunMigrations(db); err != nil {
			zlog.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redisClient *goredis.Client
	if client, err := config.NewRedisClient(cfg); err != nil {
		if cfg.BusBackend == "redis" {
			zlog.Fatal("failed to connect to Redis", zap.Error(err))
		}
		zlog.Warn("Redis unavailable, preference cache disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		zlog.Fatal("failed to load notification catalog", zap.Error(err))
	}

	repos := repository.NewRepositories(db)

	authService := auth.NewService(repos.User, cfg.JWTSecret)
	preferenceService := preference.NewService(
		repos.Preference, repos.Membership, repos.Camera,
		redisClient, cfg.PreferenceCacheTTL, zlog.Named("preference"),
	)
	inboxService := inbox.NewService(repos.Notification)

	registry := realtime.NewRegistry(cfg.DeliveryTimeout, zlog.Named("realtime"))
	hub := realtime.NewHub(authService, repos.Membership, registry, cfg.ConnBufferSize)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	var bus realtime.Bus
	if cfg.BusBackend == "redis" {
		redisBus := realtime.NewRedisBus(redisClient, registry, zlog.Named("bus"))
		go func() {
			if err := redisBus.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("notification bus stopped", zap.Error(err))
			}
		}()
		bus = redisBus
	} else {
		bus = realtime.NewLocalBus(registry)
	}

	broadcaster := realtime.NewBroadcaster(
		bus, cfg.PublishWorkers, cfg.PublishQueueSize, cfg.PublishTimeout, zlog.Named("broadcaster"),
	)

	var emailService email.Service
	if cfg.ResendAPIKey != "" {
		emailService, err = email.NewService(cfg)
		if err != nil {
			zlog.Fatal("failed to initialise email service", zap.Error(err))
		}
	} else {
		zlog.Warn("RESEND_API_KEY not set, email notifications will be stored but not sent")
	}

	dispatcher := notification.NewDispatcher(
		audience.NewResolver(repos.Membership),
		preferenceService,
		notification.NewWriter(repos.Notification, zlog.Named("writer")),
		broadcaster,
		emailService,
		zlog.Named("dispatcher"),
	)

	eventService := event.NewService(
		repos.Event, repos.Camera, repos.Membership, repos.User,
		cat, dispatcher, zlog.Named("event"),
	)

	handlers := handler.NewHandlers(handler.Dependencies{
		Inbox:        inboxService,
		Preference:   preferenceService,
		Event:        eventService,
		Hub:          hub,
		PingInterval: cfg.PingInterval,
		Logger:       zlog.Named("handler"),
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(zlog.Named("http")),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, authService)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("bus", cfg.BusBackend))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}

	dispatcher.Wait()
	broadcaster.Close()
	stopRun()
}

func setupRoutes(app *fiber.App, h *handler.Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/ws/notifications", h.WebSocket.Upgrade, h.WebSocket.Serve())

	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(authService))

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Post("/mark_selected_as_read", h.Notification.MarkSelectedAsRead)
	notifications.Post("/mark_selected_as_delete", h.Notification.DeleteSelected)
	notifications.Post("/mark_all_as_read", h.Notification.MarkAllAsRead)
	notifications.Post("/mark_all_as_delete", h.Notification.DeleteAll)
	notifications.Get("/:id", h.Notification.GetByID)
	notifications.Post("/:id/mark_as_read", h.Notification.MarkAsRead)
	notifications.Post("/:id/mark_as_delete", h.Notification.Delete)

	preferences := protected.Group("/preferences")
	preferences.Get("/:entityType/:entityId", h.Preference.List)
	preferences.Put("/", h.Preference.Set)

	events := protected.Group("/events")
	events.Post("/camera", h.Event.CameraAction)
	events.Post("/customer", h.Event.CustomerCreated)
}
