package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civicdesk/grievance-service/internal/api/http"
	"github.com/civicdesk/grievance-service/internal/api/http/handlers"
	"github.com/civicdesk/grievance-service/internal/auth"
	"github.com/civicdesk/grievance-service/internal/chatbot"
	"github.com/civicdesk/grievance-service/internal/config"
	"github.com/civicdesk/grievance-service/internal/events"
	"github.com/civicdesk/grievance-service/internal/messaging"
	"github.com/civicdesk/grievance-service/internal/observability"
	"github.com/civicdesk/grievance-service/internal/persistence"
	"github.com/civicdesk/grievance-service/internal/repository"
	"github.com/civicdesk/grievance-service/internal/service"
	"github.com/civicdesk/grievance-service/internal/session"
	"github.com/civicdesk/grievance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var checks []handlers.DependencyCheck
	var complaintRepo repository.ComplaintRepository
	var adminRepo repository.AdminRepository
	storage := "memory"
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		complaintRepo = repository.NewComplaintRepository(pool)
		adminRepo = repository.NewAdminRepository(pool)
		storage = "postgres"
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping})
	} else {
		logger.Warn("running with in-memory repositories; data is lost on restart")
		complaintRepo = repository.NewMemoryComplaintRepository()
		adminRepo = repository.NewMemoryAdminRepository()
	}

	var photos service.PhotoStore
	store, err := persistence.NewPhotoStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init photo storage", zap.Error(err))
	}
	if store != nil {
		photos = store
		checks = append(checks, handlers.DependencyCheck{Name: "photos", Ping: store.Ping})
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sessions = session.NewRedisStore(redis.Client, cfg.Session.TTL(), session.WithKeyPrefix(redis.KeyPrefix))
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: redis.Ping})
	default:
		memory := session.NewMemoryStore(cfg.Session.TTL())
		go memory.RunSweeper(ctx, cfg.Session.SweepInterval(), logger)
		sessions = memory
	}

	var whatsapp messaging.Sender
	if cfg.WhatsApp.Enabled() {
		whatsapp = messaging.NewTwilioSender(cfg.WhatsApp, logger)
	} else {
		logger.Warn("twilio credentials missing; outbound whatsapp messages are logged only")
		whatsapp = messaging.NewLogSender(logger)
	}
	var email messaging.EmailSender
	if cfg.Email.Enabled() {
		email = messaging.NewSMTPSender(cfg.Email, logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		ComplaintRepo: complaintRepo,
		PhotoStore:    photos,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		MaxPhotoBytes: cfg.Intake.MaxPhotoBytes,
		TicketRetries: cfg.Intake.TicketRetries,
	})
	trackingService := service.NewTrackingService(service.TrackingDependencies{
		ComplaintRepo: complaintRepo,
		PhotoStore:    photos,
		Logger:        logger,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		ComplaintRepo: complaintRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AdminRepo:     adminRepo,
		ComplaintRepo: complaintRepo,
		TokenManager:  tokens,
		Logger:        logger,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{
		ComplaintRepo: complaintRepo,
		Logger:        logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		WhatsApp:    whatsapp,
		Email:       email,
		CountryCode: cfg.WhatsApp.CountryCode,
		Metrics:     metrics,
		Logger:      logger,
	})

	pool := worker.NewPool(logger, cfg.Notification.Workers, cfg.Notification.QueueSize, 30*time.Second)
	worker.StartNotificationWorker(ctx, notificationService, pool)

	machine := chatbot.NewMachine(chatbot.Dependencies{
		Sessions: sessions,
		Sender:   whatsapp,
		Intake:   intakeService,
		Tracker:  trackingService,
		Metrics:  metrics,
		Logger:   logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigin:  cfg.App.CORSOrigin,
		GlobalLimit: cfg.RateLimit.Global,
		LimitWindow: cfg.RateLimit.Window(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, storage, checks...),
		Complaints:     handlers.NewComplaintsHandler(intakeService, trackingService, statusService, int64(cfg.Intake.MaxPhotoBytes)),
		Admin:          handlers.NewAdminHandler(authService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		WhatsApp:       handlers.NewWhatsAppHandler(machine, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, adminRepo),
		Metrics:        metrics,
		RateLimits: httptransport.RateLimits{
			Window: cfg.RateLimit.Window(),
			Submit: cfg.RateLimit.Submit,
			Track:  cfg.RateLimit.Track,
			Login:  cfg.RateLimit.Login,
		},
		AllowDefaultAdmin: cfg.Auth.AllowDefaultAdmin,
	})

	go func() {
		logger.Info("grievance service listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", storage))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	pool.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
