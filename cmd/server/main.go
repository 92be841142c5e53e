package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableline/internal/access"
	"tableline/internal/auth"
	"tableline/internal/config"
	"tableline/internal/database"
	"tableline/internal/handlers"
	"tableline/internal/identifier"
	"tableline/internal/middleware"
	"tableline/internal/models"
	"tableline/internal/notify"
	"tableline/internal/provider"
	"tableline/internal/realtime"
	"tableline/internal/repositories"
	"tableline/internal/services"
	"tableline/pkg/logger"
	"tableline/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// waiter is implemented by dispatchers with in-flight hand-offs.
type waiter interface {
	Wait()
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	// =========================================================================
	// Configuration and logger
	// =========================================================================
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger("server", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// =========================================================================
	// Tracing
	// =========================================================================
	_, shutdownTracing, err := tracing.InitTracing(context.Background(), log, tracing.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Tracing.Endpoint,
		Probability: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	// =========================================================================
	// Database
	// =========================================================================
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.App.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			log.Warn("auto migrate failed", zap.Error(err))
		} else {
			log.Info("database auto migration completed")
		}
	}

	// =========================================================================
	// Repositories
	// Tool webhooks resolve the tenant on every call, so restaurant and
	// agent lookups go through a short-lived cache.
	// =========================================================================
	restaurantRepo := repositories.NewCachedRestaurantRepository(
		repositories.NewRestaurantRepository(db),
		repositories.NewCache[models.Restaurant](cfg.Cache.Capacity, cfg.Cache.TTL),
	)
	agentRepo := repositories.NewCachedAgentRepository(
		repositories.NewAgentRepository(db),
		repositories.NewCache[models.Agent](cfg.Cache.Capacity, cfg.Cache.TTL),
	)
	orderRepo := repositories.NewOrderRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	integrationRepo := repositories.NewIntegrationRepository(db)

	log.Info("repositories initialized")

	// =========================================================================
	// Notifications
	// With a broker, jobs go to the queue for cmd/notifier; without one they
	// are processed in-process.
	// =========================================================================
	var (
		dispatcher notify.Dispatcher
		broker     *notify.Broker
	)
	if cfg.RabbitMQ.URL != "" {
		broker, err = notify.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, 0)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer broker.Close()
		dispatcher = notify.NewRabbitDispatcher(broker.Channel(), cfg.RabbitMQ.Queue, log)
		log.Info("notification jobs go to rabbitmq", zap.String("queue", cfg.RabbitMQ.Queue))
	} else {
		processor := notify.NewProcessor(notify.RegistryFromConfig(cfg, log), log)
		dispatcher = notify.NewAsyncDispatcher(processor, log)
		log.Warn("rabbitmq not configured, processing notifications in-process")
	}

	// =========================================================================
	// Realtime publisher (Centrifugo)
	// =========================================================================
	var publisher realtime.Publisher
	if cfg.Centrifugo.URL != "" && cfg.Centrifugo.APIKey != "" {
		publisher = realtime.NewCentrifugoClient(cfg.Centrifugo.URL, cfg.Centrifugo.APIKey, log)
		log.Info("centrifugo publisher initialized", zap.String("url", cfg.Centrifugo.URL))
	} else {
		publisher = realtime.NewNoopPublisher()
		log.Warn("centrifugo not configured, using noop publisher")
	}

	// =========================================================================
	// Services
	// =========================================================================
	enforcer, err := access.NewEnforcer()
	if err != nil {
		log.Fatal("failed to build access policy", zap.Error(err))
	}

	allocator := identifier.New()
	recipients := services.NewRecipientResolver(restaurantRepo, userRepo)

	orderService := services.NewOrderService(orderRepo, restaurantRepo, recipients, allocator, dispatcher, publisher, log)
	reservationService := services.NewReservationService(reservationRepo, restaurantRepo, recipients, allocator, dispatcher, publisher, log)
	agentService := services.NewAgentService(agentRepo, restaurantRepo, provider.NewVoiceAgentClient(cfg.VoiceAgent), cfg.App.PublicBaseURL, log)
	restaurantService := services.NewRestaurantService(restaurantRepo, menuRepo, agentService, log)
	integrationService := services.NewIntegrationService(integrationRepo, log)
	accountService := services.NewAccountService(userRepo, restaurantRepo, enforcer, log)
	callService := services.NewCallService(agentService, restaurantRepo, recipients, dispatcher, log)

	log.Info("services initialized")

	// =========================================================================
	// Handlers and router
	// =========================================================================
	var sms handlers.SMSSender
	if cfg.SMS.Enabled() {
		sms = provider.NewSMSClient(cfg.SMS)
	} else {
		log.Warn("sms provider not configured, the send_sms tool is disabled")
	}
	if cfg.VoiceAgent.WebhookSecret == "" {
		log.Warn("post-call webhook signature verification disabled")
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &handlers.Router{
		Voice:          handlers.NewVoiceHandler(reservationService, orderService, restaurantService, agentService, sms, log),
		PostCall:       handlers.NewPostCallHandler(callService, cfg.VoiceAgent.WebhookSecret, log),
		Orders:         handlers.NewOrderHandler(orderService, accountService, log),
		Reservations:   handlers.NewReservationHandler(reservationService, accountService, log),
		Agents:         handlers.NewAgentHandler(agentService, accountService, log),
		Integrations:   handlers.NewIntegrationHandler(integrationService, accountService, log),
		Restaurants:    handlers.NewRestaurantHandler(restaurantService, accountService, log),
		Auth:           middleware.AuthMiddleware(auth.NewVerifier(cfg.JWT), accountService, log),
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         log,
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.Ping(); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if broker != nil && !broker.IsAlive() {
				return errors.New("rabbitmq: connection closed")
			}
			return nil
		},
	}

	// =========================================================================
	// HTTP server
	// =========================================================================
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      otelhttp.NewHandler(router.Engine(), "tableline"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// let scheduled notifications finish their hand-off
	if w, ok := dispatcher.(waiter); ok {
		w.Wait()
	}
	shutdownTracing(ctx)

	log.Info("server exited")
}
