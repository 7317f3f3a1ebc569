package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	emailadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/email"
	mongoadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/mongo"
	natsadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/nats"
	redisadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/redis"
	s3adapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/storage/s3"
	"github.com/AlphaIsYour/creanomic-sub002/internal/app/config"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/tracer"
	httpport "github.com/AlphaIsYour/creanomic-sub002/internal/port/http"
	"github.com/AlphaIsYour/creanomic-sub002/internal/port/http/handler"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serviceName = "daurin-backend"
	// metricsNamespace must be a valid Prometheus metric name prefix, so no
	// hyphens.
	metricsNamespace = "daurin"
)

type App struct {
	cfg            *config.Config
	log            logger.Logger
	server         *httpport.Server
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
	tracerProvider *sdktrace.TracerProvider
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s", cfg.Env, cfg.HTTPServer.Port)

	appLogger.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		appLogger.Errorf("Failed to initialize MongoDB client: %v", err)
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized successfully")

	if err := mongoadapter.EnsureIndexes(ctx, mongoClient.Database(cfg.MongoDB.Database)); err != nil {
		appLogger.Errorf("Failed to ensure MongoDB indexes: %v", err)
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}
	appLogger.Info("MongoDB indexes ensured")

	appLogger.Info("Initializing Redis client...")
	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Errorf("Failed to initialize Redis client: %v", err)
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized successfully")

	appLogger.Info("Initializing NATS connection...")
	natsConn, err := natsadapter.NewConnection(cfg.NATS, appLogger)
	if err != nil {
		appLogger.Errorf("Failed to initialize NATS connection: %v", err)
		return nil, fmt.Errorf("failed to initialize NATS connection: %w", err)
	}
	appLogger.Info("NATS connection established")

	emailSender, err := emailadapter.NewSMTPSender(cfg.SMTP, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
	}
	appLogger.Info("SMTP sender initialized")

	photoStorage, err := s3adapter.NewPhotoStorage(ctx, cfg.S3, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}
	appLogger.Info("Photo storage initialized")

	metricsManager := metrics.NewMetricsManager(metricsNamespace)
	go func() {
		if err := metrics.StartMetricsServer(cfg.Metrics.Port, appLogger, metricsManager.Registry); err != nil {
			appLogger.Errorf("Metrics server stopped: %v", err)
		}
	}()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.Tracer.Enabled {
		tracerProvider, err = tracer.InitTracer(ctx, serviceName, cfg.Tracer.Endpoint)
		if err != nil {
			appLogger.Errorf("Failed to initialize tracer: %v", err)
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		appLogger.Info("Tracer initialized")
	}

	userRepo := mongoadapter.NewUserRepository(mongoClient, cfg.MongoDB)
	tokenRepo := mongoadapter.NewTokenRepository(mongoClient, cfg.MongoDB)
	offerRepo := mongoadapter.NewOfferRepository(mongoClient, cfg.MongoDB)
	notificationRepo := mongoadapter.NewNotificationRepository(mongoClient, cfg.MongoDB)
	appLogger.Info("Repositories initialized")

	offerCache := redisadapter.NewOfferCache(redisClient, cfg.Cache.OfferTTL)
	publisher := natsadapter.NewPublisher(natsConn)

	registrationService := service.NewRegistrationService(
		userRepo,
		tokenRepo,
		emailSender,
		publisher,
		metricsManager,
		appLogger,
		cfg.OTP.TTL,
		cfg.JWT.Secret,
		cfg.JWT.TTL,
	)
	offerService := service.NewOfferService(
		offerRepo,
		userRepo,
		notificationRepo,
		offerCache,
		photoStorage,
		publisher,
		metricsManager,
		appLogger,
	)
	notificationService := service.NewNotificationService(notificationRepo, appLogger)
	appLogger.Info("Services initialized")

	authHandler := handler.NewAuthHandler(registrationService, appLogger, metricsManager)
	offerHandler := handler.NewOfferHandler(offerService, appLogger, metricsManager)
	notificationHandler := handler.NewNotificationHandler(notificationService, appLogger, metricsManager)

	router := httpport.NewRouter(authHandler, offerHandler, notificationHandler, cfg.JWT.Secret, metricsManager)
	server := httpport.NewServer(cfg.HTTPServer, router, appLogger)
	appLogger.Info("HTTP server instance created")

	application := &App{
		cfg:            cfg,
		log:            appLogger,
		server:         server,
		mongoClient:    mongoClient,
		redisClient:    redisClient,
		natsConn:       natsConn,
		tracerProvider: tracerProvider,
	}

	return application, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	a.log.Info("HTTP server started in a goroutine")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	a.log.Info("Closing connections...")

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error shutting down tracer provider: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed")
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB client disconnected")
		}
	}

	a.log.Info("Application shut down gracefully")
}
