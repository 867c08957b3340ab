package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/application"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/config"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/events"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/metrics"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/database"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/health"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/kafka"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/provider"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/repository"
)

const serviceName = "service-mapsearch"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("provider", cfg.Provider.Name),
		zap.Bool("guard_stale_responses", cfg.Map.GuardStaleResponses),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// Initialize search and route providers
	searcher, router, err := provider.New(cfg.Provider)
	if err != nil {
		log.Fatal("failed to create provider", zap.Error(err))
	}

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if cfg.EventsEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize session registry and service
	registry := application.NewSessionRegistry(cfg.Map.SessionIdleTTL, log)
	defer registry.CloseAll()
	sessionService := application.NewSessionService(registry, searcher, router, publisher, application.SessionServiceConfig{
		Origin:              cfg.Map.Origin,
		RegionSpanMeters:    cfg.Map.RegionSpanMeters,
		GuardStaleResponses: cfg.Map.GuardStaleResponses,
		CallTimeout:         cfg.Map.CallTimeout,
		Provider:            cfg.Provider.Name,
	}, log)

	g.Go(func() error {
		registry.RunJanitor(gctx, cfg.Map.JanitorInterval)
		return nil
	})

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Apply global middleware
	engine.Use(middleware.RecoveryMiddleware(log))
	engine.Use(middleware.LoggerMiddleware(log))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.SecurityHeadersMiddleware())
	engine.Use(metrics.GinMiddleware())

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler.NewSessionHandler(sessionService).RegisterRoutes(&engine.RouterGroup)

	// History projection: Kafka consumer into PostgreSQL, served to admins
	var db *gorm.DB
	if cfg.HistoryEnabled {
		db = connectDatabase(cfg, log)

		historyService := application.NewHistoryService(repository.NewGormHistoryRepository(db), log)
		handler.NewAdminHistoryHandler(historyService).RegisterRoutes(&engine.RouterGroup, jwtManager)

		groupID := cfg.KafkaConfig.GroupPrefix + "history"
		historyConsumer := events.NewHistoryEventConsumer(cfg.KafkaConfig.Brokers, groupID, historyService, log)
		defer func() { _ = historyConsumer.Close() }()

		g.Go(func() error {
			log.Info("starting history event consumer")
			if err := historyConsumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("history event consumer error", zap.Error(err))
			}
			return nil
		})
	}

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + serviceName + "...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
	}
	log.Info(serviceName + " stopped")
}

func connectDatabase(cfg *config.ServiceConfig, log *zap.Logger) *gorm.DB {
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.HistoryModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	return db
}
