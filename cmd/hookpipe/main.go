package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/hookpipe/hookpipe/internal/config"
	"github.com/hookpipe/hookpipe/internal/dispatch"
	"github.com/hookpipe/hookpipe/internal/dlq"
	"github.com/hookpipe/hookpipe/internal/handlers"
	"github.com/hookpipe/hookpipe/internal/logging"
	"github.com/hookpipe/hookpipe/internal/ratelimit"
	"github.com/hookpipe/hookpipe/internal/repository"
	"github.com/hookpipe/hookpipe/internal/server"
	"github.com/hookpipe/hookpipe/internal/service"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	migrationsPath := flag.String("migrations", "migrations", "path to SQL migration files")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("hookpipe"))
	logging.SetDefault(logger)

	slog.Info("Starting hookpipe service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Run schema migrations before opening the pool
	connString := cfg.Database.Postgres.ConnString()
	if err := runMigrations(*migrationsPath, connString); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize storage
	repo, err := repository.NewPostgresRepository(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer repo.Close()
	log.Printf("Connected to postgres: %s:%d/%s", cfg.Database.Postgres.Host, cfg.Database.Postgres.Port, cfg.Database.Postgres.Database)

	// Initialize rate limiter
	var limiter ratelimit.Limiter
	if cfg.Ingestion.RateLimitEnabled {
		switch cfg.Ingestion.RateLimitBackend {
		case "redis":
			if !cfg.Redis.Enabled {
				log.Fatal("Rate limit backend is redis but redis is disabled")
			}
			redisLimiter, err := ratelimit.NewRedisLimiter(cfg.Redis.URL, cfg.Ingestion.RateLimitMax, cfg.Ingestion.RateLimitWindow)
			if err != nil {
				log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
				log.Println("Falling back to in-process rate limiting")
				limiter = ratelimit.NewLocalLimiter(cfg.Ingestion.RateLimitMax, cfg.Ingestion.RateLimitWindow)
			} else {
				limiter = redisLimiter
				log.Printf("Redis rate limiting enabled: %d requests per %s", cfg.Ingestion.RateLimitMax, cfg.Ingestion.RateLimitWindow)
			}
		case "local", "":
			limiter = ratelimit.NewLocalLimiter(cfg.Ingestion.RateLimitMax, cfg.Ingestion.RateLimitWindow)
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.Ingestion.RateLimitMax, cfg.Ingestion.RateLimitWindow)
		default:
			log.Fatalf("Unknown rate limit backend: %s (supported: local, redis)", cfg.Ingestion.RateLimitBackend)
		}
	} else {
		limiter = &ratelimit.NoopLimiter{}
		log.Println("Rate limiting disabled in configuration")
	}
	defer limiter.Close()

	// Initialize Dead Letter Queue
	var dlqWriter dlq.Writer
	if cfg.DLQ.Enabled {
		switch cfg.DLQ.Backend {
		case "jetstream", "":
			jsDLQ, err := dlq.NewJetStreamQueue(context.Background(), cfg.DLQ.NatsURL)
			if err != nil {
				log.Fatalf("Failed to initialize JetStream DLQ: %v", err)
			}
			dlqWriter = jsDLQ
			log.Printf("Dead Letter Queue enabled (backend: jetstream, nats: %s)", cfg.DLQ.NatsURL)
		case "file":
			fileDLQ, err := dlq.NewQueue(cfg.DLQ.BasePath)
			if err != nil {
				log.Fatalf("Failed to initialize file DLQ: %v", err)
			}
			dlqWriter = fileDLQ
			log.Printf("Dead Letter Queue enabled (backend: file, path: %s)", cfg.DLQ.BasePath)
			log.Println("WARNING: File-based DLQ does not support multiple instances")
		default:
			log.Fatalf("Unknown DLQ backend: %s (supported: jetstream, file)", cfg.DLQ.Backend)
		}
	} else {
		log.Println("Dead Letter Queue disabled")
	}

	// Wire the pipeline
	dispatcher := dispatch.NewDispatcher(repo, dlqWriter)
	ingestService := service.NewIngestService(repo, dispatcher, logger)
	handler := handlers.NewIngestHandler(ingestService, limiter, logger, int64(cfg.Ingestion.MaxEventSize))
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Hookpipe service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(migrationsPath, connString string) error {
	m, err := migrate.New("file://"+migrationsPath, connString)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
