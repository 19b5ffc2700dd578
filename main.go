package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/tripweave/go-itinerary-extraction/app/db"
	appLogger "github.com/tripweave/go-itinerary-extraction/app/logger"
	"github.com/tripweave/go-itinerary-extraction/app/tracer"
	"github.com/tripweave/go-itinerary-extraction/config"
	"github.com/tripweave/go-itinerary-extraction/internal/api/extraction"
	"github.com/tripweave/go-itinerary-extraction/internal/api/geocode"
	"github.com/tripweave/go-itinerary-extraction/internal/api/plangen"
	api "github.com/tripweave/go-itinerary-extraction/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := setupLogger()
	slog.SetDefault(logger)

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Tracing & Metrics ---
	tracer.InitTracingAndMetrics(fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port))

	// --- Database Setup (optional) ---
	// The persistent geocode cache lives in Postgres. Without a configured
	// host the service still runs; resolution falls back to the in-memory
	// cache only.
	var cacheRepo geocode.CacheRepository
	if cfg.Repositories.Postgres.Host != "" {
		dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
		if err != nil {
			logger.Error("Failed to generate database config", slog.Any("error", err))
			os.Exit(1)
		}

		// Run migrations *before* initializing the main pool
		err = database.RunMigrations(dbConfig.ConnectionURL, logger)
		if err != nil {
			logger.Error("Failed to run database migrations", slog.Any("error", err))
			os.Exit(1)
		}

		pool, err := database.Init(dbConfig.ConnectionURL, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		if !database.WaitForDB(ctx, pool, logger) {
			logger.Error("Database not ready after waiting, exiting.")
			os.Exit(1)
		}

		cacheRepo = geocode.NewPostgresCacheRepository(pool, logger)
	} else {
		logger.Info("Postgres host not configured, persistent geocode cache disabled")
	}

	// --- Geocoding Provider ---
	var provider geocode.Provider
	switch cfg.Geocoder.Provider {
	case "google":
		googleClient, err := geocode.NewGoogleClient(os.Getenv("GOOGLE_MAPS_API_KEY"), logger)
		if err != nil {
			logger.Error("Failed to initialize Google Maps client", slog.Any("error", err))
			os.Exit(1)
		}
		provider = googleClient
	default:
		provider = geocode.NewAmapClient(os.Getenv("AMAP_API_KEY"), cfg.Geocoder.BaseURL, logger)
	}

	resolver := geocode.NewResolver(
		provider,
		cacheRepo,
		cfg.Geocoder.RatePerSecond,
		cfg.Geocoder.Burst,
		cfg.Geocoder.Concurrency,
		cfg.Geocoder.CacheTTL,
		logger,
	)

	// --- Itinerary Generator (optional) ---
	generator, err := plangen.NewAIClient(ctx)
	if err != nil {
		logger.Error("Failed to initialize itinerary generator", slog.Any("error", err))
		os.Exit(1)
	}
	if !generator.Enabled() {
		logger.Info("Itinerary generator disabled: GOOGLE_GEMINI_API_KEY not set")
	}

	// --- Dependency Injection ---
	extractionService := extraction.NewService(resolver, generator, cfg.Geocoder.CacheTTL, logger)
	extractionHandler := extraction.NewHandler(extractionService, logger)

	// --- Router Setup ---
	routerConfig := &api.Config{
		ExtractionHandler: extractionHandler,
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
