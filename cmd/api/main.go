// Package main provides the entrypoint for the SkateRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/api"
	"github.com/skateroute/skateroute/internal/api/middleware"
	"github.com/skateroute/skateroute/internal/auth"
	"github.com/skateroute/skateroute/internal/database"
	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/provider/resilience"
	"github.com/skateroute/skateroute/internal/ride"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/routing/openrouteservice"
	"github.com/skateroute/skateroute/internal/scoring"
	"github.com/skateroute/skateroute/internal/segments"
	"github.com/skateroute/skateroute/internal/steps"
	"github.com/skateroute/skateroute/internal/tags"
	"github.com/skateroute/skateroute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skateroute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkateRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize auth service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	authService := auth.NewService(auth.ServiceConfig{
		SigningKey: jwtSigningKey,
	})
	log.Info().Msg("auth service initialized")

	// Initialize segment store backed by Postgres, warmed from the
	// persisted aggregates.
	segmentRepo := segments.NewPostgresRepository(pool)
	segmentStore := segments.NewStore(segments.StoreConfig{
		Repository: segmentRepo,
	})
	if err := segmentStore.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load segment aggregates")
	}
	log.Info().
		Int("aggregates", segmentStore.Len()).
		Msg("segment store initialized")

	// Initialize directions provider. The resilient client is shared
	// with the ops handler so readiness reflects the breaker state.
	orsClient := resilience.NewClient(resilience.DefaultClientConfig(openrouteservice.ProviderName))

	orsProvider := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:     os.Getenv("ORS_API_KEY"),
		BaseURL:    os.Getenv("ORS_BASE_URL"),
		HTTPClient: orsClient,
		Logger:     log,
	})

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: orsProvider,
		Logger:   log,
	})
	log.Info().Msg("routing service initialized")

	// Initialize surface tag and elevation providers
	tagsProvider := tags.NewClient(tags.ClientConfig{
		BaseURL: os.Getenv("TAGS_BASE_URL"),
		APIKey:  os.Getenv("TAGS_API_KEY"),
		Logger:  log,
	})
	tagsService := tags.NewService(tags.ServiceConfig{
		Provider: tagsProvider,
		Logger:   log,
	})

	elevationSampler := elevation.NewClient(elevation.ClientConfig{
		BaseURL: os.Getenv("ELEVATION_BASE_URL"),
		Logger:  log,
	})
	elevationService := elevation.NewService(elevation.ServiceConfig{
		Sampler: elevationSampler,
		Logger:  log,
	})
	log.Info().Msg("tag and elevation services initialized")

	// Initialize scoring pipeline
	stepBuilder := steps.NewBuilder(steps.BuilderConfig{
		Tags:   tagsService,
		Logger: log,
	})
	scorer := scoring.NewScorer(scoring.ScorerConfig{
		Logger: log,
	})

	// Initialize ride manager for live map matching
	rideManager := ride.NewManager(ride.ManagerConfig{
		Store:  segmentStore,
		Logger: log,
	})
	log.Info().Msg("ride manager initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      serviceName,
		Metrics:          metrics,
		AuthService:      authService,
		RoutingService:   routingService,
		ElevationService: elevationService,
		StepBuilder:      stepBuilder,
		Scorer:           scorer,
		SegmentStore:     segmentStore,
		RideManager:      rideManager,
		Breaker:          orsClient,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	// Persist learned aggregates before exit
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := segmentStore.Flush(flushCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush segment aggregates")
	}

	log.Info().Msg("server stopped")
}
