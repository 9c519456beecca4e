// Package api provides the HTTP API for SkateRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/api/handler"
	"github.com/skateroute/skateroute/internal/api/middleware"
	"github.com/skateroute/skateroute/internal/auth"
	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/ride"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/scoring"
	"github.com/skateroute/skateroute/internal/segments"
	"github.com/skateroute/skateroute/internal/steps"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	AuthService      *auth.Service
	RoutingService   *routing.Service
	ElevationService *elevation.Service
	StepBuilder      *steps.Builder
	Scorer           *scoring.Scorer
	SegmentStore     *segments.Store
	RideManager      *ride.Manager
	Breaker          handler.BreakerStater
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "skateroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Routing:   cfg.RoutingService,
		Breaker:   cfg.Breaker,
		Manager:   cfg.RideManager,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	routeHandler := handler.NewRouteHandler(handler.RouteHandlerConfig{
		Routing:   cfg.RoutingService,
		Elevation: cfg.ElevationService,
		Builder:   cfg.StepBuilder,
		Scorer:    cfg.Scorer,
		Store:     cfg.SegmentStore,
		Logger:    cfg.Logger,
	})
	rideHandler := handler.NewRideHandler(cfg.RideManager, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	scoringRateLimit := middleware.RateLimitByIP(middleware.ScoringRateLimit)   // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	ingestRateLimit := middleware.RateLimitByRider(middleware.IngestRateLimit)  // 600 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Token issuance (public) - standard rate limiting
		r.With(standardRateLimit).Post("/auth/token", authHandler.IssueToken)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Route scoring - fans out to the directions provider, strict rate limiting
		r.With(authMiddleware, scoringRateLimit).Post("/routes:score", routeHandler.ScoreRoutes)

		// Segment aggregates for map rendering
		r.With(authMiddleware, standardRateLimit).Get("/routes/{routeId}/segments", routeHandler.RouteSegments)

		// Live rides (authenticated)
		r.Route("/rides", func(r chi.Router) {
			r.Use(authMiddleware)

			r.With(standardRateLimit).Post("/", rideHandler.StartRide)

			r.Route("/{rideId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", rideHandler.GetState)
				r.With(standardRateLimit).Put("/route", rideHandler.SwapRoute)
				r.With(standardRateLimit).Delete("/", rideHandler.EndRide)

				// High-frequency device ingest
				r.With(ingestRateLimit).Post("/positions", rideHandler.PushPositions)
				r.With(ingestRateLimit).Post("/roughness", rideHandler.PushRoughness)
			})
		})
	})

	return r
}
