package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/pkg/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache directions responses (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.01 ~ 1.1km).
	// Points within the same grid cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides route candidates with caching. Cached responses keep
// their original route identities, so a cache hit is the same candidate,
// not a new one.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedDirections
}

type cachedDirections struct {
	response  *DirectionsResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1.1km at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedDirections),
	}
}

// GetDirections returns route candidates between two points.
// Uses cached data if available and not expired.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	if err := validateCoordinate(req.Origin); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := validateCoordinate(req.Destination); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for directions")
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetchDirections(ctx, req, cacheKey)
}

// fetchDirections fetches candidates from the provider and updates the cache.
func (s *Service) fetchDirections(ctx context.Context, req DirectionsRequest, cacheKey string) (*DirectionsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.response, nil
	}

	s.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Str("profile", string(req.Profile)).
		Str("provider", s.provider.Name()).
		Msg("fetching directions from provider")

	resp, err := s.provider.GetDirections(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Str("profile", string(req.Profile)).
			Msg("failed to fetch directions")

		// Stale-if-error: a previously fetched candidate set is better
		// than no route mid-ride.
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale directions due to provider error")
				return cached.response, nil
			}
		}

		return nil, err
	}

	// Every candidate gets its identity exactly once, here, at creation.
	for i := range resp.Routes {
		if resp.Routes[i].ID == "" {
			resp.Routes[i].ID = NewRouteID()
		}
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedDirections{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Int("route_count", len(resp.Routes)).
		Msg("cached directions response")

	return resp, nil
}

// cacheKey generates a cache key using grid-based quantization of origin
// and destination. Format: {profile}:{gridOriginLat},{gridOriginLon}:{gridDestLat},{gridDestLon}.
func (s *Service) cacheKey(req DirectionsRequest) string {
	gridOriginLat := math.Floor(req.Origin.Lat/s.cacheGridSize) * s.cacheGridSize
	gridOriginLon := math.Floor(req.Origin.Lon/s.cacheGridSize) * s.cacheGridSize
	gridDestLat := math.Floor(req.Destination.Lat/s.cacheGridSize) * s.cacheGridSize
	gridDestLon := math.Floor(req.Destination.Lon/s.cacheGridSize) * s.cacheGridSize

	return fmt.Sprintf("%s:%.2f,%.2f:%.2f,%.2f",
		req.Profile,
		gridOriginLat, gridOriginLon,
		gridDestLat, gridDestLon,
	)
}

// InvalidateCache clears all cached directions.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedDirections)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// validateCoordinate checks if a coordinate is within valid ranges.
func validateCoordinate(c geo.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}
