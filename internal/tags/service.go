package tags

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/routing"
)

// ServiceConfig holds configuration for the tag service.
type ServiceConfig struct {
	// Provider is the attribute provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service wraps an attribute provider with a per-(route, step) cache.
// A tag is fetched at most once per route; provider failures resolve to
// ZeroTags and are cached so one bad step never aborts a route build and
// never re-fetches.
type Service struct {
	provider Provider
	logger   zerolog.Logger

	mu    sync.RWMutex
	cache map[cacheKey]StepTags
}

type cacheKey struct {
	routeID   routing.RouteID
	stepIndex int
}

// NewService creates a new tag service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		cache:    make(map[cacheKey]StepTags),
	}
}

// Tags returns the attributes for one step, fetching from the provider on
// first use and serving the cache afterwards. Never returns an error:
// provider failures fail soft to ZeroTags.
func (s *Service) Tags(ctx context.Context, routeID routing.RouteID, stepIndex int) StepTags {
	key := cacheKey{routeID: routeID, stepIndex: stepIndex}

	s.mu.RLock()
	if t, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	t, err := s.provider.Tags(ctx, routeID, stepIndex)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("route_id", string(routeID)).
			Int("step_index", stepIndex).
			Str("provider", s.provider.Name()).
			Msg("tag lookup failed, using zero tags")
		t = ZeroTags()
	}

	s.mu.Lock()
	// First writer wins so concurrent fetches of the same step stay consistent.
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached
	}
	s.cache[key] = t
	s.mu.Unlock()

	return t
}

// DropRoute evicts all cached tags for a route. Called when a route is
// abandoned so the cache does not grow without bound across reroutes.
func (s *Service) DropRoute(routeID routing.RouteID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if key.routeID == routeID {
			delete(s.cache, key)
		}
	}
}

// CachedCount returns the number of cached tag entries. Used by tests and
// the ops endpoint.
func (s *Service) CachedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
