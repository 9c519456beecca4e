package ride

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/skateroute/skateroute/internal/matching"
	"github.com/skateroute/skateroute/internal/reroute"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/segments"
)

// queueCapacity bounds each ingest channel. A stalled consumer sheds the
// oldest observations first: the newest fix is always the most useful one.
const queueCapacity = 20

// rerouteBuffer bounds the outbound signal channel.
const rerouteBuffer = 4

// SessionConfig holds configuration for a ride session.
type SessionConfig struct {
	// Store receives roughness aggregates keyed by matched step.
	Store *segments.Store

	// Policy decides when divergence becomes a reroute. Zero value means
	// reroute.DefaultPolicy.
	Policy reroute.Policy

	// SnapRadiusMeters is passed through to the matcher. Zero means the
	// matcher default.
	SnapRadiusMeters float64

	// Logger for session operations.
	Logger zerolog.Logger
}

// Session is one live ride. Producers push fixes and roughness samples
// through bounded queues; two consumer goroutines drain them against the
// current route. The route can be swapped mid-ride, which drops any
// queued observations matched against the old geometry.
type Session struct {
	id     string
	store  *segments.Store
	policy reroute.Policy
	logger zerolog.Logger

	snapRadius float64

	fixes     chan PositionFix
	roughness chan RoughnessSample
	reroutes  chan RerouteSignal

	mu         sync.Mutex
	routeID    routing.RouteID
	matcher    *matching.Matcher
	generation uint64
	tracker    reroute.Tracker
	lastMatch  *matching.MatchResult
	closed     bool
}

// NewSession creates a session for the given route.
func NewSession(id string, route *routing.Route, cfg SessionConfig) *Session {
	if cfg.Policy == (reroute.Policy{}) {
		cfg.Policy = reroute.DefaultPolicy()
	}

	logger := cfg.Logger.With().Str("ride_id", id).Logger()

	s := &Session{
		id:         id,
		store:      cfg.Store,
		policy:     cfg.Policy,
		logger:     logger,
		snapRadius: cfg.SnapRadiusMeters,
		fixes:      make(chan PositionFix, queueCapacity),
		roughness:  make(chan RoughnessSample, queueCapacity),
		reroutes:   make(chan RerouteSignal, rerouteBuffer),
	}
	s.installRoute(route)
	return s
}

// ID returns the ride identifier.
func (s *Session) ID() string {
	return s.id
}

// Run drains both queues until ctx is cancelled. It always returns
// ctx.Err's cause via errgroup semantics; a session has no failure mode
// of its own.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.fixLoop(ctx) })
	g.Go(func() error { return s.roughnessLoop(ctx) })

	err := g.Wait()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.logger.Info().Msg("ride session stopped")
	return err
}

// PushFix enqueues a position fix, dropping the oldest queued fix when
// the queue is full.
func (s *Session) PushFix(fix PositionFix) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrRideClosed
	}

	enqueueDropOldest(s.fixes, fix)
	return nil
}

// PushRoughness enqueues a roughness sample, dropping the oldest queued
// sample when the queue is full.
func (s *Session) PushRoughness(sample RoughnessSample) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrRideClosed
	}

	enqueueDropOldest(s.roughness, sample)
	return nil
}

// SwapRoute replaces the active route, e.g. after a reroute. Queued
// observations were taken against the old geometry and are discarded;
// the off-route dwell clock restarts.
func (s *Session) SwapRoute(route *routing.Route) {
	s.mu.Lock()
	s.installRouteLocked(route)
	s.mu.Unlock()

	drain(s.fixes)
	drain(s.roughness)

	s.logger.Info().Str("route_id", string(route.ID)).Msg("ride route swapped")
}

// Reroutes returns the channel of reroute signals. Signals are dropped,
// not blocked on, when the receiver lags.
func (s *Session) Reroutes() <-chan RerouteSignal {
	return s.reroutes
}

// LastMatch returns the most recent successful match, if any.
func (s *Session) LastMatch() (matching.MatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastMatch == nil {
		return matching.MatchResult{}, false
	}
	return *s.lastMatch, true
}

// RouteID returns the ID of the route currently being ridden.
func (s *Session) RouteID() routing.RouteID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routeID
}

func (s *Session) installRoute(route *routing.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installRouteLocked(route)
}

func (s *Session) installRouteLocked(route *routing.Route) {
	s.routeID = route.ID
	s.matcher = matching.NewMatcher(route, matching.MatcherConfig{
		SnapRadiusMeters: s.snapRadius,
		Logger:           s.logger,
	})
	s.generation++
	s.tracker = reroute.Tracker{}
	s.lastMatch = nil
}

func (s *Session) fixLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix := <-s.fixes:
			s.handleFix(fix)
		}
	}
}

func (s *Session) roughnessLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample := <-s.roughness:
			s.handleRoughness(sample)
		}
	}
}

func (s *Session) handleFix(fix PositionFix) {
	s.mu.Lock()
	matcher := s.matcher
	routeID := s.routeID
	s.mu.Unlock()

	result, ok := matcher.Match(fix.Point)

	// Beyond the snap radius there is no distance to report, only that
	// the rider is gone.
	dist := math.Inf(1)
	headingDelta := 0.0
	if ok {
		dist = result.DistanceMeters
		headingDelta = headingDeltaDegrees(fix.HeadingDegrees, result.BearingDegrees)
	}

	offRoute := !ok || dist > s.policy.MaxOffRouteMeters

	s.mu.Lock()
	dwell := s.tracker.Observe(offRoute, fix.Timestamp)
	if ok {
		s.lastMatch = &result
	}
	s.mu.Unlock()

	if !s.policy.ShouldReroute(dist, headingDelta, dwell) {
		return
	}

	signal := RerouteSignal{
		RouteID:             routeID,
		Position:            fix.Point,
		OffRouteMeters:      dist,
		HeadingDeltaDegrees: headingDelta,
	}

	select {
	case s.reroutes <- signal:
		s.logger.Warn().
			Float64("off_route_m", dist).
			Float64("heading_delta_deg", headingDelta).
			Dur("dwell", dwell).
			Msg("reroute requested")
	default:
		// Receiver already has an unserved signal; one is enough.
	}
}

func (s *Session) handleRoughness(sample RoughnessSample) {
	s.mu.Lock()
	matcher := s.matcher
	routeID := s.routeID
	generation := s.generation
	s.mu.Unlock()

	result, ok := matcher.Match(sample.Point)
	if !ok || s.store == nil {
		return
	}

	// A swap between match and write would attribute the sample to a step
	// index of the old route. Re-check the generation under the lock and
	// drop the stale write.
	s.mu.Lock()
	stale := generation != s.generation
	s.mu.Unlock()
	if stale {
		return
	}

	key := segments.Key{RouteID: routeID, StepIndex: result.StepIndex}
	s.store.Write(key, sample.RMS, result.Confidence)
}

// headingDeltaDegrees returns the smallest absolute difference between
// two headings, in [0, 180].
func headingDeltaDegrees(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// enqueueDropOldest offers v to ch, evicting the oldest queued element
// when full. A concurrent consumer can make both sends race; losing the
// new element in that window is acceptable shedding.
func enqueueDropOldest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- v:
	default:
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
