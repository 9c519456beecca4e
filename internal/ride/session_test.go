package ride

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/segments"
	"github.com/skateroute/skateroute/pkg/geo"
)

var testOrigin = geo.NewCoordinate(37.7749, -122.4194)

// northRoute is a single 300 m step heading north.
func northRoute() *routing.Route {
	points := []geo.Coordinate{testOrigin}
	for i := 1; i <= 3; i++ {
		points = append(points, geo.DestinationPoint(testOrigin, 0, float64(i)*100))
	}
	return &routing.Route{
		ID:    routing.NewRouteID(),
		Steps: []routing.Step{{Points: points, DistanceMeters: 300}},
	}
}

func fixAt(alongMeters, offMeters, heading float64, at time.Time) PositionFix {
	p := geo.DestinationPoint(testOrigin, 0, alongMeters)
	if offMeters != 0 {
		p = geo.DestinationPoint(p, 90, offMeters)
	}
	return PositionFix{Point: p, HeadingDegrees: heading, Timestamp: at}
}

func TestSession_RoughnessWritesToMatchedStep(t *testing.T) {
	store := segments.NewStore(segments.StoreConfig{})
	route := northRoute()
	s := NewSession("ride_test", route, SessionConfig{Store: store})

	s.handleRoughness(RoughnessSample{
		Point: geo.DestinationPoint(testOrigin, 0, 150),
		RMS:   1.2,
	})

	key := segments.Key{RouteID: route.ID, StepIndex: 0}
	agg, ok := store.Read(key)
	if !ok {
		t.Fatal("expected an aggregate for the matched step")
	}
	if agg.MeanRoughness != 1.2 {
		t.Errorf("expected mean 1.2, got %f", agg.MeanRoughness)
	}
}

func TestSession_OffRouteRoughnessDropped(t *testing.T) {
	store := segments.NewStore(segments.StoreConfig{})
	s := NewSession("ride_test", northRoute(), SessionConfig{Store: store})

	s.handleRoughness(RoughnessSample{
		Point: geo.DestinationPoint(testOrigin, 90, 500),
		RMS:   3.0,
	})

	if store.Len() != 0 {
		t.Errorf("off-route sample must not reach the store, got %d entries", store.Len())
	}
}

func TestSession_HeadingBreachSignalsImmediately(t *testing.T) {
	s := NewSession("ride_test", northRoute(), SessionConfig{})

	// On route, but riding due east against a northbound edge.
	s.handleFix(fixAt(150, 2, 90, time.Now()))

	select {
	case signal := <-s.Reroutes():
		if signal.HeadingDeltaDegrees < 50 {
			t.Errorf("expected heading delta above threshold, got %f", signal.HeadingDeltaDegrees)
		}
	default:
		t.Fatal("expected a reroute signal on heading breach")
	}
}

func TestSession_DistanceBreachNeedsDwell(t *testing.T) {
	s := NewSession("ride_test", northRoute(), SessionConfig{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 30 m off route, heading aligned: first observation starts the clock.
	s.handleFix(fixAt(150, 30, 0, base))
	select {
	case <-s.Reroutes():
		t.Fatal("reroute must not fire before the dwell elapses")
	default:
	}

	s.handleFix(fixAt(150, 30, 0, base.Add(6*time.Second)))
	select {
	case signal := <-s.Reroutes():
		if signal.OffRouteMeters < 25 {
			t.Errorf("expected off-route distance above threshold, got %f", signal.OffRouteMeters)
		}
	default:
		t.Fatal("expected a reroute signal after sustained divergence")
	}
}

func TestSession_RejoiningResetsDwell(t *testing.T) {
	s := NewSession("ride_test", northRoute(), SessionConfig{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.handleFix(fixAt(150, 30, 0, base))
	s.handleFix(fixAt(160, 2, 0, base.Add(3*time.Second))) // back on route
	s.handleFix(fixAt(170, 30, 0, base.Add(6*time.Second)))

	select {
	case <-s.Reroutes():
		t.Fatal("dwell must restart after the rider rejoins the route")
	default:
	}
}

func TestSession_SwapRouteDropsQueuedObservations(t *testing.T) {
	s := NewSession("ride_test", northRoute(), SessionConfig{})

	for i := 0; i < 5; i++ {
		_ = s.PushFix(fixAt(float64(i)*20, 0, 0, time.Now()))
		_ = s.PushRoughness(RoughnessSample{Point: testOrigin, RMS: 1})
	}

	s.SwapRoute(northRoute())

	if len(s.fixes) != 0 || len(s.roughness) != 0 {
		t.Errorf("expected empty queues after swap, got %d fixes and %d samples",
			len(s.fixes), len(s.roughness))
	}
	if _, ok := s.LastMatch(); ok {
		t.Error("last match belongs to the old route and must be cleared")
	}
}

func TestSession_QueueShedsOldestWhenFull(t *testing.T) {
	s := NewSession("ride_test", northRoute(), SessionConfig{})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < queueCapacity+5; i++ {
		_ = s.PushFix(fixAt(0, 0, 0, base.Add(time.Duration(i)*time.Second)))
	}

	if len(s.fixes) != queueCapacity {
		t.Fatalf("expected queue at capacity %d, got %d", queueCapacity, len(s.fixes))
	}

	// The head of the queue is no longer the first fix pushed.
	head := <-s.fixes
	if head.Timestamp.Equal(base) {
		t.Error("expected the oldest fix to have been shed")
	}
}

func TestSession_RunProcessesPushedObservations(t *testing.T) {
	store := segments.NewStore(segments.StoreConfig{})
	route := northRoute()
	s := NewSession("ride_test", route, SessionConfig{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	_ = s.PushFix(fixAt(150, 2, 0, time.Now()))
	_ = s.PushRoughness(RoughnessSample{Point: geo.DestinationPoint(testOrigin, 0, 150), RMS: 0.8})

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := s.LastMatch(); ok && store.Len() > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("consumer loops did not process observations in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := s.PushFix(fixAt(0, 0, 0, time.Now())); !errors.Is(err, ErrRideClosed) {
		t.Errorf("expected ErrRideClosed after Run returns, got %v", err)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(ManagerConfig{Store: segments.NewStore(segments.StoreConfig{})})

	session, err := m.StartRide(context.Background(), northRoute())
	if err != nil {
		t.Fatal(err)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("expected 1 active ride, got %d", m.ActiveCount())
	}

	got, err := m.Get(session.ID())
	if err != nil || got != session {
		t.Fatalf("Get(%q) = %v, %v", session.ID(), got, err)
	}

	if err := m.EndRide(session.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(session.ID()); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound after EndRide, got %v", err)
	}
	if err := m.EndRide(session.ID()); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound for a second EndRide, got %v", err)
	}
}

func TestManager_RejectsEmptyRoute(t *testing.T) {
	m := NewManager(ManagerConfig{})

	if _, err := m.StartRide(context.Background(), &routing.Route{ID: routing.NewRouteID()}); err == nil {
		t.Error("expected an error for a route without steps")
	}
}
