package matching

import (
	"math"
	"testing"

	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
)

// testRoute builds a two-step route: 300 m heading north, then 200 m
// heading east.
func testRoute() *routing.Route {
	origin := geo.NewCoordinate(37.7749, -122.4194)

	northPoints := []geo.Coordinate{origin}
	for i := 1; i <= 3; i++ {
		northPoints = append(northPoints, geo.DestinationPoint(origin, 0, float64(i)*100))
	}

	corner := northPoints[len(northPoints)-1]
	eastPoints := []geo.Coordinate{corner}
	for i := 1; i <= 2; i++ {
		eastPoints = append(eastPoints, geo.DestinationPoint(corner, 90, float64(i)*100))
	}

	return &routing.Route{
		ID: routing.NewRouteID(),
		Steps: []routing.Step{
			{Points: northPoints, DistanceMeters: 300},
			{Points: eastPoints, DistanceMeters: 200},
		},
	}
}

func TestMatcher_SnapsToNearestStep(t *testing.T) {
	m := NewMatcher(testRoute(), MatcherConfig{})
	origin := geo.NewCoordinate(37.7749, -122.4194)

	// 150 m up the north leg, 10 m off to the east.
	onLeg := geo.DestinationPoint(origin, 0, 150)
	query := geo.DestinationPoint(onLeg, 90, 10)

	result, ok := m.Match(query)
	if !ok {
		t.Fatal("expected a match inside the snap radius")
	}
	if result.StepIndex != 0 {
		t.Fatalf("expected step 0, got %d", result.StepIndex)
	}
	if math.Abs(result.DistanceMeters-10) > 1 {
		t.Errorf("expected snap distance ~10m, got %f", result.DistanceMeters)
	}
	if math.Abs(result.ProgressInStep-0.5) > 0.02 {
		t.Errorf("expected progress ~0.5, got %f", result.ProgressInStep)
	}
	if math.Abs(result.BearingDegrees-0) > 2 && math.Abs(result.BearingDegrees-360) > 2 {
		t.Errorf("expected northbound bearing, got %f", result.BearingDegrees)
	}
}

func TestMatcher_ConfidenceFallsOffLinearly(t *testing.T) {
	m := NewMatcher(testRoute(), MatcherConfig{SnapRadiusMeters: 45})
	origin := geo.NewCoordinate(37.7749, -122.4194)
	onLeg := geo.DestinationPoint(origin, 0, 150)

	near, ok := m.Match(geo.DestinationPoint(onLeg, 90, 5))
	if !ok {
		t.Fatal("expected match at 5m")
	}
	far, ok := m.Match(geo.DestinationPoint(onLeg, 90, 40))
	if !ok {
		t.Fatal("expected match at 40m")
	}

	if math.Abs(near.Confidence-(1-5.0/45)) > 0.02 {
		t.Errorf("expected confidence ~%f at 5m, got %f", 1-5.0/45, near.Confidence)
	}
	if math.Abs(far.Confidence-(1-40.0/45)) > 0.02 {
		t.Errorf("expected confidence ~%f at 40m, got %f", 1-40.0/45, far.Confidence)
	}
	if far.Confidence >= near.Confidence {
		t.Error("confidence must decrease with snap distance")
	}
}

func TestMatcher_NoMatchBeyondSnapRadius(t *testing.T) {
	m := NewMatcher(testRoute(), MatcherConfig{SnapRadiusMeters: 45})
	origin := geo.NewCoordinate(37.7749, -122.4194)
	onLeg := geo.DestinationPoint(origin, 0, 150)

	if _, ok := m.Match(geo.DestinationPoint(onLeg, 90, 80)); ok {
		t.Error("expected no match 80m off route")
	}
}

func TestMatcher_SkipsDegenerateSteps(t *testing.T) {
	origin := geo.NewCoordinate(37.7749, -122.4194)
	route := &routing.Route{
		ID: routing.NewRouteID(),
		Steps: []routing.Step{
			{Points: []geo.Coordinate{origin}}, // single point, no geometry
			{Points: []geo.Coordinate{origin, geo.DestinationPoint(origin, 0, 100)}},
		},
	}

	m := NewMatcher(route, MatcherConfig{})
	result, ok := m.Match(geo.DestinationPoint(origin, 0, 50))
	if !ok {
		t.Fatal("expected a match on the second step")
	}
	if result.StepIndex != 1 {
		t.Errorf("expected step 1, got %d", result.StepIndex)
	}
}

func TestMatcher_EmptyRouteNeverMatches(t *testing.T) {
	m := NewMatcher(&routing.Route{ID: routing.NewRouteID()}, MatcherConfig{})
	if _, ok := m.Match(geo.NewCoordinate(37.7749, -122.4194)); ok {
		t.Error("expected no match on a route without steps")
	}

	nilRoute := NewMatcher(nil, MatcherConfig{})
	if _, ok := nilRoute.Match(geo.NewCoordinate(37.7749, -122.4194)); ok {
		t.Error("expected no match on a nil route")
	}
}

func TestMatcher_ReusesPreviousStepWithoutSearching(t *testing.T) {
	m := NewMatcher(testRoute(), MatcherConfig{})
	origin := geo.NewCoordinate(37.7749, -122.4194)

	// A run of positions up the same leg must hit the index once.
	for _, along := range []float64{20, 60, 110, 170, 230} {
		p := geo.DestinationPoint(geo.DestinationPoint(origin, 0, along), 90, 4)
		if _, ok := m.Match(p); !ok {
			t.Fatalf("expected match at %fm along", along)
		}
	}
	if got := m.FullSearches(); got != 1 {
		t.Fatalf("expected 1 full search for a run on one step, got %d", got)
	}

	// Moving onto the east leg leaves the cached step and searches again.
	corner := geo.DestinationPoint(origin, 0, 300)
	onEast := geo.DestinationPoint(corner, 90, 150)
	result, ok := m.Match(geo.DestinationPoint(onEast, 0, 4))
	if !ok {
		t.Fatal("expected match on the east leg")
	}
	if result.StepIndex != 1 {
		t.Fatalf("expected step 1, got %d", result.StepIndex)
	}
	if got := m.FullSearches(); got != 2 {
		t.Fatalf("expected a second full search after the step change, got %d", got)
	}
}
