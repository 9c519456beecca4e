package steps

import (
	"context"
	"math"
	"testing"

	"github.com/skateroute/skateroute/internal/elevation"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/tags"
	"github.com/skateroute/skateroute/pkg/geo"
)

// stubTags serves fixed tags per step index and counts lookups.
type stubTags struct {
	byIndex map[int]tags.StepTags
	calls   int
}

func (s *stubTags) Tags(_ context.Context, _ routing.RouteID, stepIndex int) tags.StepTags {
	s.calls++
	return s.byIndex[stepIndex]
}

// stepAlong builds a step of the given length from start along a bearing.
func stepAlong(start geo.Coordinate, bearingDeg, lengthMeters float64) routing.Step {
	end := geo.DestinationPoint(start, bearingDeg, lengthMeters)
	return routing.Step{
		Points:         []geo.Coordinate{start, end},
		DistanceMeters: lengthMeters,
	}
}

// bendRoute builds a two-step route where the second step turns by
// turnDeg relative to the first.
func bendRoute(turnDeg float64) *routing.Route {
	origin := geo.NewCoordinate(52.37, 4.90)
	first := stepAlong(origin, 0, 200)
	second := stepAlong(first.Points[1], turnDeg, 200)
	return &routing.Route{
		ID:    routing.NewRouteID(),
		Steps: []routing.Step{first, second},
	}
}

// freshless returns tags with stale data so the freshness nudge stays out
// of the way of what a test is actually asserting.
func freshless(t tags.StepTags) tags.StepTags {
	t.FreshnessDays = 30
	return t
}

func TestTurnPenaltyBoundaries(t *testing.T) {
	tests := []struct {
		angleDiff float64
		expected  float64
	}{
		{0, 0},
		{49.99, 0},
		{50, 0.05},
		{69.99, 0.05},
		{70, 0.12},
		{89.99, 0.12},
		{90, 0.20},
		{109.99, 0.20},
		{110, 0.30},
		{180, 0.30},
	}

	for _, tt := range tests {
		if got := turnPenalty(tt.angleDiff); got != tt.expected {
			t.Errorf("turnPenalty(%f) = %f, expected %f", tt.angleDiff, got, tt.expected)
		}
	}
}

func TestBuilder_TurnPenaltyFromGeometry(t *testing.T) {
	tests := []struct {
		turnDeg  float64
		expected float64
	}{
		{0, 0},
		{30, 0},
		{60, 0.05},
		{80, 0.12},
		{100, 0.20},
		{130, 0.30},
	}

	for _, tt := range tests {
		src := &stubTags{byIndex: map[int]tags.StepTags{}}
		builder := NewBuilder(BuilderConfig{Tags: src})

		contexts, err := builder.Build(context.Background(), bendRoute(tt.turnDeg), nil)
		if err != nil {
			t.Fatalf("turn %f: unexpected error: %v", tt.turnDeg, err)
		}

		if contexts[0].TurnPenalty != 0 {
			t.Errorf("first step must have zero turn penalty, got %f", contexts[0].TurnPenalty)
		}
		if math.Abs(contexts[1].TurnPenalty-tt.expected) > 1e-9 {
			t.Errorf("turn %f deg: expected penalty %f, got %f", tt.turnDeg, tt.expected, contexts[1].TurnPenalty)
		}
	}
}

func TestBuilder_IndexAlignment(t *testing.T) {
	origin := geo.NewCoordinate(52.37, 4.90)
	route := &routing.Route{
		ID: routing.NewRouteID(),
		Steps: []routing.Step{
			stepAlong(origin, 0, 100),
			{Points: []geo.Coordinate{origin}, DistanceMeters: 0}, // degenerate
			stepAlong(origin, 0, 100),
		},
	}
	builder := NewBuilder(BuilderConfig{Tags: &stubTags{byIndex: map[int]tags.StepTags{}}})

	contexts, err := builder.Build(context.Background(), route, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(contexts) != len(route.Steps) {
		t.Fatalf("expected %d contexts, got %d", len(route.Steps), len(contexts))
	}
	for i, sc := range contexts {
		if sc.StepIndex != i {
			t.Errorf("context %d has step index %d", i, sc.StepIndex)
		}
	}
	if !contexts[1].Degenerate {
		t.Error("expected degenerate context for zero-distance step")
	}
	if contexts[1].TurnPenalty != 0 || contexts[1].LaneBonus != 0 || contexts[1].HazardPenalty != 0 {
		t.Error("degenerate context must carry zero adjustments")
	}
}

func TestBuilder_LaneBonus(t *testing.T) {
	tests := []struct {
		name     string
		tags     tags.StepTags
		expected float64
	}{
		{"protected lane", freshless(tags.StepTags{ProtectedLane: true, Lighting: tags.LightingGood}), 0.30},
		{"painted lane", freshless(tags.StepTags{PaintedLane: true, Lighting: tags.LightingGood}), 0.12},
		{"protected beats painted", freshless(tags.StepTags{ProtectedLane: true, PaintedLane: true, Lighting: tags.LightingGood}), 0.30},
		{"no lane", freshless(tags.StepTags{Lighting: tags.LightingGood}), 0},
		{"poor lighting", freshless(tags.StepTags{ProtectedLane: true, Lighting: tags.LightingPoor}), 0.25},
		{"unlit", freshless(tags.StepTags{ProtectedLane: true, Lighting: tags.LightingNone}), 0.25},
		{"fresh data nudges bonus down", tags.StepTags{ProtectedLane: true, Lighting: tags.LightingGood, FreshnessDays: 1}, 0.27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubTags{byIndex: map[int]tags.StepTags{0: tt.tags, 1: tt.tags}}
			builder := NewBuilder(BuilderConfig{Tags: src})

			contexts, err := builder.Build(context.Background(), bendRoute(0), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(contexts[0].LaneBonus-tt.expected) > 1e-9 {
				t.Errorf("expected lane bonus %f, got %f", tt.expected, contexts[0].LaneBonus)
			}
		})
	}
}

func TestBuilder_HazardPenalty(t *testing.T) {
	tests := []struct {
		name     string
		tags     tags.StepTags
		expected float64
	}{
		{"clean step", freshless(tags.StepTags{Lighting: tags.LightingGood}), 0},
		{"rough surface", freshless(tags.StepTags{RoughSurface: true, Lighting: tags.LightingGood}), 0.15},
		{"two hazards", freshless(tags.StepTags{HazardCount: 2, Lighting: tags.LightingGood}), 0.16},
		{"hazard count capped", freshless(tags.StepTags{HazardCount: 10, Lighting: tags.LightingGood}), 0.40},
		{"poor lighting adds", freshless(tags.StepTags{RoughSurface: true, Lighting: tags.LightingPoor}), 0.20},
		{"fresh data nudges penalty down", tags.StepTags{RoughSurface: true, Lighting: tags.LightingGood, FreshnessDays: 0}, 0.12},
		{
			"everything at once",
			freshless(tags.StepTags{RoughSurface: true, HazardCount: 6, Lighting: tags.LightingNone}),
			0.15 + 0.40 + 0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubTags{byIndex: map[int]tags.StepTags{0: tt.tags, 1: tt.tags}}
			builder := NewBuilder(BuilderConfig{Tags: src})

			contexts, err := builder.Build(context.Background(), bendRoute(0), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(contexts[0].HazardPenalty-tt.expected) > 1e-9 {
				t.Errorf("expected hazard penalty %f, got %f", tt.expected, contexts[0].HazardPenalty)
			}
		})
	}
}

func TestBuilder_AppliesGradeSummary(t *testing.T) {
	route := bendRoute(0)
	summary := elevation.NewSummaryFromGrades(
		[]float64{-9, 1},
		[]float64{route.Steps[0].DistanceMeters, route.Steps[1].DistanceMeters},
	)
	builder := NewBuilder(BuilderConfig{Tags: &stubTags{byIndex: map[int]tags.StepTags{}}})

	contexts, err := builder.Build(context.Background(), route, summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if contexts[0].GradePercent != -9 {
		t.Errorf("expected grade -9, got %f", contexts[0].GradePercent)
	}
	if !contexts[0].BrakingZone {
		t.Error("expected braking zone on step 0")
	}
	if contexts[1].BrakingZone {
		t.Error("step 1 must not be a braking zone")
	}
}

func TestBuilder_SummaryMismatchFailsLoudly(t *testing.T) {
	route := bendRoute(0)
	summary := elevation.NewSummaryFromGrades([]float64{0}, []float64{100})
	builder := NewBuilder(BuilderConfig{Tags: &stubTags{byIndex: map[int]tags.StepTags{}}})

	if _, err := builder.Build(context.Background(), route, summary); err == nil {
		t.Fatal("expected error for step count mismatch")
	}
}

func TestBuilder_CancelledContextAbandonsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(BuilderConfig{Tags: &stubTags{byIndex: map[int]tags.StepTags{}}})

	_, err := builder.Build(ctx, bendRoute(0), nil)
	if err == nil {
		t.Fatal("expected context error")
	}
}
