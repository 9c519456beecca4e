package tags

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/skateroute/skateroute/internal/routing"
)

// mockProvider is a mock attribute provider for testing.
type mockProvider struct {
	tags      map[int]StepTags
	failAt    map[int]bool
	callCount atomic.Int32
}

func (m *mockProvider) Tags(_ context.Context, _ routing.RouteID, stepIndex int) (StepTags, error) {
	m.callCount.Add(1)
	if m.failAt[stepIndex] {
		return StepTags{}, errors.New("backend down")
	}
	return m.tags[stepIndex], nil
}

func (m *mockProvider) Name() string { return "mock" }

func TestService_Tags_CachesPerStep(t *testing.T) {
	provider := &mockProvider{
		tags: map[int]StepTags{
			0: {ProtectedLane: true, Lighting: LightingGood},
		},
	}
	svc := NewService(ServiceConfig{Provider: provider})
	routeID := routing.NewRouteID()

	first := svc.Tags(context.Background(), routeID, 0)
	second := svc.Tags(context.Background(), routeID, 0)

	if !first.ProtectedLane || !second.ProtectedLane {
		t.Error("expected protected lane from both calls")
	}
	if provider.callCount.Load() != 1 {
		t.Errorf("expected exactly 1 provider call, got %d", provider.callCount.Load())
	}
}

func TestService_Tags_FailSoft(t *testing.T) {
	provider := &mockProvider{
		tags:   map[int]StepTags{0: {PaintedLane: true}},
		failAt: map[int]bool{1: true},
	}
	svc := NewService(ServiceConfig{Provider: provider})
	routeID := routing.NewRouteID()

	good := svc.Tags(context.Background(), routeID, 0)
	if !good.PaintedLane {
		t.Error("expected painted lane for step 0")
	}

	// Step 1 fails: zero tags, no error, and the failure is cached.
	bad := svc.Tags(context.Background(), routeID, 1)
	if bad != ZeroTags() {
		t.Errorf("expected zero tags for failed step, got %+v", bad)
	}

	_ = svc.Tags(context.Background(), routeID, 1)
	if provider.callCount.Load() != 2 {
		t.Errorf("expected 2 provider calls (no re-fetch after failure), got %d", provider.callCount.Load())
	}
}

func TestService_Tags_ConcurrentAccess(t *testing.T) {
	provider := &mockProvider{
		tags: map[int]StepTags{0: {HazardCount: 2}},
	}
	svc := NewService(ServiceConfig{Provider: provider})
	routeID := routing.NewRouteID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.Tags(context.Background(), routeID, 0)
			if got.HazardCount != 2 {
				t.Errorf("expected hazard count 2, got %d", got.HazardCount)
			}
		}()
	}
	wg.Wait()
}

func TestService_DropRoute(t *testing.T) {
	provider := &mockProvider{tags: map[int]StepTags{0: {}, 1: {}}}
	svc := NewService(ServiceConfig{Provider: provider})

	keep := routing.NewRouteID()
	drop := routing.NewRouteID()

	svc.Tags(context.Background(), keep, 0)
	svc.Tags(context.Background(), drop, 0)
	svc.Tags(context.Background(), drop, 1)

	svc.DropRoute(drop)

	if got := svc.CachedCount(); got != 1 {
		t.Errorf("expected 1 cached entry after drop, got %d", got)
	}
}
