package segments

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/skateroute/skateroute/internal/routing"
)

func testKey(step int) Key {
	return Key{RouteID: "rt_test", StepIndex: step}
}

// fakeClock is an adjustable clock for decay tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestStore(clock *fakeClock) *Store {
	return NewStore(StoreConfig{Now: clock.Now})
}

func TestStore_FirstWriteDefinesMean(t *testing.T) {
	store := newTestStore(newFakeClock())

	store.Write(testKey(0), 1.8, 1.0)

	agg, ok := store.Read(testKey(0))
	if !ok {
		t.Fatal("expected aggregate after write")
	}
	if agg.MeanRoughness != 1.8 {
		t.Errorf("expected mean 1.8, got %f", agg.MeanRoughness)
	}
	if agg.SampleCount != 1 {
		t.Errorf("expected sample count 1, got %d", agg.SampleCount)
	}
}

func TestStore_EMAConverges(t *testing.T) {
	store := newTestStore(newFakeClock())
	key := testKey(0)

	store.Write(key, 0, 1.0)
	for i := 0; i < 200; i++ {
		store.Write(key, 2.0, 1.0)
	}

	agg, _ := store.Read(key)
	if agg.MeanRoughness < 1.9 || agg.MeanRoughness > 2.0 {
		t.Errorf("expected mean to converge toward 2.0, got %f", agg.MeanRoughness)
	}
	if agg.SampleCount != 201 {
		t.Errorf("expected 201 samples, got %d", agg.SampleCount)
	}
}

func TestStore_QualityWeightDampsUpdate(t *testing.T) {
	clock := newFakeClock()
	full := newTestStore(clock)
	damped := newTestStore(clock)
	key := testKey(0)

	full.Write(key, 1.0, 1.0)
	damped.Write(key, 1.0, 1.0)

	full.Write(key, 3.0, 1.0)
	damped.Write(key, 3.0, 0.2)

	fullAgg, _ := full.Read(key)
	dampedAgg, _ := damped.Read(key)
	if dampedAgg.MeanRoughness >= fullAgg.MeanRoughness {
		t.Errorf("low-quality sample should move the mean less: damped %f, full %f",
			dampedAgg.MeanRoughness, fullAgg.MeanRoughness)
	}

	// A non-positive weight is dropped entirely.
	before, _ := damped.Read(key)
	damped.Write(key, 10.0, 0)
	after, _ := damped.Read(key)
	if after.MeanRoughness != before.MeanRoughness || after.SampleCount != before.SampleCount {
		t.Error("zero-quality sample must not change the aggregate")
	}
}

func TestStore_ConfidenceDecaysAfterHalfLife(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(StoreConfig{ConfidenceHalfLife: 30 * time.Minute, Now: clock.Now})
	key := testKey(0)

	store.Write(key, 1.0, 1.0)
	fresh, _ := store.Read(key)

	clock.Advance(45 * time.Minute)
	aged, _ := store.Read(key)

	if aged.Confidence >= fresh.Confidence {
		t.Errorf("confidence must strictly decrease past the half-life: fresh %f, aged %f",
			fresh.Confidence, aged.Confidence)
	}
	if aged.Confidence < 0 {
		t.Errorf("confidence must never go negative, got %f", aged.Confidence)
	}

	// One half-life halves the recency term exactly.
	clock.t = fresh.LastSeen.Add(30 * time.Minute)
	halved, _ := store.Read(key)
	if math.Abs(halved.Confidence-fresh.Confidence/2) > 1e-9 {
		t.Errorf("expected confidence %f after one half-life, got %f", fresh.Confidence/2, halved.Confidence)
	}
}

func TestStore_ConfidenceSaturatesWithSamples(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(StoreConfig{SaturationCount: 3, Now: clock.Now})
	key := testKey(0)

	store.Write(key, 1.0, 1.0)
	one, _ := store.Read(key)
	if math.Abs(one.Confidence-0.25) > 1e-9 {
		t.Errorf("expected confidence 0.25 after one sample, got %f", one.Confidence)
	}

	store.Write(key, 1.0, 1.0)
	store.Write(key, 1.0, 1.0)
	three, _ := store.Read(key)
	if math.Abs(three.Confidence-0.5) > 1e-9 {
		t.Errorf("expected confidence 0.5 at the saturation count, got %f", three.Confidence)
	}
}

func TestStore_MeanRoughnessNilWhenStale(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(StoreConfig{
		ConfidenceHalfLife: 30 * time.Minute,
		StaleThreshold:     0.15,
		Now:                clock.Now,
	})
	key := testKey(0)

	if store.MeanRoughness(key) != nil {
		t.Error("expected nil for a never-written key")
	}

	store.Write(key, 1.4, 1.0)
	if v := store.MeanRoughness(key); v == nil || *v != 1.4 {
		t.Fatalf("expected fresh mean 1.4, got %v", v)
	}

	clock.Advance(6 * time.Hour)
	if store.MeanRoughness(key) != nil {
		t.Error("expected nil once the aggregate decays below the stale threshold")
	}
	if !store.IsStale(key) {
		t.Error("expected stale aggregate to report as stale")
	}
}

func TestStore_DecayAllKeepsEntries(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	for i := 0; i < 5; i++ {
		store.Write(testKey(i), float64(i), 1.0)
	}

	clock.Advance(24 * time.Hour)
	store.DecayAll(clock.Now())

	if store.Len() != 5 {
		t.Fatalf("decay must never delete entries, got %d of 5", store.Len())
	}
	for i := 0; i < 5; i++ {
		agg, ok := store.Read(testKey(i))
		if !ok {
			t.Fatalf("entry %d missing after decay", i)
		}
		if agg.Confidence < 0 {
			t.Errorf("entry %d has negative confidence %f", i, agg.Confidence)
		}
	}
}

func TestStore_StaleEntrySeedsRecovery(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(StoreConfig{ConfidenceHalfLife: 30 * time.Minute, Now: clock.Now})
	key := testKey(0)

	store.Write(key, 2.0, 1.0)
	clock.Advance(12 * time.Hour)

	// A fresh sample folds into the old mean instead of starting over.
	store.Write(key, 0.0, 1.0)
	agg, _ := store.Read(key)
	if agg.SampleCount != 2 {
		t.Errorf("expected the stale entry to keep its history, got %d samples", agg.SampleCount)
	}
	if agg.MeanRoughness <= 0 || agg.MeanRoughness >= 2.0 {
		t.Errorf("expected mean between old and new sample, got %f", agg.MeanRoughness)
	}
}

func TestStore_LoadAndFlushRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	clock := newFakeClock()

	first := NewStore(StoreConfig{Repository: repo, Now: clock.Now})
	first.Write(testKey(0), 1.1, 1.0)
	first.Write(testKey(1), 0.4, 1.0)
	if err := first.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	second := NewStore(StoreConfig{Repository: repo, Now: clock.Now})
	if err := second.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if second.Len() != 2 {
		t.Fatalf("expected 2 aggregates after load, got %d", second.Len())
	}

	agg, ok := second.Read(Key{RouteID: routing.RouteID("rt_test"), StepIndex: 0})
	if !ok || agg.MeanRoughness != 1.1 {
		t.Errorf("expected restored mean 1.1, got %+v", agg)
	}
}
