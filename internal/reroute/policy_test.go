package reroute

import (
	"testing"
	"time"
)

func TestPolicy_ShouldReroute(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name         string
		distMeters   float64
		headingDelta float64
		dwell        time.Duration
		want         bool
	}{
		{
			name:       "just inside distance threshold never fires",
			distMeters: 24.9, dwell: 100 * time.Second,
			want: false,
		},
		{
			name:       "past distance and dwell fires",
			distMeters: 25.1, dwell: 6 * time.Second,
			want: true,
		},
		{
			name:         "heading breach fires without distance",
			headingDelta: 51,
			want:         true,
		},
		{
			name:       "off route but dwell too short",
			distMeters: 30, dwell: 3 * time.Second,
			want: false,
		},
		{
			name:       "everything at the boundary stays quiet",
			distMeters: 25, headingDelta: 50, dwell: 5 * time.Second,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.ShouldReroute(tt.distMeters, tt.headingDelta, tt.dwell)
			if got != tt.want {
				t.Errorf("ShouldReroute(%f, %f, %s) = %v, want %v",
					tt.distMeters, tt.headingDelta, tt.dwell, got, tt.want)
			}
		})
	}
}

func TestTracker_DwellAccumulatesAndResets(t *testing.T) {
	var tracker Tracker
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if d := tracker.Observe(true, base); d != 0 {
		t.Errorf("first off-route observation should start the clock, got %s", d)
	}
	if d := tracker.Observe(true, base.Add(4*time.Second)); d != 4*time.Second {
		t.Errorf("expected 4s dwell, got %s", d)
	}
	if d := tracker.Observe(true, base.Add(9*time.Second)); d != 9*time.Second {
		t.Errorf("expected 9s dwell, got %s", d)
	}

	// Rejoining the route resets the stretch.
	if d := tracker.Observe(false, base.Add(10*time.Second)); d != 0 {
		t.Errorf("on-route observation must reset dwell, got %s", d)
	}
	if d := tracker.Observe(true, base.Add(11*time.Second)); d != 0 {
		t.Errorf("new off-route stretch starts at zero, got %s", d)
	}
}
