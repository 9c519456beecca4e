// Package reroute decides when a live ride has diverged from its route
// far enough to request fresh directions. The policy is a pure function
// of the latest match so it can be tuned and tested in isolation.
package reroute

import "time"

// Policy defaults.
const (
	defaultMaxOffRouteMeters  = 25.0
	defaultMaxOffRouteDwell   = 5 * time.Second
	defaultMaxHeadingDeltaDeg = 50.0
)

// Policy holds the divergence thresholds.
type Policy struct {
	// MaxOffRouteMeters is the snap distance beyond which the rider
	// counts as off route. Default: 25.
	MaxOffRouteMeters float64

	// MaxOffRouteDwell is how long the rider must stay off route before
	// distance alone triggers a reroute. Brief GPS excursions under this
	// dwell are ignored. Default: 5s.
	MaxOffRouteDwell time.Duration

	// MaxHeadingDeltaDegrees is the divergence between travel heading
	// and the matched edge bearing that triggers a reroute immediately,
	// regardless of distance. Default: 50.
	MaxHeadingDeltaDegrees float64
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxOffRouteMeters:      defaultMaxOffRouteMeters,
		MaxOffRouteDwell:       defaultMaxOffRouteDwell,
		MaxHeadingDeltaDegrees: defaultMaxHeadingDeltaDeg,
	}
}

// ShouldReroute reports whether the latest observation warrants a
// reroute: sustained off-route distance, or a heading that has clearly
// left the matched edge. A heading breach fires on its own because a
// wrong turn shows up in bearing before it shows up in distance.
func (p Policy) ShouldReroute(distMeters, headingDeltaDeg float64, dwell time.Duration) bool {
	if headingDeltaDeg > p.MaxHeadingDeltaDegrees {
		return true
	}
	return distMeters > p.MaxOffRouteMeters && dwell > p.MaxOffRouteDwell
}

// Tracker accumulates off-route dwell across observations. It is not
// safe for concurrent use; each ride owns one.
type Tracker struct {
	offSince time.Time
	off      bool
}

// Observe records whether the rider is currently off route and returns
// how long the present off-route stretch has lasted. Returning on route
// resets the dwell.
func (t *Tracker) Observe(offRoute bool, now time.Time) time.Duration {
	if !offRoute {
		t.off = false
		return 0
	}
	if !t.off {
		t.off = true
		t.offSince = now
		return 0
	}
	return now.Sub(t.offSince)
}
