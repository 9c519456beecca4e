package matching

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/pkg/geo"
	"github.com/skateroute/skateroute/pkg/spatialindex"
)

// defaultSnapRadiusMeters is the widest distance at which a position
// still counts as on-route. Sized for consumer GPS in street canyons.
const defaultSnapRadiusMeters = 45.0

// MatcherConfig holds configuration for a route matcher.
type MatcherConfig struct {
	// SnapRadiusMeters is the maximum snap distance. Default: 45.
	SnapRadiusMeters float64

	// Logger for matcher operations.
	Logger zerolog.Logger
}

// stepGeometry caches per-step edge lengths so progress along a step is
// a lookup plus one multiplication per match.
type stepGeometry struct {
	edgeOffsets []float64 // cumulative length before each edge
	edgeLengths []float64
	totalLength float64
}

// Matcher snaps positions onto one route. The step polylines are indexed
// into an R-tree at construction; each query projects only onto edges
// near the query point. Consecutive positions usually stay on the same
// step, so the previous match is retried first and the index is only
// consulted when the rider has left that step's snap radius.
type Matcher struct {
	snapRadius float64
	logger     zerolog.Logger

	index *spatialindex.EdgeIndex
	steps map[int]*stepGeometry
	edges map[int][]spatialindex.Edge

	mu           sync.Mutex
	last         *MatchResult
	fullSearches int
}

// NewMatcher builds a matcher for the given route. Steps with fewer than
// two points carry no matchable geometry and are skipped; a route where
// every step is skipped produces a matcher that never matches.
func NewMatcher(route *routing.Route, cfg MatcherConfig) *Matcher {
	if cfg.SnapRadiusMeters <= 0 {
		cfg.SnapRadiusMeters = defaultSnapRadiusMeters
	}

	m := &Matcher{
		snapRadius: cfg.SnapRadiusMeters,
		logger:     cfg.Logger,
		index:      spatialindex.NewEdgeIndex(),
		steps:      make(map[int]*stepGeometry),
		edges:      make(map[int][]spatialindex.Edge),
	}

	if route == nil {
		return m
	}

	for stepIdx, step := range route.Steps {
		if len(step.Points) < 2 {
			continue
		}

		g := &stepGeometry{
			edgeOffsets: make([]float64, 0, len(step.Points)-1),
			edgeLengths: make([]float64, 0, len(step.Points)-1),
		}

		for i := 1; i < len(step.Points); i++ {
			e := spatialindex.Edge{
				StepIndex: stepIdx,
				EdgeIndex: i - 1,
				A:         step.Points[i-1],
				B:         step.Points[i],
			}
			m.index.Insert(e)
			m.edges[stepIdx] = append(m.edges[stepIdx], e)

			g.edgeOffsets = append(g.edgeOffsets, g.totalLength)
			length := geo.HaversineMeters(e.A, e.B)
			g.edgeLengths = append(g.edgeLengths, length)
			g.totalLength += length
		}

		m.steps[stepIdx] = g
	}

	m.logger.Debug().
		Str("route_id", string(route.ID)).
		Int("edges", m.index.Len()).
		Msg("built route matcher")

	return m
}

// Match snaps the position onto the route. It returns false when the
// position is farther than the snap radius from every step, or when the
// route has no matchable geometry.
func (m *Matcher) Match(p geo.Coordinate) (MatchResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Sticky step: while the rider stays within the snap radius of the
	// previously matched step, skip the index entirely.
	if m.last != nil {
		if result, ok := m.bestOnEdges(p, m.edges[m.last.StepIndex]); ok {
			m.last = &result
			return result, true
		}
	}

	candidates := m.index.SearchWithinRadius(p, m.snapRadius)
	m.fullSearches++

	result, ok := m.bestOnEdges(p, candidates)
	if !ok {
		m.last = nil
		return MatchResult{}, false
	}

	m.last = &result
	return result, true
}

// FullSearches returns how many queries fell through to the spatial
// index rather than reusing the previous step.
func (m *Matcher) FullSearches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullSearches
}

// bestOnEdges projects p onto each edge and keeps the closest hit inside
// the snap radius.
func (m *Matcher) bestOnEdges(p geo.Coordinate, edges []spatialindex.Edge) (MatchResult, bool) {
	var (
		best     MatchResult
		bestDist = m.snapRadius
		found    bool
	)

	for _, e := range edges {
		proj := geo.ProjectOntoSegment(p, e.A, e.B)
		if proj.DistanceMeters > bestDist {
			continue
		}

		g := m.steps[e.StepIndex]
		progress := 0.0
		if g != nil && g.totalLength > 0 {
			progress = (g.edgeOffsets[e.EdgeIndex] + proj.T*g.edgeLengths[e.EdgeIndex]) / g.totalLength
		}

		bestDist = proj.DistanceMeters
		best = MatchResult{
			StepIndex:      e.StepIndex,
			Snapped:        proj.Point,
			DistanceMeters: proj.DistanceMeters,
			BearingDegrees: geo.BearingDegrees(e.A, e.B),
			ProgressInStep: progress,
			Confidence:     1 - proj.DistanceMeters/m.snapRadius,
		}
		found = true
	}

	return best, found
}
