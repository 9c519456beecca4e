// Package spatialindex provides an R-tree index over route step edges so
// the matcher can restrict projection to edges near a query point instead
// of scanning the whole route.
package spatialindex

import (
	"math"

	"github.com/tidwall/rtree"

	"github.com/skateroute/skateroute/pkg/geo"
)

// Edge is one polyline segment of a route step.
type Edge struct {
	// StepIndex is the index of the owning step in the route.
	StepIndex int

	// EdgeIndex is the position of this edge within the step's polyline.
	EdgeIndex int

	// A and B are the edge endpoints.
	A geo.Coordinate
	B geo.Coordinate
}

// EdgeIndex is an immutable-after-build R-tree over route edges.
// Build it once per route; concurrent reads are safe after that.
type EdgeIndex struct {
	tr    rtree.RTreeG[Edge]
	count int
}

// NewEdgeIndex creates an empty edge index.
func NewEdgeIndex() *EdgeIndex {
	return &EdgeIndex{}
}

// Insert adds an edge to the index using its bounding rectangle.
func (ix *EdgeIndex) Insert(e Edge) {
	minLat := math.Min(e.A.Lat, e.B.Lat)
	minLon := math.Min(e.A.Lon, e.B.Lon)
	maxLat := math.Max(e.A.Lat, e.B.Lat)
	maxLon := math.Max(e.A.Lon, e.B.Lon)

	ix.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, e)
	ix.count++
}

// Len returns the number of indexed edges.
func (ix *EdgeIndex) Len() int {
	return ix.count
}

// SearchWithinRadius returns all edges whose bounding rectangles intersect
// a box of the given radius in meters around the query point.
func (ix *EdgeIndex) SearchWithinRadius(p geo.Coordinate, radiusMeters float64) []Edge {
	lower := geo.DestinationPoint(p, 225, radiusMeters*math.Sqrt2)
	upper := geo.DestinationPoint(p, 45, radiusMeters*math.Sqrt2)

	results := make([]Edge, 0, 8)
	ix.tr.Search(
		[2]float64{lower.Lon, lower.Lat},
		[2]float64{upper.Lon, upper.Lat},
		func(min, max [2]float64, e Edge) bool {
			results = append(results, e)
			return true
		},
	)
	return results
}
