package spatialindex

import (
	"testing"

	"github.com/skateroute/skateroute/pkg/geo"
)

func TestEdgeIndex_SearchWithinRadius(t *testing.T) {
	ix := NewEdgeIndex()

	// Edge near the origin.
	ix.Insert(Edge{
		StepIndex: 0,
		EdgeIndex: 0,
		A:         geo.NewCoordinate(0, 0),
		B:         geo.NewCoordinate(0, 0.001),
	})
	// Edge roughly 11km east.
	ix.Insert(Edge{
		StepIndex: 1,
		EdgeIndex: 0,
		A:         geo.NewCoordinate(0, 0.1),
		B:         geo.NewCoordinate(0, 0.101),
	})

	if ix.Len() != 2 {
		t.Fatalf("expected 2 indexed edges, got %d", ix.Len())
	}

	near := ix.SearchWithinRadius(geo.NewCoordinate(0.0001, 0.0005), 50)
	if len(near) != 1 {
		t.Fatalf("expected 1 edge within 50m, got %d", len(near))
	}
	if near[0].StepIndex != 0 {
		t.Errorf("expected step 0, got %d", near[0].StepIndex)
	}

	far := ix.SearchWithinRadius(geo.NewCoordinate(1, 1), 50)
	if len(far) != 0 {
		t.Errorf("expected no edges near (1,1), got %d", len(far))
	}

	// A larger radius covers both edges.
	wide := ix.SearchWithinRadius(geo.NewCoordinate(0, 0.05), 12000)
	if len(wide) != 2 {
		t.Errorf("expected 2 edges within 12km, got %d", len(wide))
	}
}

func TestEdgeIndex_Empty(t *testing.T) {
	ix := NewEdgeIndex()
	if got := ix.SearchWithinRadius(geo.NewCoordinate(0, 0), 100); len(got) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(got))
	}
}
