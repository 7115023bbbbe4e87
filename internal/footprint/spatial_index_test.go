package footprint

import (
	"sort"
	"testing"
)

// TestSpatialIndexQuery verifies bbox candidate retrieval is a superset of
// the truly overlapping polygons and excludes far-away ones.
func TestSpatialIndexQuery(t *testing.T) {
	gt := FeatureSet{
		squareFeature(t, "a", 0, 0, 1),
		squareFeature(t, "b", 10, 10, 1),
		squareFeature(t, "c", 0.5, 0.5, 1),
	}
	idx := NewSpatialIndex(gt)

	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", idx.Len())
	}

	// Query box overlapping "a" and "c" but not "b".
	query := mustPolygon(t, squareWKT(0.25, 0.25, 0.5)).Envelope()
	got := idx.Query(query)
	sort.Ints(got)
	want := []int{0, 2}
	if len(got) != len(want) {
		t.Fatalf("Query() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Query() = %v, want %v", got, want)
		}
	}

	// Query box far from everything.
	if got := idx.Query(mustPolygon(t, squareWKT(100, 100, 1)).Envelope()); len(got) != 0 {
		t.Errorf("far Query() = %v, want empty", got)
	}
}

// TestSpatialIndexTouchingBoxes verifies that bounding-box pruning keeps
// edge-touching candidates: exact IoU, not the index, decides matches.
func TestSpatialIndexTouchingBoxes(t *testing.T) {
	gt := FeatureSet{squareFeature(t, "a", 1, 0, 1)}
	idx := NewSpatialIndex(gt)

	query := mustPolygon(t, squareWKT(0, 0, 1)).Envelope()
	if got := idx.Query(query); len(got) != 1 {
		t.Errorf("Query() = %v, want the touching box as candidate", got)
	}
}

// TestSpatialIndexEmpty verifies the degenerate empty-collection case.
func TestSpatialIndexEmpty(t *testing.T) {
	idx := NewSpatialIndex(nil)
	if idx.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", idx.Len())
	}
	if got := idx.Query(mustPolygon(t, squareWKT(0, 0, 1)).Envelope()); got != nil {
		t.Errorf("Query() = %v, want nil", got)
	}
}
