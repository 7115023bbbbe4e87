package footprint

import (
	"github.com/peterstace/simplefeatures/geom"
	"github.com/tidwall/rtree"
)

// SpatialIndex is a bounding-box index over a ground-truth collection.
// It is built once per evaluation run from the full (unfiltered)
// collection and is read-only afterwards, so concurrent queries from
// independent class partitions are safe.
//
// Query results are a superset of the true IoU-overlapping polygons
// (bounding-box pruning only) and must always be narrowed by exact IoU
// computation.
type SpatialIndex struct {
	tr rtree.RTreeG[int]
}

// NewSpatialIndex builds the index. Values stored are indices into the
// ground-truth slice, keeping the arena immutable and un-copied. An empty
// collection yields an index whose queries always return nil.
func NewSpatialIndex(groundTruth FeatureSet) *SpatialIndex {
	idx := &SpatialIndex{}
	for i, f := range groundTruth {
		min, max, ok := f.Geometry.Envelope().MinMaxXYs()
		if !ok {
			continue // empty geometry: indexable nowhere, rejected later by CheckPolygon
		}
		idx.tr.Insert([2]float64{min.X, min.Y}, [2]float64{max.X, max.Y}, i)
	}
	return idx
}

// Query returns the arena indices of every indexed feature whose bounding
// box intersects env.
func (idx *SpatialIndex) Query(env geom.Envelope) []int {
	min, max, ok := env.MinMaxXYs()
	if !ok {
		return nil
	}
	var out []int
	idx.tr.Search(
		[2]float64{min.X, min.Y},
		[2]float64{max.X, max.Y},
		func(_, _ [2]float64, i int) bool {
			out = append(out, i)
			return true
		},
	)
	return out
}

// Len returns the number of indexed features.
func (idx *SpatialIndex) Len() int {
	return idx.tr.Len()
}
