package footprint

import (
	"fmt"
	"sort"

	"github.com/peterstace/simplefeatures/geom"
)

// Feature is a single polygon instance within one tile: either a model
// proposal or a reference ground-truth footprint. Features are immutable
// once loaded; the engine never mutates geometry.
type Feature struct {
	// ID is an opaque identifier, unique within its collection.
	ID string

	// Geometry is the footprint outline (outer ring plus optional holes),
	// in the shared planar coordinate system of the tile.
	Geometry geom.Polygon

	// ClassLabel partitions features for per-class scoring. Empty when the
	// source carries no class attribute.
	ClassLabel string

	// Confidence is the model score for a proposal. Nil when absent.
	// Informational only: it never affects matching unless
	// EvalConfig.SortByConfidence is enabled.
	Confidence *float64
}

// FeatureSet is an ordered collection of features for one tile. For
// proposals the order is significant: greedy matching processes proposals
// in slice order.
type FeatureSet []Feature

// IDs returns the feature identifiers in collection order.
func (fs FeatureSet) IDs() []string {
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.ID
	}
	return ids
}

// FilterByClass returns the subset of features carrying the given class
// label, preserving order.
func (fs FeatureSet) FilterByClass(class string) FeatureSet {
	var out FeatureSet
	for _, f := range fs {
		if f.ClassLabel == class {
			out = append(out, f)
		}
	}
	return out
}

// Classes returns the sorted set of distinct non-empty class labels.
func (fs FeatureSet) Classes() []string {
	seen := make(map[string]bool)
	for _, f := range fs {
		if f.ClassLabel != "" {
			seen[f.ClassLabel] = true
		}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// MatchRecord is the outcome for a single proposal. GroundTruthID is empty
// when the proposal matched nothing above threshold (a false positive); IoU
// then holds the best overlap seen, or zero when there were no candidates.
type MatchRecord struct {
	ProposalID    string  `json:"proposal_id"`
	GroundTruthID string  `json:"ground_truth_id,omitempty"`
	IoU           float64 `json:"iou"`
}

// Matched reports whether the proposal was committed to a ground-truth
// feature.
func (m MatchRecord) Matched() bool { return m.GroundTruthID != "" }

// InvalidGeometryError reports a polygon whose area is undefined
// (self-intersecting beyond repair, empty, or zero-area). It is raised at
// IoU-computation time, not at load time, and aborts the partition being
// evaluated.
type InvalidGeometryError struct {
	ID     string // feature identifier, when known
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid geometry: %s", e.Reason)
	}
	return fmt.Sprintf("invalid geometry %q: %s", e.ID, e.Reason)
}

// ConfigurationError reports an EvalConfig rejected before matching begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}
