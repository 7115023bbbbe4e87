package footprint

import (
	"errors"
	"fmt"
)

// Matcher runs the greedy IoU matching algorithm for one class partition.
// For each proposal, in input order, it finds the best still-unmatched
// ground-truth candidate above the threshold and commits the match,
// permanently consuming that candidate.
//
// Matching is greedy and proposal-order-dependent: once a ground-truth
// polygon is consumed it can never be reused, so a later proposal cannot
// claim a polygon an earlier proposal already matched even if its IoU were
// higher. This is not maximum-weight bipartite matching.
//
// The proposal loop is inherently sequential: proposal k+1's candidate set
// depends on the ActiveSet mutation made while resolving proposal k.
type Matcher struct {
	groundTruth FeatureSet
	index       *SpatialIndex
	active      *ActiveSet
	minIoU      float64
}

// NewMatcher creates a matcher over the shared ground-truth arena. The
// index covers the full collection; active holds only this partition's
// arena indices, and candidates outside it are discarded even when
// spatially overlapping.
func NewMatcher(groundTruth FeatureSet, index *SpatialIndex, active *ActiveSet, minIoU float64) *Matcher {
	return &Matcher{
		groundTruth: groundTruth,
		index:       index,
		active:      active,
		minIoU:      minIoU,
	}
}

// MatchAll resolves every proposal in order and returns one MatchRecord
// per proposal. progress, when non-nil, is invoked after each proposal is
// resolved. The first geometry error aborts the run; geometry problems are
// never silently skipped.
func (m *Matcher) MatchAll(proposals FeatureSet, progress func(done, total int)) ([]MatchRecord, error) {
	records := make([]MatchRecord, 0, len(proposals))
	for i, p := range proposals {
		rec, err := m.matchOne(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		if progress != nil {
			progress(i+1, len(proposals))
		}
	}
	return records, nil
}

// matchOne resolves a single proposal against the remaining candidates.
// Tie-break: when several unmatched candidates share the exact maximum
// IoU, the lowest ground-truth ID wins. The rtree returns candidates in
// no particular order, so determinism must not rely on iteration order.
func (m *Matcher) matchOne(p Feature) (MatchRecord, error) {
	if err := m.checkFeature(p); err != nil {
		return MatchRecord{}, err
	}

	bestIoU := 0.0
	bestIdx := -1
	for _, ci := range m.index.Query(p.Geometry.Envelope()) {
		if !m.active.Contains(ci) {
			continue
		}
		cand := m.groundTruth[ci]
		if err := m.checkFeature(cand); err != nil {
			return MatchRecord{}, err
		}
		iou, err := PolygonIoU(p.Geometry, cand.Geometry)
		if err != nil {
			return MatchRecord{}, fmt.Errorf("iou of proposal %q against %q: %w", p.ID, cand.ID, err)
		}
		if iou > bestIoU || (iou == bestIoU && bestIdx >= 0 && iou > 0 && cand.ID < m.groundTruth[bestIdx].ID) {
			bestIoU = iou
			bestIdx = ci
		}
	}

	if bestIdx >= 0 && bestIoU >= m.minIoU {
		m.active.Remove(bestIdx)
		return MatchRecord{
			ProposalID:    p.ID,
			GroundTruthID: m.groundTruth[bestIdx].ID,
			IoU:           bestIoU,
		}, nil
	}
	return MatchRecord{ProposalID: p.ID, IoU: bestIoU}, nil
}

// checkFeature wraps geometry validation with the feature's identity.
func (m *Matcher) checkFeature(f Feature) error {
	err := CheckPolygon(f.Geometry)
	if err == nil {
		return nil
	}
	var invalid *InvalidGeometryError
	if errors.As(err, &invalid) && invalid.ID == "" {
		invalid.ID = f.ID
	}
	return err
}

// FalseNegatives returns the IDs of ground-truth features still unmatched
// after MatchAll, in ascending arena order.
func (m *Matcher) FalseNegatives() []string {
	remaining := m.active.Remaining()
	ids := make([]string, len(remaining))
	for i, idx := range remaining {
		ids[i] = m.groundTruth[idx].ID
	}
	return ids
}
