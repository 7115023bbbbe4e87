package footprint

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Result bundles the outputs of one evaluation run. Scores are ordered:
// the overall "all" partition first, then per-class partitions in
// ascending class order. Matches holds the per-proposal records keyed by
// partition class ID; Summary describes the IoU distribution of the "all"
// partition's committed matches.
type Result struct {
	Scores  []ClassScore
	Matches map[string][]MatchRecord
	Summary IoUSummary
}

// Evaluate scores proposals against ground truth for one tile.
//
// The configuration is validated first; the spatial index is then built
// once over the full ground-truth collection. The "all" partition is
// always evaluated. When cfg.CalculateClassScores is set, one fully
// independent run is additionally performed per class value, restricted to
// that class on both sides — there is no cross-class matching.
//
// Independent partitions run concurrently: each owns its ActiveSet, the
// index is read-only after build, and results land in per-partition slots,
// so no synchronization beyond the final join is needed. Within a
// partition the proposal loop stays sequential by necessity.
func Evaluate(groundTruth, proposals FeatureSet, cfg EvalConfig) (*Result, error) {
	if err := cfg.Validate(groundTruth, proposals); err != nil {
		return nil, err
	}

	partitions := []string{AllClassID}
	if cfg.CalculateClassScores {
		partitions = append(partitions, unionClasses(groundTruth, proposals)...)
	}

	index := NewSpatialIndex(groundTruth)

	scores := make([]ClassScore, len(partitions))
	matches := make([][]MatchRecord, len(partitions))
	errs := make([]error, len(partitions))

	var wg sync.WaitGroup
	for pi, class := range partitions {
		wg.Add(1)
		go func(pi int, class string) {
			defer wg.Done()
			scores[pi], matches[pi], errs[pi] = evaluatePartition(groundTruth, proposals, index, cfg, class)
		}(pi, class)
	}
	wg.Wait()

	for pi, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("partition %q: %w", partitions[pi], err)
		}
	}

	result := &Result{
		Scores:  scores,
		Matches: make(map[string][]MatchRecord, len(partitions)),
		Summary: SummarizeIoUs(matches[0]),
	}
	for pi, class := range partitions {
		result.Matches[class] = matches[pi]
	}
	return result, nil
}

// evaluatePartition runs the greedy matcher over one class partition and
// aggregates its score.
func evaluatePartition(groundTruth, proposals FeatureSet, index *SpatialIndex, cfg EvalConfig, class string) (ClassScore, []MatchRecord, error) {
	iouField := iouFieldPrefix
	candidates := make([]int, 0, len(groundTruth))
	partProposals := proposals

	if class == AllClassID {
		for i := range groundTruth {
			candidates = append(candidates, i)
		}
	} else {
		iouField = iouFieldPrefix + "_" + class
		for i, f := range groundTruth {
			if f.ClassLabel == class {
				candidates = append(candidates, i)
			}
		}
		partProposals = proposals.FilterByClass(class)
	}

	if cfg.SortByConfidence {
		partProposals = sortByConfidence(partProposals)
	}

	// Progress is reported for the overall partition only; per-class runs
	// execute concurrently and would interleave the callback.
	var progress func(done, total int)
	if class == AllClassID {
		progress = cfg.Progress
	}

	matcher := NewMatcher(groundTruth, index, NewActiveSet(candidates), cfg.MinIoU)
	records, err := matcher.MatchAll(partProposals, progress)
	if err != nil {
		return ClassScore{}, nil, err
	}

	score := AggregateScores(records, matcher.FalseNegatives(), class, iouField)
	return score, records, nil
}

// unionClasses returns the sorted distinct class labels across both
// collections.
func unionClasses(a, b FeatureSet) []string {
	seen := make(map[string]bool)
	for _, c := range a.Classes() {
		seen[c] = true
	}
	for _, c := range b.Classes() {
		seen[c] = true
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// sortByConfidence returns a copy of fs ordered by descending confidence.
// Features without a confidence sort last; the sort is stable so input
// order still breaks ties.
func sortByConfidence(fs FeatureSet) FeatureSet {
	out := make(FeatureSet, len(fs))
	copy(out, fs)
	conf := func(f Feature) float64 {
		if f.Confidence == nil {
			return math.Inf(-1)
		}
		return *f.Confidence
	}
	sort.SliceStable(out, func(i, j int) bool {
		return conf(out[i]) > conf(out[j])
	})
	return out
}
