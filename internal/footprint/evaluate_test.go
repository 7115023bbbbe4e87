package footprint

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// approx compares ClassScore slices with a tight float tolerance.
func approx() cmp.Option {
	return cmpopts.EquateApprox(0, 1e-12)
}

// gridFeatures builds n well-separated unit squares with the given id
// prefix.
func gridFeatures(t *testing.T, prefix string, n int, class string) FeatureSet {
	t.Helper()
	fs := make(FeatureSet, 0, n)
	for i := 0; i < n; i++ {
		f := squareFeature(t, fmt.Sprintf("%s-%03d", prefix, i), float64(3*i), 0, 1)
		f.ClassLabel = class
		fs = append(fs, f)
	}
	return fs
}

// TestEvaluateIdentity verifies the identity property: proposals equal to
// the ground truth score perfectly. Mirrors the documented 151-building
// tile.
func TestEvaluateIdentity(t *testing.T) {
	const n = 151
	groundTruth := gridFeatures(t, "gt", n, "")
	proposals := gridFeatures(t, "prop", n, "")

	result, err := Evaluate(groundTruth, proposals, DefaultEvalConfig())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	want := []ClassScore{{
		ClassID: "all", IoUField: "iou_score",
		TruePos: n, FalsePos: 0, FalseNeg: 0,
		Precision: 1, Recall: 1, F1Score: 1,
	}}
	if diff := cmp.Diff(want, result.Scores, approx()); diff != "" {
		t.Errorf("Scores mismatch (-want +got):\n%s", diff)
	}
	if result.Summary.Count != n || result.Summary.Mean < 1-1e-9 {
		t.Errorf("Summary = %+v, want %d matches at IoU 1.0", result.Summary, n)
	}
}

// TestEvaluateScenarioSymmetric verifies the documented 28/28 tile with 8
// acceptable matches: 8 TP, 20 FP, 20 FN, precision = recall = F1 = 8/28.
func TestEvaluateScenarioSymmetric(t *testing.T) {
	groundTruth := gridFeatures(t, "gt", 28, "")

	proposals := make(FeatureSet, 0, 28)
	// Eight proposals coincide with the first eight ground truths.
	for i := 0; i < 8; i++ {
		proposals = append(proposals, squareFeature(t, fmt.Sprintf("p-%03d", i), float64(3*i), 0, 1))
	}
	// Twenty proposals land far from every ground truth.
	for i := 8; i < 28; i++ {
		proposals = append(proposals, squareFeature(t, fmt.Sprintf("p-%03d", i), float64(3*i), 100, 1))
	}

	result, err := Evaluate(groundTruth, proposals, DefaultEvalConfig())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	want := []ClassScore{{
		ClassID: "all", IoUField: "iou_score",
		TruePos: 8, FalsePos: 20, FalseNeg: 20,
		Precision: 0.2857142857142857,
		Recall:    0.2857142857142857,
		F1Score:   0.2857142857142857,
	}}
	if diff := cmp.Diff(want, result.Scores, approx()); diff != "" {
		t.Errorf("Scores mismatch (-want +got):\n%s", diff)
	}
}

// TestEvaluateTotalDisjointness verifies the all-miss case zeroes every
// statistic.
func TestEvaluateTotalDisjointness(t *testing.T) {
	groundTruth := gridFeatures(t, "gt", 5, "")
	proposals := make(FeatureSet, 0, 4)
	for i := 0; i < 4; i++ {
		proposals = append(proposals, squareFeature(t, fmt.Sprintf("p-%d", i), float64(3*i), 50, 1))
	}

	result, err := Evaluate(groundTruth, proposals, DefaultEvalConfig())
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	want := []ClassScore{{
		ClassID: "all", IoUField: "iou_score",
		TruePos: 0, FalsePos: 4, FalseNeg: 5,
	}}
	if diff := cmp.Diff(want, result.Scores, approx()); diff != "" {
		t.Errorf("Scores mismatch (-want +got):\n%s", diff)
	}
}

// TestEvaluateConservation verifies TP+FP == |proposals| and
// TP+FN == |ground truth| over a mixed run.
func TestEvaluateConservation(t *testing.T) {
	groundTruth := gridFeatures(t, "gt", 10, "")
	proposals := FeatureSet{
		squareFeature(t, "p-exact", 0, 0, 1),     // IoU 1.0 vs gt-000
		squareFeature(t, "p-partial", 3.5, 0, 1), // IoU 1/3 vs gt-001
		squareFeature(t, "p-weak", 6.9, 0, 1),    // small overlap vs gt-002
		squareFeature(t, "p-far", 0, 80, 1),      // no overlap
		squareFeature(t, "p-dup", 0, 0, 1),       // gt-000 already consumed
	}

	result, err := Evaluate(groundTruth, proposals, EvalConfig{MinIoU: 0.3})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	s := result.Scores[0]
	if s.TruePos+s.FalsePos != len(proposals) {
		t.Errorf("TP+FP = %d, want |proposals| = %d", s.TruePos+s.FalsePos, len(proposals))
	}
	if s.TruePos+s.FalseNeg != len(groundTruth) {
		t.Errorf("TP+FN = %d, want |ground truth| = %d", s.TruePos+s.FalseNeg, len(groundTruth))
	}
}

// TestEvaluateThresholdMonotonicity verifies raising miniou never
// increases the true-positive count.
func TestEvaluateThresholdMonotonicity(t *testing.T) {
	groundTruth := gridFeatures(t, "gt", 6, "")
	// Proposals shifted by increasing amounts give a spread of IoUs.
	proposals := make(FeatureSet, 0, 6)
	for i := 0; i < 6; i++ {
		shift := 0.15 * float64(i)
		proposals = append(proposals, squareFeature(t, fmt.Sprintf("p-%d", i), float64(3*i)+shift, 0, 1))
	}

	prevTP := len(proposals) + 1
	for _, miniou := range []float64{0.1, 0.25, 0.4, 0.55, 0.7, 0.85, 1.0} {
		result, err := Evaluate(groundTruth, proposals, EvalConfig{MinIoU: miniou})
		if err != nil {
			t.Fatalf("Evaluate(miniou=%v) error: %v", miniou, err)
		}
		tp := result.Scores[0].TruePos
		if tp > prevTP {
			t.Errorf("miniou %v: TruePos rose to %d from %d", miniou, tp, prevTP)
		}
		prevTP = tp
	}
}

// TestEvaluatePerClassScores verifies per-class runs are independent, the
// output ordering, the iou_field labels, and aggregation consistency for
// disjoint classes.
func TestEvaluatePerClassScores(t *testing.T) {
	groundTruth := append(
		gridFeatures(t, "gt-b", 4, "building"),
		func() FeatureSet {
			fs := make(FeatureSet, 0, 3)
			for i := 0; i < 3; i++ {
				f := squareFeature(t, fmt.Sprintf("gt-r-%03d", i), float64(3*i), 10, 1)
				f.ClassLabel = "road"
				fs = append(fs, f)
			}
			return fs
		}()...,
	)
	proposals := append(
		gridFeatures(t, "p-b", 4, "building"), // all four coincide with building GT
		func() FeatureSet {
			fs := make(FeatureSet, 0, 2)
			for i := 0; i < 2; i++ {
				f := squareFeature(t, fmt.Sprintf("p-r-%03d", i), float64(3*i), 10, 1)
				f.ClassLabel = "road"
				fs = append(fs, f)
			}
			return fs
		}()...,
	)

	cfg := DefaultEvalConfig()
	cfg.CalculateClassScores = true
	cfg.ClassField = "category"

	result, err := Evaluate(groundTruth, proposals, cfg)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	if len(result.Scores) != 3 {
		t.Fatalf("got %d partitions, want 3 (all, building, road)", len(result.Scores))
	}
	if result.Scores[0].ClassID != "all" || result.Scores[1].ClassID != "building" || result.Scores[2].ClassID != "road" {
		t.Fatalf("partition order = %v", []string{result.Scores[0].ClassID, result.Scores[1].ClassID, result.Scores[2].ClassID})
	}
	if result.Scores[1].IoUField != "iou_score_building" || result.Scores[0].IoUField != "iou_score" {
		t.Errorf("iou fields = %q, %q", result.Scores[0].IoUField, result.Scores[1].IoUField)
	}

	all, building, road := result.Scores[0], result.Scores[1], result.Scores[2]
	if building.TruePos+road.TruePos != all.TruePos {
		t.Errorf("per-class TP %d+%d != overall TP %d", building.TruePos, road.TruePos, all.TruePos)
	}
	if building.TruePos != 4 || building.FalseNeg != 0 {
		t.Errorf("building = %+v, want 4 TP, 0 FN", building)
	}
	if road.TruePos != 2 || road.FalseNeg != 1 {
		t.Errorf("road = %+v, want 2 TP, 1 FN", road)
	}
}

// TestEvaluateEmptyCollections verifies the empty-input policies: empty
// sets are not errors.
func TestEvaluateEmptyCollections(t *testing.T) {
	gt := gridFeatures(t, "gt", 3, "")
	props := gridFeatures(t, "p", 2, "")

	t.Run("empty proposals", func(t *testing.T) {
		result, err := Evaluate(gt, nil, DefaultEvalConfig())
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		s := result.Scores[0]
		if s.TruePos != 0 || s.FalsePos != 0 || s.FalseNeg != 3 {
			t.Errorf("score = %+v, want all false negatives", s)
		}
	})

	t.Run("empty ground truth", func(t *testing.T) {
		result, err := Evaluate(nil, props, DefaultEvalConfig())
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		s := result.Scores[0]
		if s.TruePos != 0 || s.FalsePos != 2 || s.FalseNeg != 0 {
			t.Errorf("score = %+v, want all false positives", s)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		result, err := Evaluate(nil, nil, DefaultEvalConfig())
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		s := result.Scores[0]
		if s.Precision != 0 || s.Recall != 0 || s.F1Score != 0 {
			t.Errorf("score = %+v, want zero statistics", s)
		}
	})
}

// TestEvaluateConfigValidation verifies bad configurations are rejected
// before matching begins.
func TestEvaluateConfigValidation(t *testing.T) {
	gt := gridFeatures(t, "gt", 1, "")
	props := gridFeatures(t, "p", 1, "")

	tests := []struct {
		name string
		cfg  EvalConfig
	}{
		{name: "miniou zero", cfg: EvalConfig{MinIoU: 0}},
		{name: "miniou negative", cfg: EvalConfig{MinIoU: -0.5}},
		{name: "miniou above one", cfg: EvalConfig{MinIoU: 1.5}},
		{name: "class scores without labels", cfg: EvalConfig{MinIoU: 0.5, CalculateClassScores: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(gt, props, tt.cfg)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Evaluate() error = %v, want *ConfigurationError", err)
			}
		})
	}
}

// TestEvaluateSortByConfidence verifies confidence ordering is a policy
// switch: off by default, and when on, a higher-confidence proposal claims
// the ground truth ahead of an earlier lower-confidence one.
func TestEvaluateSortByConfidence(t *testing.T) {
	gt := FeatureSet{squareFeature(t, "gt-1", 0, 0, 1)}

	partial := squareFeature(t, "p-partial", 0.5, 0, 1) // IoU 1/3
	partial.Confidence = confPtr(0.2)
	exact := squareFeature(t, "p-exact", 0, 0, 1) // IoU 1.0
	exact.Confidence = confPtr(0.95)
	proposals := FeatureSet{partial, exact}

	findMatch := func(records []MatchRecord) string {
		for _, r := range records {
			if r.Matched() {
				return r.ProposalID
			}
		}
		return ""
	}

	// Input order: the partial proposal wins greedily.
	result, err := Evaluate(gt, proposals, EvalConfig{MinIoU: 0.3})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if got := findMatch(result.Matches["all"]); got != "p-partial" {
		t.Errorf("input order: %q claimed the ground truth, want p-partial", got)
	}

	// Confidence order: the exact proposal is processed first and wins.
	result, err = Evaluate(gt, proposals, EvalConfig{MinIoU: 0.3, SortByConfidence: true})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if got := findMatch(result.Matches["all"]); got != "p-exact" {
		t.Errorf("confidence order: %q claimed the ground truth, want p-exact", got)
	}
}

// TestEvaluateProgressHook verifies the hook reports the overall
// partition's proposal count.
func TestEvaluateProgressHook(t *testing.T) {
	gt := gridFeatures(t, "gt", 4, "")
	props := gridFeatures(t, "p", 4, "")

	var calls int
	var lastDone, lastTotal int
	cfg := DefaultEvalConfig()
	cfg.Progress = func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}

	if _, err := Evaluate(gt, props, cfg); err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if calls != 4 || lastDone != 4 || lastTotal != 4 {
		t.Errorf("progress: calls=%d last=%d/%d, want 4 calls ending 4/4", calls, lastDone, lastTotal)
	}
}
