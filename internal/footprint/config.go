package footprint

// AllClassID labels the unrestricted partition covering every feature
// regardless of class.
const AllClassID = "all"

// iouFieldPrefix builds the per-partition label identifying which IoU
// measure a ClassScore corresponds to.
const iouFieldPrefix = "iou_score"

// EvalConfig holds the recognized options for one evaluation run. The
// zero value is not usable; start from DefaultEvalConfig.
type EvalConfig struct {
	// MinIoU is the acceptance threshold: a proposal matches a ground-truth
	// feature only when their IoU is >= MinIoU. Must lie in (0, 1].
	MinIoU float64

	// CalculateClassScores enables per-class breakdowns in addition to the
	// overall "all" partition.
	CalculateClassScores bool

	// ClassField names the source attribute the loader reads class labels
	// from. The engine itself only consults Feature.ClassLabel; the field
	// name is recorded here so a run is reproducible from its config.
	ClassField string

	// ConfFields names the source attributes treated as confidence scores.
	// Informational to the engine.
	ConfFields []string

	// SortByConfidence processes proposals in descending confidence order
	// instead of input order. Off by default: input order is the documented
	// behaviour, confidence ordering is an explicit policy choice.
	SortByConfidence bool

	// Progress, when non-nil, is invoked after each proposal of the "all"
	// partition is resolved. Purely an observability hook; the matching
	// algorithm never depends on it.
	Progress func(done, total int)
}

// DefaultEvalConfig returns the standard evaluation configuration: IoU
// threshold 0.5, overall scores only, input-order matching.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{MinIoU: 0.5}
}

// Validate rejects unusable configurations before any matching work
// starts. Class-label availability is checked against the actual records
// because the loader may legitimately produce unlabelled sets.
func (c EvalConfig) Validate(groundTruth, proposals FeatureSet) error {
	if c.MinIoU <= 0 || c.MinIoU > 1 {
		return &ConfigurationError{
			Field:  "MinIoU",
			Reason: "must be in (0, 1]",
		}
	}
	if c.CalculateClassScores {
		if len(groundTruth.Classes()) == 0 && len(proposals.Classes()) == 0 {
			return &ConfigurationError{
				Field:  "CalculateClassScores",
				Reason: "no record carries a class label",
			}
		}
	}
	return nil
}
