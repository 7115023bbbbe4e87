package footprint

// ClassScore holds the detection-quality statistics for one class
// partition of one evaluation run. Immutable output.
type ClassScore struct {
	ClassID  string `json:"class_id"`
	IoUField string `json:"iou_field"`

	TruePos  int `json:"true_pos"`
	FalsePos int `json:"false_pos"`
	FalseNeg int `json:"false_neg"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// AggregateScores tallies match records and the unmatched remainder into a
// ClassScore. Pure function of its inputs: no side effects.
//
// Zero-denominator policy: precision, recall and F1 are each defined as 0
// when their denominator is 0, so empty proposal or ground-truth sets score
// cleanly instead of erroring.
func AggregateScores(matches []MatchRecord, remaining []string, classID, iouField string) ClassScore {
	score := ClassScore{
		ClassID:  classID,
		IoUField: iouField,
		FalseNeg: len(remaining),
	}
	for _, m := range matches {
		if m.Matched() {
			score.TruePos++
		} else {
			score.FalsePos++
		}
	}

	if d := score.TruePos + score.FalsePos; d > 0 {
		score.Precision = float64(score.TruePos) / float64(d)
	}
	if d := score.TruePos + score.FalseNeg; d > 0 {
		score.Recall = float64(score.TruePos) / float64(d)
	}
	if d := score.Precision + score.Recall; d > 0 {
		score.F1Score = 2 * score.Precision * score.Recall / d
	}
	return score
}
