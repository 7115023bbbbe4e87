package footprint

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// IoUSummary describes the distribution of IoU values across the committed
// matches of one partition. Purely descriptive; no score depends on it.
type IoUSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// SummarizeIoUs computes distribution statistics over the IoU values of
// the true-positive matches. False positives are excluded: their IoU is a
// best-effort diagnostic, not an accepted overlap. Returns a zero summary
// when there are no matches.
func SummarizeIoUs(matches []MatchRecord) IoUSummary {
	var ious []float64
	for _, m := range matches {
		if m.Matched() {
			ious = append(ious, m.IoU)
		}
	}
	if len(ious) == 0 {
		return IoUSummary{}
	}
	sort.Float64s(ious)

	s := IoUSummary{
		Count:  len(ious),
		Mean:   stat.Mean(ious, nil),
		Min:    ious[0],
		Max:    ious[len(ious)-1],
		Median: stat.Quantile(0.5, stat.Empirical, ious, nil),
	}
	if len(ious) > 1 {
		s.StdDev = stat.StdDev(ious, nil)
	}
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}
