package scores

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a score vector.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
}

// Summarize computes distribution statistics. An empty vector yields a
// zero Summary.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	slices.Sort(sorted)

	s := Summary{
		Count:  len(scores),
		Min:    floats.Min(scores),
		Max:    floats.Max(scores),
		Mean:   stat.Mean(scores, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}

// MaxChange returns the largest absolute per-node difference between two
// score vectors. It reports false when the node counts differ.
func MaxChange(prev, next []float64) (float64, bool) {
	if len(prev) != len(next) || len(next) == 0 {
		return 0, false
	}
	return floats.Distance(prev, next, math.Inf(1)), true
}

// Ranked is a node paired with its score.
type Ranked struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}

// Top returns the k lowest (ascending) or highest scored nodes. Ties are
// broken by id. k <= 0 or k > len(scores) returns every node.
func Top(scores []float64, k int, ascending bool) []Ranked {
	ranked := make([]Ranked, len(scores))
	for id, score := range scores {
		ranked[id] = Ranked{ID: id, Score: score}
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		c := cmp.Compare(a.Score, b.Score)
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
