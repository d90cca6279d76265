package bucketing

import (
	"math/rand/v2"
	"slices"
)

var clusteredScores = ScoreSeries{300, 350, 400, 600, 620, 650, 900}

// randomScores returns n sorted integer-valued scores in [300, 850].
func randomScores(rng *rand.Rand, n int) ScoreSeries {
	scores := make(ScoreSeries, n)
	for i := range scores {
		scores[i] = float64(300 + rng.IntN(551))
	}
	slices.Sort(scores)
	return scores
}

// allPartitions enumerates every split of [0, n-1] into k non-empty
// contiguous buckets.
func allPartitions(n, k int) [][]Boundary {
	var out [][]Boundary
	var walk func(start, left int, acc []Boundary)
	walk = func(start, left int, acc []Boundary) {
		if left == 1 {
			out = append(out, append(slices.Clone(acc), Boundary{Start: start, End: n - 1}))
			return
		}
		for end := start; end <= n-left; end++ {
			walk(end+1, left-1, append(acc, Boundary{Start: start, End: end}))
		}
	}
	walk(0, k, nil)
	return out
}

func partitionCost(costs *CostTable, boundaries []Boundary) float64 {
	var total float64
	for _, b := range boundaries {
		total += costs.Cost(b.Start, b.End)
	}
	return total
}
