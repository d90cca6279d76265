package bucketing

import (
	"gonum.org/v1/gonum/floats"
)

func L1Normalize(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	sum := floats.Sum(result)
	if sum > 0 {
		floats.Scale(1.0/sum, result)
	}

	return result
}

// BucketShares returns the fraction of the series that falls in each bucket.
func BucketShares(boundaries []Boundary) []float64 {
	counts := make([]float64, len(boundaries))
	for i, b := range boundaries {
		counts[i] = float64(b.Len())
	}
	return L1Normalize(counts)
}
