package bucketing

import (
	"slices"

	"github.com/pkg/errors"
)

// Reconstruct walks the path table back from (n-1, K) and returns the K
// bucket boundaries in ascending order.
func Reconstruct(plan *Plan) ([]Boundary, error) {
	if plan == nil || plan.N == 0 || plan.K < 1 {
		return nil, errors.Wrap(ErrReconstruction, "empty plan")
	}

	boundaries := make([]Boundary, 0, plan.K)
	i := plan.N - 1
	for b := plan.K; b > 0; b-- {
		if i < 0 {
			return nil, errors.Wrapf(ErrReconstruction, "ran out of scores with %d buckets left", b)
		}

		split := unsetSplit
		if b > 1 {
			split = plan.Path[i][b]
			if split == unsetSplit {
				return nil, errors.Wrapf(ErrReconstruction, "unset path entry at (%d, %d)", i, b)
			}
		}

		boundaries = append(boundaries, Boundary{Start: split + 1, End: i})
		i = split
	}
	slices.Reverse(boundaries)

	if err := ValidatePartition(boundaries, plan.N); err != nil {
		return nil, err
	}
	return boundaries, nil
}

// ValidatePartition checks that boundaries cover [0, n-1] exactly once with
// non-empty, ascending, contiguous ranges.
func ValidatePartition(boundaries []Boundary, n int) error {
	if len(boundaries) == 0 {
		return errors.Wrap(ErrReconstruction, "no boundaries")
	}

	next := 0
	for idx, b := range boundaries {
		if b.Start != next {
			return errors.Wrapf(ErrReconstruction, "bucket %d starts at %d, want %d", idx, b.Start, next)
		}
		if b.End < b.Start {
			return errors.Wrapf(ErrReconstruction, "bucket %d is empty: [%d, %d]", idx, b.Start, b.End)
		}
		next = b.End + 1
	}
	if next != n {
		return errors.Wrapf(ErrReconstruction, "boundaries end at %d, want %d", next-1, n-1)
	}
	return nil
}
