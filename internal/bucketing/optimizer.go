package bucketing

import (
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

const unsetSplit = -1

// Optimize finds the partition of the series behind costs into exactly k
// contiguous, non-empty buckets with minimum total MSE.
//
// dp[i][b] is the best total for scores[0..i] in b buckets and path[i][b] the
// last index of the first b-1 buckets in that partition. Ties keep the
// earliest split.
func Optimize(costs *CostTable, k int) (*Plan, error) {
	if costs == nil || costs.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "score series is empty")
	}
	n := costs.Len()
	if k < 1 || k > n {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "bucket count %d outside [1, %d]", k, n)
	}

	dp := mat.NewDense(n, k+1, nil)
	path := make([][]int, n)
	for i := range n {
		path[i] = make([]int, k+1)
		for b := range k + 1 {
			dp.Set(i, b, math.Inf(1))
			path[i][b] = unsetSplit
		}
	}

	for i := range n {
		dp.Set(i, 1, costs.Cost(0, i))
	}

	for b := 2; b <= k; b++ {
		for i := b - 1; i < n; i++ {
			best := math.Inf(1)
			split := unsetSplit
			for j := b - 2; j < i; j++ {
				total := dp.At(j, b-1) + costs.Cost(j+1, i)
				if total < best {
					best = total
					split = j
				}
			}
			dp.Set(i, b, best)
			path[i][b] = split
		}
	}

	plan := &Plan{DP: dp, Path: path, K: k, N: n}
	log.Debug().Int("n", n).Int("buckets", k).Float64("total_mse", plan.TotalCost()).Msg("bucket optimization finished")
	return plan, nil
}

// TotalCost returns dp[n-1][K], the minimum total MSE.
func (p *Plan) TotalCost() float64 {
	return p.DP.At(p.N-1, p.K)
}

// Cost returns dp[i][b].
func (p *Plan) Cost(i, b int) float64 {
	return p.DP.At(i, b)
}
