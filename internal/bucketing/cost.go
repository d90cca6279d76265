package bucketing

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CostTable holds the MSE of every contiguous segment of a series.
// Only the upper triangle (i <= j) is meaningful.
type CostTable struct {
	n     int
	costs *mat.Dense
}

// NewCostTable computes the segment costs in O(n^2) using a running mean and
// running sum of squared deviations per start index.
func NewCostTable(scores ScoreSeries) (*CostTable, error) {
	if err := validateScores(scores); err != nil {
		return nil, err
	}

	n := len(scores)
	t := &CostTable{n: n, costs: mat.NewDense(n, n, nil)}
	for i := range n {
		t.fillRow(scores, i)
	}

	log.Trace().Int("n", n).Msg("segment cost table built")
	return t, nil
}

// NewCostTableParallel computes the same table as NewCostTable, fanning rows
// out to at most workers goroutines.
func NewCostTableParallel(ctx context.Context, scores ScoreSeries, workers int) (*CostTable, error) {
	if workers <= 1 {
		return NewCostTable(scores)
	}
	if err := validateScores(scores); err != nil {
		return nil, err
	}

	n := len(scores)
	t := &CostTable{n: n, costs: mat.NewDense(n, n, nil)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.fillRow(scores, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "segment cost table")
	}

	log.Trace().Int("n", n).Int("workers", workers).Msg("segment cost table built")
	return t, nil
}

// NaiveCostTable computes every segment cost from scratch in O(n^3).
func NaiveCostTable(scores ScoreSeries) (*CostTable, error) {
	if err := validateScores(scores); err != nil {
		return nil, err
	}

	n := len(scores)
	t := &CostTable{n: n, costs: mat.NewDense(n, n, nil)}
	for i := range n {
		for j := i + 1; j < n; j++ {
			t.costs.Set(i, j, stat.PopVariance(scores[i:j+1], nil))
		}
	}
	return t, nil
}

// fillRow writes cost(i, j) for every j >= i. Rows never share cells, so
// concurrent calls for distinct i are safe.
func (t *CostTable) fillRow(scores ScoreSeries, i int) {
	row := t.costs.RawRowView(i)

	var mean, m2 float64
	for j := i; j < t.n; j++ {
		count := float64(j - i + 1)
		delta := scores[j] - mean
		mean += delta / count
		m2 += delta * (scores[j] - mean)
		row[j] = m2 / count
	}
}

// Cost returns the MSE of scores[i..j] about its own mean.
func (t *CostTable) Cost(i, j int) float64 {
	return t.costs.At(i, j)
}

// Len returns the length of the series the table was built from.
func (t *CostTable) Len() int {
	return t.n
}

func validateScores(scores ScoreSeries) error {
	if len(scores) == 0 {
		return errors.Wrap(ErrInvalidInput, "score series is empty")
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return errors.Wrapf(ErrInvalidInput, "score at index %d is not finite", i)
		}
	}
	return nil
}
