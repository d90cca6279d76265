// Package bucketing partitions sorted scores into rating buckets that
// minimize total within-bucket mean squared error.
package bucketing

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type PipelineParams struct {
	Buckets   int
	Order     RatingOrder
	Workers   int
	MaxScores int
}

type BucketingPipeline struct {
	Params PipelineParams
}

type BucketingPipelineOption func(*BucketingPipeline)

func WithBuckets(buckets int) BucketingPipelineOption {
	return func(p *BucketingPipeline) {
		p.Params.Buckets = buckets
	}
}

func WithRatingOrder(order RatingOrder) BucketingPipelineOption {
	return func(p *BucketingPipeline) {
		p.Params.Order = order
	}
}

func WithWorkers(workers int) BucketingPipelineOption {
	return func(p *BucketingPipeline) {
		p.Params.Workers = workers
	}
}

// WithMaxScores bounds the series length; the tables grow with its square.
// Zero disables the bound.
func WithMaxScores(maxScores int) BucketingPipelineOption {
	return func(p *BucketingPipeline) {
		p.Params.MaxScores = maxScores
	}
}

func WithPipelineParams(params PipelineParams) BucketingPipelineOption {
	return func(p *BucketingPipeline) {
		p.Params = params
	}
}

func NewBucketingPipeline(opts ...BucketingPipelineOption) *BucketingPipeline {
	p := &BucketingPipeline{
		Params: DefaultPipelineParams(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process sorts a copy of scores and runs the full optimization: cost table,
// DP, boundary reconstruction and rating map. It returns either a complete
// result or an error, never a partial result.
func (p *BucketingPipeline) Process(ctx context.Context, scores []float64) (*Result, error) {
	startTime := time.Now()

	order, err := ParseRatingOrder(string(p.Params.Order))
	if err != nil {
		return nil, err
	}
	if p.Params.MaxScores > 0 && len(scores) > p.Params.MaxScores {
		return nil, errors.Wrapf(ErrInvalidInput, "%d scores exceed the limit of %d", len(scores), p.Params.MaxScores)
	}
	// reject before the n x n tables are allocated
	if len(scores) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "score series is empty")
	}
	if k := p.Params.Buckets; k < 1 || k > len(scores) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "bucket count %d outside [1, %d]", k, len(scores))
	}

	sorted := ScoreSeries(slices.Clone(scores))
	slices.Sort(sorted)

	log.Debug().Int("n", len(sorted)).Any("params", p.Params).Msg("processing scores")

	costs, err := NewCostTableParallel(ctx, sorted, p.Params.Workers)
	if err != nil {
		return nil, err
	}

	plan, err := Optimize(costs, p.Params.Buckets)
	if err != nil {
		return nil, err
	}

	boundaries, err := Reconstruct(plan)
	if err != nil {
		return nil, err
	}

	ratings, err := NewRatingMap(sorted, boundaries, order)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Scores:     sorted,
		Boundaries: boundaries,
		Ranges:     ratings.Ranges(),
		TotalMSE:   plan.TotalCost(),
		Ratings:    ratings,
		Shares:     BucketShares(boundaries),
	}

	log.Debug().
		Int("n", len(sorted)).
		Int("buckets", len(boundaries)).
		Float64("total_mse", result.TotalMSE).
		Msgf("bucketed scores in %v", time.Since(startTime))
	return result, nil
}
