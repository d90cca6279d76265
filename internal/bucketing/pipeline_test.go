package bucketing

import (
	"context"
	"math/rand/v2"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestNewBucketingPipeline_Defaults(t *testing.T) {
	p := NewBucketingPipeline()
	assert.Equal(t, DefaultPipelineParams(), p.Params)
}

func TestNewBucketingPipeline_Options(t *testing.T) {
	p := NewBucketingPipeline(
		WithBuckets(3),
		WithRatingOrder(RatingDescending),
		WithWorkers(4),
		WithMaxScores(100),
	)

	assert.Equal(t, PipelineParams{Buckets: 3, Order: RatingDescending, Workers: 4, MaxScores: 100}, p.Params)

	params := PipelineParams{Buckets: 7, Order: RatingAscending}
	assert.Equal(t, params, NewBucketingPipeline(WithPipelineParams(params)).Params)
}

func TestBucketingPipeline_Process(t *testing.T) {
	unsorted := []float64{900, 620, 300, 650, 400, 600, 350}
	input := append([]float64(nil), unsorted...)

	result, err := NewBucketingPipeline(WithBuckets(3)).Process(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, unsorted, input, "input must not be reordered")
	assert.Equal(t, clusteredScores, result.Scores)
	assert.Equal(t, []Boundary{{0, 2}, {3, 5}, {6, 6}}, result.Boundaries)
	assert.InDelta(t, 2088.888888, result.TotalMSE, 1e-5)
	assert.Equal(t, []ScoreRange{
		{Low: 300, High: 400, Rating: 1, Count: 3},
		{Low: 600, High: 650, Rating: 2, Count: 3},
		{Low: 900, High: 900, Rating: 3, Count: 1},
	}, result.Ranges)
	assert.InDelta(t, 1.0, floats.Sum(result.Shares), 1e-12)
	assert.InDelta(t, 3.0/7, result.Shares[0], 1e-12)

	rating, ok := result.Ratings.RatingFor(612)
	require.True(t, ok)
	assert.Equal(t, 2, rating)
}

func TestBucketingPipeline_ProcessParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 4))
	scores := randomScores(rng, 150)

	seq, err := NewBucketingPipeline(WithBuckets(5)).Process(context.Background(), scores)
	require.NoError(t, err)
	par, err := NewBucketingPipeline(WithBuckets(5), WithWorkers(6)).Process(context.Background(), scores)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par, cmp.AllowUnexported(RatingMap{})); diff != "" {
		t.Errorf("parallel result mismatch (-seq +par):\n%s", diff)
	}
}

func TestBucketingPipeline_ProcessErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []BucketingPipelineOption
		scores  []float64
		wantErr error
	}{
		{"empty", nil, nil, ErrInvalidInput},
		{"too many buckets", []BucketingPipelineOption{WithBuckets(5)}, []float64{1, 2, 3}, ErrInvalidConfiguration},
		{"zero buckets", []BucketingPipelineOption{WithBuckets(0)}, []float64{1, 2, 3}, ErrInvalidConfiguration},
		{"unknown order", []BucketingPipelineOption{WithRatingOrder("sideways")}, []float64{1, 2, 3, 4, 5}, ErrInvalidConfiguration},
		{"over max scores", []BucketingPipelineOption{WithBuckets(1), WithMaxScores(2)}, []float64{1, 2, 3}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewBucketingPipeline(tt.opts...).Process(context.Background(), tt.scores)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}

func TestBucketingPipeline_ProcessRejectsBucketCountBeforeBuildingTables(t *testing.T) {
	scores := make([]float64, 5000)
	for i := range scores {
		scores[i] = float64(300 + i%550)
	}
	pipeline := NewBucketingPipeline(WithBuckets(len(scores)+1), WithMaxScores(0))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	result, err := pipeline.Process(context.Background(), scores)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Nil(t, result)
	// a 5000 x 5000 cost table alone is 200MB
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func TestBucketingPipeline_ProcessRatingOrderIgnoresCase(t *testing.T) {
	result, err := NewBucketingPipeline(WithBuckets(3), WithRatingOrder("Descending")).
		Process(context.Background(), clusteredScores)
	require.NoError(t, err)

	rating, ok := result.Ratings.Rating(900)
	require.True(t, ok)
	assert.Equal(t, 1, rating)
}

func TestParseRatingOrder(t *testing.T) {
	tests := []struct {
		in   string
		want RatingOrder
	}{
		{"", RatingAscending},
		{"ascending", RatingAscending},
		{" ASCENDING ", RatingAscending},
		{"Descending", RatingDescending},
	}
	for _, tt := range tests {
		order, err := ParseRatingOrder(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, order, tt.in)
	}

	_, err := ParseRatingOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestBucketingPipeline_MaxScoresDisabled(t *testing.T) {
	result, err := NewBucketingPipeline(WithBuckets(2), WithMaxScores(0)).Process(context.Background(), []float64{5, 1, 3})
	require.NoError(t, err)
	assert.Len(t, result.Boundaries, 2)
}

func TestL1Normalize(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.75}, L1Normalize([]float64{1, 3}))
	assert.Equal(t, []float64{0, 0}, L1Normalize([]float64{0, 0}))
}
