package bucketing

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingMap_FromRanges(t *testing.T) {
	ratings, err := NewRatingMapFromRanges([]ScoreRange{
		{Low: 700, High: 900, Rating: 3},
		{Low: 300, High: 399, Rating: 1},
		{Low: 400, High: 699, Rating: 2},
	})
	require.NoError(t, err)

	tests := []struct {
		score  int
		rating int
		ok     bool
	}{
		{450, 2, true},
		{250, 0, false},
		{900, 3, true},
		{901, 0, false},
		{300, 1, true},
		{399, 1, true},
		{400, 2, true},
		{699, 2, true},
		{700, 3, true},
	}

	for _, tt := range tests {
		rating, ok := ratings.Rating(tt.score)
		assert.Equal(t, tt.ok, ok, "score %d", tt.score)
		assert.Equal(t, tt.rating, rating, "score %d", tt.score)
	}
}

func TestRatingMap_FromRangesRejectsInvertedRange(t *testing.T) {
	_, err := NewRatingMapFromRanges([]ScoreRange{{Low: 500, High: 400, Rating: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRatingMap_FromRangesRejectsOverlap(t *testing.T) {
	tests := []struct {
		name   string
		ranges []ScoreRange
	}{
		{"nested", []ScoreRange{{Low: 300, High: 400, Rating: 1}, {Low: 310, High: 320, Rating: 2}}},
		{"crossing", []ScoreRange{{Low: 500, High: 650, Rating: 2}, {Low: 300, High: 550, Rating: 1}}},
		{"same start", []ScoreRange{{Low: 300, High: 400, Rating: 1}, {Low: 300, High: 350, Rating: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRatingMapFromRanges(tt.ranges)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRatingMap_FromRangesSharedEndpointAgreesWithDense(t *testing.T) {
	ratings, err := NewRatingMapFromRanges([]ScoreRange{
		{Low: 300, High: 400, Rating: 1},
		{Low: 400, High: 400, Rating: 2},
		{Low: 400, High: 500, Rating: 3},
	})
	require.NoError(t, err)

	dense := ratings.Dense()
	for score := 300; score <= 500; score++ {
		rating, ok := ratings.Rating(score)
		require.True(t, ok, "score %d", score)
		assert.Equal(t, dense[score], rating, "score %d", score)
	}
	rating, _ := ratings.Rating(400)
	assert.Equal(t, 3, rating)
}

func TestNewRatingMap_Ascending(t *testing.T) {
	ratings, err := NewRatingMap(clusteredScores, []Boundary{{0, 2}, {3, 5}, {6, 6}}, RatingAscending)
	require.NoError(t, err)

	want := []ScoreRange{
		{Low: 300, High: 400, Rating: 1, Count: 3},
		{Low: 600, High: 650, Rating: 2, Count: 3},
		{Low: 900, High: 900, Rating: 3, Count: 1},
	}
	if diff := cmp.Diff(want, ratings.Ranges()); diff != "" {
		t.Fatalf("ranges mismatch (-want +got):\n%s", diff)
	}

	rating, ok := ratings.Rating(325)
	assert.True(t, ok, "unobserved score inside a span is labeled")
	assert.Equal(t, 1, rating)

	_, ok = ratings.Rating(500)
	assert.False(t, ok, "score between spans is unlabeled")

	assert.Len(t, ratings.Dense(), 101+51+1)
	assert.Equal(t, 3, ratings.Len())
}

func TestNewRatingMap_Descending(t *testing.T) {
	ratings, err := NewRatingMap(clusteredScores, []Boundary{{0, 2}, {3, 5}, {6, 6}}, RatingDescending)
	require.NoError(t, err)

	for score, want := range map[int]int{300: 3, 620: 2, 900: 1} {
		rating, ok := ratings.Rating(score)
		require.True(t, ok)
		assert.Equal(t, want, rating, "score %d", score)
	}
}

func TestNewRatingMap_SharedIntegerGoesToLaterBucket(t *testing.T) {
	ratings, err := NewRatingMap(ScoreSeries{600.2, 600.7}, []Boundary{{0, 0}, {1, 1}}, RatingAscending)
	require.NoError(t, err)

	rating, ok := ratings.Rating(600)
	require.True(t, ok)
	assert.Equal(t, 2, rating)
	assert.Equal(t, map[int]int{600: 2}, ratings.Dense())
}

func TestNewRatingMap_InvalidBoundaries(t *testing.T) {
	_, err := NewRatingMap(clusteredScores, []Boundary{{0, 2}, {4, 6}}, RatingAscending)
	assert.ErrorIs(t, err, ErrReconstruction)
}

func TestRatingMap_RatingFor(t *testing.T) {
	ratings, err := NewRatingMap(clusteredScores, []Boundary{{0, 2}, {3, 5}, {6, 6}}, RatingAscending)
	require.NoError(t, err)

	tests := []struct {
		name   string
		score  float64
		rating int
		ok     bool
	}{
		{"fractional inside span", 620.9, 2, true},
		{"truncates onto upper edge", 900.7, 3, true},
		{"below lowest", 299.0, 0, false},
		{"NaN", math.NaN(), 0, false},
		{"positive infinity", math.Inf(1), 0, false},
		{"negative infinity", math.Inf(-1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, ok := ratings.RatingFor(tt.score)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.rating, rating)
		})
	}
}
