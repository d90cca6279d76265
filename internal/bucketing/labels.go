package bucketing

import (
	"math"
	"slices"
	"sort"

	"github.com/pkg/errors"
)

// RatingMap maps integer scores to bucket ratings. It is dense over every
// bucket's [Low, High] span and undefined outside of them.
type RatingMap struct {
	ranges []ScoreRange // ordered by bucket, i.e. ascending Low
}

// BuildScoreRanges expresses boundaries in score units. Scores are truncated
// to integers and ratings are assigned by bucket order.
func BuildScoreRanges(scores ScoreSeries, boundaries []Boundary, order RatingOrder) ([]ScoreRange, error) {
	if err := ValidatePartition(boundaries, len(scores)); err != nil {
		return nil, err
	}

	k := len(boundaries)
	ranges := make([]ScoreRange, k)
	for idx, b := range boundaries {
		rating := idx + 1
		if order == RatingDescending {
			rating = k - idx
		}
		ranges[idx] = ScoreRange{
			Low:    int(scores[b.Start]),
			High:   int(scores[b.End]),
			Rating: rating,
			Count:  b.Len(),
		}
	}
	return ranges, nil
}

// NewRatingMap builds the rating map for the given partition of scores.
func NewRatingMap(scores ScoreSeries, boundaries []Boundary, order RatingOrder) (*RatingMap, error) {
	ranges, err := BuildScoreRanges(scores, boundaries, order)
	if err != nil {
		return nil, err
	}
	return &RatingMap{ranges: ranges}, nil
}

// NewRatingMapFromRanges builds a rating map from ranges that were computed
// elsewhere, e.g. a stored report. Ranges may share an endpoint but must not
// otherwise overlap.
func NewRatingMapFromRanges(ranges []ScoreRange) (*RatingMap, error) {
	sorted := slices.Clone(ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Low < sorted[j].Low
	})
	for i, r := range sorted {
		if r.High < r.Low {
			return nil, errors.Wrapf(ErrInvalidInput, "score range [%d, %d] is inverted", r.Low, r.High)
		}
		if i > 0 && r.Low < sorted[i-1].High {
			prev := sorted[i-1]
			return nil, errors.Wrapf(ErrInvalidInput, "score range [%d, %d] overlaps [%d, %d]",
				r.Low, r.High, prev.Low, prev.High)
		}
	}
	return &RatingMap{ranges: sorted}, nil
}

// Rating returns the rating of score, or false when no bucket span contains it.
// When two spans share an integer the later bucket wins.
func (m *RatingMap) Rating(score int) (int, bool) {
	// last range starting at or before score
	idx := sort.Search(len(m.ranges), func(i int) bool {
		return m.ranges[i].Low > score
	}) - 1
	if idx < 0 || score > m.ranges[idx].High {
		return 0, false
	}
	return m.ranges[idx].Rating, true
}

// RatingFor truncates score to an integer and looks it up.
func (m *RatingMap) RatingFor(score float64) (int, bool) {
	if math.IsNaN(score) || score <= math.MinInt32 || score >= math.MaxInt32 {
		return 0, false
	}
	return m.Rating(int(score))
}

// Dense expands the map into an explicit score -> rating table.
func (m *RatingMap) Dense() map[int]int {
	dense := make(map[int]int)
	for _, r := range m.ranges {
		for score := r.Low; score <= r.High; score++ {
			dense[score] = r.Rating
		}
	}
	return dense
}

// Ranges returns a copy of the bucket ranges in ascending score order.
func (m *RatingMap) Ranges() []ScoreRange {
	return slices.Clone(m.ranges)
}

// Len returns the number of buckets.
func (m *RatingMap) Len() int {
	return len(m.ranges)
}
