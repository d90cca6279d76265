package bucketing

import (
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type ScoreSeries []float64 // 1D: scores sorted ascending

// Boundary is an inclusive index range [Start, End] over a ScoreSeries.
type Boundary struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of scores in the bucket.
func (b Boundary) Len() int {
	return b.End - b.Start + 1
}

// ScoreRange is a bucket expressed in score units.
type ScoreRange struct {
	Low    int `json:"low"`
	High   int `json:"high"`
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type RatingOrder string

const (
	RatingAscending  RatingOrder = "ascending"  // 1 = lowest-score bucket
	RatingDescending RatingOrder = "descending" // 1 = highest-score bucket
)

// ParseRatingOrder accepts either order in any case. Empty means ascending.
func ParseRatingOrder(s string) (RatingOrder, error) {
	switch order := RatingOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case RatingAscending, RatingDescending:
		return order, nil
	case "":
		return RatingAscending, nil
	default:
		return "", errors.Wrapf(ErrInvalidConfiguration, "unknown rating order %q", s)
	}
}

// Plan holds the decision tables of one optimization run.
type Plan struct {
	DP   *mat.Dense // 2D: dp[i][b], n x (K+1), column 0 unused
	Path [][]int    // 2D: path[i][b], -1 where unset
	K    int
	N    int
}

type Result struct {
	Scores     ScoreSeries  // sorted copy of the input
	Boundaries []Boundary   // K index ranges, ascending
	Ranges     []ScoreRange // K score ranges, ascending
	TotalMSE   float64      // dp[n-1][K]
	Ratings    *RatingMap
	Shares     []float64 // 1D: share of the population per bucket
}
