package loans

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
)

// RatingStat is the observed default rate of one rating bucket.
type RatingStat struct {
	Rating      int     `json:"rating"`
	Borrowers   int     `json:"borrowers"`
	Defaults    int     `json:"defaults"`
	DefaultRate float64 `json:"default_rate"`
}

// DefaultRates groups records by the rating of their score. Records whose
// score has no rating are left out.
func DefaultRates(records []Record, ratings *bucketing.RatingMap) []RatingStat {
	outcomes := make(map[int][]float64)
	for _, r := range records {
		rating, ok := ratings.RatingFor(r.Score)
		if !ok {
			continue
		}
		outcome := 0.0
		if r.Defaulted {
			outcome = 1
		}
		outcomes[rating] = append(outcomes[rating], outcome)
	}

	stats := make([]RatingStat, 0, len(outcomes))
	for rating, values := range outcomes {
		defaults := 0
		for _, v := range values {
			defaults += int(v)
		}
		stats = append(stats, RatingStat{
			Rating:      rating,
			Borrowers:   len(values),
			Defaults:    defaults,
			DefaultRate: stat.Mean(values, nil),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Rating < stats[j].Rating
	})
	return stats
}
