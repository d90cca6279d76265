package bucketing

const (
	DefaultBuckets   = 5
	DefaultWorkers   = 1
	DefaultMaxScores = 10000
)

func DefaultPipelineParams() PipelineParams {
	return PipelineParams{
		Buckets:   DefaultBuckets,
		Order:     RatingAscending,
		Workers:   DefaultWorkers,
		MaxScores: DefaultMaxScores,
	}
}
