package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/scorebuckets/internal/config"
	"github.com/tensorplex-labs/scorebuckets/internal/loans"
	"github.com/tensorplex-labs/scorebuckets/internal/utils/logger"
	"github.com/tensorplex-labs/scorebuckets/pkg/bucketrpc"
)

const sampleSize = 10

var (
	serverURL = flag.String("url", "", "bucketing server base URL (overrides SERVER_URL)")
	input     = flag.String("input", "", "loan data CSV (overrides LOAN_DATA_PATH)")
	buckets   = flag.Int("buckets", 0, "number of rating buckets, 0 uses the server default")
	order     = flag.String("order", "", "rating order, empty uses the server default")
)

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *input != "" {
		cfg.LoanDataPath = *input
	}
	if cfg.LoanDataPath == "" {
		log.Fatal().Msg("No loan data given, set LOAN_DATA_PATH or pass -input")
	}

	records, err := loans.LoadCSVFile(cfg.LoanDataPath, loans.Columns{
		Score:   cfg.ScoreColumn,
		Default: cfg.DefaultColumn,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LoanDataPath).Msg("Failed to load loan data")
	}
	scores := loans.Scores(records)

	client, err := bucketrpc.NewClient(&bucketrpc.ClientConfig{
		Timeout:         cfg.ClientTimeout,
		RetryMax:        cfg.ClientRetryMax,
		ZstdCompression: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer client.Close()

	log.Info().
		Str("url", cfg.ServerURL).
		Str("environment", cfg.Environment).
		Int("scores", len(scores)).
		Msg("Sending bucket request")

	bucketed, err := client.Bucket(ctx, cfg.ServerURL, bucketrpc.BucketRequest{
		Scores:      scores,
		Buckets:     *buckets,
		RatingOrder: *order,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("BucketRequest failed")
	}

	log.Info().Float64("total_mse", bucketed.TotalMSE).Msgf("Server returned %d buckets", len(bucketed.Ranges))
	for i, r := range bucketed.Ranges {
		log.Info().
			Int("rating", r.Rating).
			Int("count", r.Count).
			Float64("share", bucketed.Shares[i]).
			Msgf("bucket %d: [%d, %d]", i+1, r.Low, r.High)
	}

	sample := sampleScores(scores, sampleSize)
	rated, err := client.Rate(ctx, cfg.ServerURL, bucketrpc.RatingRequest{
		Ranges: bucketed.Ranges,
		Scores: sample,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("RatingRequest failed")
	}
	for i, score := range sample {
		if rating := rated.Ratings[i]; rating != nil {
			log.Info().Float64("score", score).Int("rating", *rating).Msg("rated")
		} else {
			log.Info().Float64("score", score).Msg("unrated")
		}
	}
}

// sampleScores picks up to n evenly spaced scores, both ends included.
func sampleScores(scores []float64, n int) []float64 {
	if len(scores) <= n {
		return scores
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = scores[i*(len(scores)-1)/(n-1)]
	}
	return out
}
