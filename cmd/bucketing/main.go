package main

import (
	"context"
	"flag"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
	"github.com/tensorplex-labs/scorebuckets/internal/config"
	"github.com/tensorplex-labs/scorebuckets/internal/loans"
	"github.com/tensorplex-labs/scorebuckets/internal/report"
	"github.com/tensorplex-labs/scorebuckets/internal/utils/logger"
)

const previewEntries = 10

var (
	buckets = flag.Int("buckets", 0, "number of rating buckets (overrides BUCKETS)")
	input   = flag.String("input", "", "loan data CSV (overrides LOAN_DATA_PATH)")
	output  = flag.String("output", "", "report path, .zst for compressed (overrides REPORT_PATH)")
	order   = flag.String("order", "", "rating order, ascending or descending (overrides RATING_ORDER)")
)

func main() {
	logger.Init()
	ctx := context.Background()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applyFlags(cfg)

	params, err := cfg.PipelineParams()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid bucketing configuration")
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
	log.Info().Int("records", len(records)).Str("path", cfg.LoanDataPath).Msg("Loaded loan data")

	pipeline := bucketing.NewBucketingPipeline(bucketing.WithPipelineParams(params))
	result, err := pipeline.Process(ctx, loans.Scores(records))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bucket scores")
	}

	log.Info().Float64("total_mse", result.TotalMSE).Msgf("Optimal bucketing into %d buckets", len(result.Ranges))
	for i, r := range result.Ranges {
		log.Info().
			Int("rating", r.Rating).
			Int("count", r.Count).
			Float64("share", result.Shares[i]).
			Msgf("bucket %d: [%d, %d]", i+1, r.Low, r.High)
	}

	dense := result.Ratings.Dense()
	for _, score := range slices.Sorted(maps.Keys(dense))[:min(previewEntries, len(dense))] {
		log.Info().Int("score", score).Int("rating", dense[score]).Msg("rating map entry")
	}

	rates := loans.DefaultRates(records, result.Ratings)
	for _, rate := range rates {
		log.Info().
			Int("rating", rate.Rating).
			Int("borrowers", rate.Borrowers).
			Int("defaults", rate.Defaults).
			Float64("default_rate", rate.DefaultRate).
			Msg("default rate")
	}

	if cfg.ReportPath == "" {
		return
	}
	if err := report.WriteFile(cfg.ReportPath, report.Build(result, rates)); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ReportPath).Msg("Failed to write report")
	}
	log.Info().Str("path", cfg.ReportPath).Msg("Report written")
}

func applyFlags(cfg *config.AppConfig) {
	if *buckets > 0 {
		cfg.Buckets = *buckets
	}
	if *input != "" {
		cfg.LoanDataPath = *input
	}
	if *output != "" {
		cfg.ReportPath = *output
	}
	if *order != "" {
		cfg.Order = *order
	}
}
