package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
	"github.com/tensorplex-labs/scorebuckets/internal/config"
	"github.com/tensorplex-labs/scorebuckets/internal/utils/logger"
	"github.com/tensorplex-labs/scorebuckets/pkg/bucketrpc"
)

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	params, err := cfg.PipelineParams()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid bucketing configuration")
	}

	server := bucketrpc.NewServer(&bucketrpc.ServerConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		BodyLimit: cfg.BodyLimit,
		MaxScores: cfg.ServerMaxScores,
	}, bucketing.NewBucketingPipeline(bucketing.WithPipelineParams(params)))

	log.Info().
		Str("address", server.Address()).
		Str("environment", cfg.Environment).
		Int("max_scores", cfg.ServerMaxScores).
		Msg("Server starting")
	log.Info().Msg("  GET  " + bucketrpc.HealthRoute)
	log.Info().Msg("  POST /BucketRequest")
	log.Info().Msg("  POST /RatingRequest")

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server shut down")
}
