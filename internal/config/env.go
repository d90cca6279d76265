// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
)

type AppConfig struct {
	BucketingEnvConfig
	LoanDataEnvConfig
	ReportEnvConfig
	ServerEnvConfig
	ClientEnvConfig
	Environment string `env:"ENVIRONMENT, default=prod"`
}

func LoadConfig(ctx context.Context) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.RatingOrder(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BucketingEnvConfig configures the optimizer.
type BucketingEnvConfig struct {
	Buckets     int    `env:"BUCKETS, default=5"`
	Order       string `env:"RATING_ORDER, default=ascending"`
	CostWorkers int    `env:"COST_WORKERS, default=1"`
	MaxScores   int    `env:"MAX_SCORES, default=10000"`
}

// RatingOrder parses RATING_ORDER.
func (c BucketingEnvConfig) RatingOrder() (bucketing.RatingOrder, error) {
	return bucketing.ParseRatingOrder(c.Order)
}

// PipelineParams converts the env config into optimizer parameters.
func (c BucketingEnvConfig) PipelineParams() (bucketing.PipelineParams, error) {
	order, err := c.RatingOrder()
	if err != nil {
		return bucketing.PipelineParams{}, err
	}
	return bucketing.PipelineParams{
		Buckets:   c.Buckets,
		Order:     order,
		Workers:   c.CostWorkers,
		MaxScores: c.MaxScores,
	}, nil
}

// LoanDataEnvConfig locates the borrower data set.
type LoanDataEnvConfig struct {
	LoanDataPath  string `env:"LOAN_DATA_PATH"`
	ScoreColumn   string `env:"SCORE_COLUMN, default=fico_score"`
	DefaultColumn string `env:"DEFAULT_COLUMN, default=default"`
}

// ReportEnvConfig configures where results are written. Empty disables the report.
type ReportEnvConfig struct {
	ReportPath string `env:"REPORT_PATH"`
}

// ServerEnvConfig configures the server.
type ServerEnvConfig struct {
	Host      string `env:"SERVER_HOST, default=0.0.0.0"`
	Port      int    `env:"SERVER_PORT, default=8888"`
	BodyLimit int    `env:"SERVER_BODY_LIMIT, default=4194304"`
	// per-request bound on the series length
	ServerMaxScores int `env:"SERVER_MAX_SCORES, default=2000"`
}

// ClientEnvConfig configures the client.
type ClientEnvConfig struct {
	ServerURL      string        `env:"SERVER_URL, default=http://localhost:8888"`
	ClientTimeout  time.Duration `env:"CLIENT_TIMEOUT, default=30s"`
	ClientRetryMax int           `env:"CLIENT_RETRY_MAX, default=3"`
}
