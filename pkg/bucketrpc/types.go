package bucketrpc

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
)

const (
	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024 // 4MB

	// cost and DP tables are n x n float64 per request
	DefaultServerMaxScores = 2000

	// Client defaults
	DefaultClientTimeout = 30 // seconds
	DefaultRetryMax      = 3

	HealthRoute = "/health"
)

// Server represents the bucketing server
type Server struct {
	App      *fiber.App
	config   *ServerConfig
	pipeline *bucketing.BucketingPipeline
}

type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int
	MaxScores int // upper bound on scores per bucket request
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// RouterHandler is a generic handler function type
type RouterHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// BucketRequest asks for an optimal bucketing of scores. Zero values fall
// back to the server defaults.
type BucketRequest struct {
	Scores      []float64 `json:"scores"`
	Buckets     int       `json:"buckets,omitempty"`
	RatingOrder string    `json:"rating_order,omitempty"`
}

type BucketResponse struct {
	Ranges     []bucketing.ScoreRange `json:"ranges"`
	Boundaries []bucketing.Boundary   `json:"boundaries"`
	TotalMSE   float64                `json:"total_mse"`
	Shares     []float64              `json:"shares"`
}

// RatingRequest labels scores against previously computed ranges.
type RatingRequest struct {
	Ranges []bucketing.ScoreRange `json:"ranges"`
	Scores []float64              `json:"scores"`
}

// RatingResponse holds one rating per requested score, nil when unlabeled.
type RatingResponse struct {
	Ratings []*int `json:"ratings"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
