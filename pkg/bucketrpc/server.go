// Package bucketrpc exposes score bucketing over HTTP.
package bucketrpc

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
)

const shutdownTimeout = 5 * time.Second

// NewServer creates a new bucketing server. A nil config uses the defaults;
// pipeline supplies the parameters requests do not override.
func NewServer(serverConfig *ServerConfig, pipeline *bucketing.BucketingPipeline) *Server {
	if serverConfig == nil {
		serverConfig = &ServerConfig{
			Host:      DefaultServerHost,
			Port:      DefaultServerPort,
			BodyLimit: DefaultBodyLimit,
			MaxScores: DefaultServerMaxScores,
		}
	}
	if serverConfig.BodyLimit == 0 {
		serverConfig.BodyLimit = DefaultBodyLimit
	}
	if serverConfig.MaxScores <= 0 {
		serverConfig.MaxScores = DefaultServerMaxScores
	}
	if pipeline == nil {
		pipeline = bucketing.NewBucketingPipeline()
	}

	log.Info().
		Any("serverConfig", serverConfig).
		Any("pipeline", pipeline.Params).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             serverConfig.BodyLimit,
	})

	app.Use(recover.New()) // add panic recovery
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(ZstdMiddleware([]string{HealthRoute}))

	server := &Server{
		App:      app,
		config:   serverConfig,
		pipeline: pipeline,
	}

	app.Get(HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(createResponse(HealthResponse{Status: "ok"}, nil))
	})
	ServeRoute(server, server.handleBucket)
	ServeRoute(server, server.handleRating)

	return server
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusForError(err)

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// ServeRoute registers handler under POST /<request type name>.
func ServeRoute[Req, Resp any](s *Server, handler RouterHandler[Req, Resp]) {
	route := "/" + reflect.TypeFor[Req]().Name()

	s.App.Post(route, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", route).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]any{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			code := statusForError(err)
			log.Error().
				Err(err).
				Str("route", route).
				Int("status_code", code).
				Msg("Handler returned error")
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

func (s *Server) handleBucket(c *fiber.Ctx, req BucketRequest) (BucketResponse, error) {
	params := s.pipeline.Params
	if req.Buckets != 0 {
		params.Buckets = req.Buckets
	}
	if req.RatingOrder != "" {
		order, err := bucketing.ParseRatingOrder(req.RatingOrder)
		if err != nil {
			return BucketResponse{}, err
		}
		params.Order = order
	}
	if params.MaxScores <= 0 || params.MaxScores > s.config.MaxScores {
		params.MaxScores = s.config.MaxScores
	}

	result, err := bucketing.NewBucketingPipeline(bucketing.WithPipelineParams(params)).
		Process(c.UserContext(), req.Scores)
	if err != nil {
		return BucketResponse{}, err
	}

	log.Debug().
		Int("scores", len(req.Scores)).
		Int("buckets", params.Buckets).
		Float64("total_mse", result.TotalMSE).
		Msg("bucket request served")

	return BucketResponse{
		Ranges:     result.Ranges,
		Boundaries: result.Boundaries,
		TotalMSE:   result.TotalMSE,
		Shares:     result.Shares,
	}, nil
}

func (s *Server) handleRating(_ *fiber.Ctx, req RatingRequest) (RatingResponse, error) {
	if len(req.Ranges) == 0 {
		return RatingResponse{}, errors.Wrap(bucketing.ErrInvalidInput, "no ranges")
	}

	ratings, err := bucketing.NewRatingMapFromRanges(req.Ranges)
	if err != nil {
		return RatingResponse{}, err
	}

	out := make([]*int, len(req.Scores))
	for i, score := range req.Scores {
		if rating, ok := ratings.RatingFor(score); ok {
			out[i] = &rating
		}
	}
	return RatingResponse{Ratings: out}, nil
}

// Address returns the host:port the server listens on.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.App.Listen(s.Address())
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server listen failed")
	case <-ctx.Done():
	}

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	return s.App.ShutdownWithTimeout(shutdownTimeout)
}
