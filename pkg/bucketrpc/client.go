package bucketrpc

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client configuration
type ClientConfig struct {
	Timeout         time.Duration
	RetryMax        int
	ZstdCompression bool
}

type Client struct {
	config      *ClientConfig
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// NewClient creates a new bucketing client. Requests are retried on
// connection errors and 5xx responses.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = &ClientConfig{RetryMax: DefaultRetryMax, ZstdCompression: true}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.HTTPClient.Timeout = config.Timeout
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create zstd encoder")
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			encoder.Close()
			return nil, errors.Wrap(err, "failed to create zstd decoder")
		}
		client.decoder = decoder
	}

	log.Debug().
		Str("timeout", config.Timeout.String()).
		Int("retry_max", config.RetryMax).
		Bool("zstd", config.ZstdCompression).
		Msg("bucketing client initialized")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// Bucket asks the server at baseURL for an optimal bucketing.
func (c *Client) Bucket(ctx context.Context, baseURL string, request BucketRequest) (*BucketResponse, error) {
	return post[BucketRequest, BucketResponse](ctx, c, baseURL, request)
}

// Rate asks the server at baseURL to label scores against ranges.
func (c *Client) Rate(ctx context.Context, baseURL string, request RatingRequest) (*RatingResponse, error) {
	return post[RatingRequest, RatingResponse](ctx, c, baseURL, request)
}

// post sends request to the route named after Req and unwraps the
// StdResponse envelope.
func post[Req, Resp any](ctx context.Context, c *Client, baseURL string, request Req) (*Resp, error) {
	endpoint := strings.TrimSuffix(baseURL, "/") + "/" + reflect.TypeFor[Req]().Name()

	req := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	if c.encoder != nil {
		jsonData, err := sonic.Marshal(request)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		req = req.
			SetHeader("Accept-Encoding", "zstd").
			SetHeader("Content-Encoding", "zstd").
			SetBody(c.encoder.EncodeAll(jsonData, nil))
	} else {
		req = req.SetBody(request)
	}

	log.Trace().
		Str("endpoint", endpoint).
		Interface("request", request).
		Msg("sending request")

	resp, err := req.Post(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to make request to %s", endpoint)
	}

	responseBody := resp.Body()
	if c.decoder != nil && strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decompress response")
		}
		responseBody = decompressed
	}

	var envelope StdResponse[Resp]
	if err := sonic.Unmarshal(responseBody, &envelope); err != nil {
		if resp.IsError() {
			return nil, errors.Errorf("HTTP error %d: %s", resp.StatusCode(), string(responseBody))
		}
		return nil, errors.Wrap(err, "failed to unmarshal StdResponse")
	}
	if envelope.Error != nil {
		return nil, errors.Errorf("server error (HTTP %d): %s", resp.StatusCode(), *envelope.Error)
	}
	if resp.IsError() {
		return nil, errors.Errorf("HTTP error %d: %s", resp.StatusCode(), string(responseBody))
	}

	return &envelope.Body, nil
}
