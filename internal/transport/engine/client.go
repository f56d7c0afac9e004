// Package engine is the HTTP client for the remote database engine.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
	"github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/metrics"
)

// Engine endpoints.
const (
	EndpointQuery       = "/query"
	EndpointUpload      = "/upload"
	EndpointCreateIndex = "/create_index"
	EndpointHealth      = "/health"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 32 << 20
)

// Client talks to the engine over its JSON/HTTP contract.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Config holds the engine client settings.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64 // <= 0 disables throttling
	RateLimitBurst int
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// NewClient creates an engine client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := cfg.RateLimitBurst
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	if burst <= 0 {
		burst = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type createIndexRequest struct {
	IndexType string `json:"index_type"`
	TableName string `json:"table_name"`
}

// Query sends a query string. ok:false envelopes are returned as-is.
func (c *Client) Query(ctx context.Context, query string) (envelope.Envelope, error) {
	body, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("marshal query: %w", err)
	}
	var env envelope.Envelope
	if err := c.do(ctx, EndpointQuery, http.MethodPost, "application/json", bytes.NewReader(body), &env); err != nil {
		return envelope.Envelope{}, err
	}
	return env, nil
}

// CreateIndex asks the engine to build an index of kind over table.
func (c *Client) CreateIndex(ctx context.Context, table string, kind index.Kind) (envelope.Envelope, error) {
	body, err := json.Marshal(createIndexRequest{IndexType: string(kind), TableName: table})
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("marshal create index: %w", err)
	}
	var env envelope.Envelope
	if err := c.do(ctx, EndpointCreateIndex, http.MethodPost, "application/json", bytes.NewReader(body), &env); err != nil {
		return envelope.Envelope{}, err
	}
	return env, nil
}

// Upload streams a CSV file as multipart `file` + `table_name`.
func (c *Client) Upload(ctx context.Context, fileName, table string, r io.Reader) (envelope.Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return envelope.Upload{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return envelope.Upload{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.WriteField("table_name", table); err != nil {
		return envelope.Upload{}, fmt.Errorf("write table name: %w", err)
	}
	if err := mw.Close(); err != nil {
		return envelope.Upload{}, fmt.Errorf("close multipart: %w", err)
	}

	var up envelope.Upload
	if err := c.do(ctx, EndpointUpload, http.MethodPost, mw.FormDataContentType(), &buf, &up); err != nil {
		return envelope.Upload{}, err
	}
	return up, nil
}

// Health reads the engine's health report.
func (c *Client) Health(ctx context.Context) (envelope.Health, error) {
	var h envelope.Health
	if err := c.do(ctx, EndpointHealth, http.MethodGet, "", nil, &h); err != nil {
		return envelope.Health{}, err
	}
	return h, nil
}

// do sends one request and decodes the JSON body into out.
// A non-2xx response whose body decodes as a failure envelope is not a transport error.
func (c *Client) do(ctx context.Context, endpoint, method, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.fail(endpoint, "throttled")
		return fmt.Errorf("engine %s: wait for rate limiter: %w: %w", endpoint, err, domain.ErrRemoteFailure)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	metrics.EngineRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if err != nil {
		c.fail(endpoint, "transport")
		c.logger.Warn("engine request failed",
			zap.String("endpoint", endpoint), zap.Duration("duration", duration), zap.Error(err))
		return fmt.Errorf("engine %s: %w: %w", endpoint, err, domain.ErrRemoteFailure)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.fail(endpoint, "read_body")
		return fmt.Errorf("engine %s: read body: %w: %w", endpoint, err, domain.ErrRemoteFailure)
	}

	c.logger.Debug("engine request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("duration", duration),
	)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	decodeErr := json.Unmarshal(raw, out)

	switch {
	case success && decodeErr != nil:
		c.fail(endpoint, "decode")
		return fmt.Errorf("engine %s: %w: %w", endpoint, domain.ErrMalformedResponse, decodeErr)
	case !success && (decodeErr != nil || !carriesFailure(out)):
		c.fail(endpoint, "status_"+strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("engine %s: unexpected status %d: %w", endpoint, resp.StatusCode, domain.ErrRemoteFailure)
	}

	status := "ok"
	if !success || !reportsOK(out) {
		status = "remote_error"
	}
	metrics.EngineRequestsTotal.WithLabelValues(endpoint, status).Inc()
	return nil
}

func (c *Client) fail(endpoint, errType string) {
	metrics.EngineRequestsTotal.WithLabelValues(endpoint, "error").Inc()
	metrics.EngineErrorsTotal.WithLabelValues(endpoint, errType).Inc()
}

// carriesFailure reports whether a decoded body is an ok:false envelope with a message.
func carriesFailure(out any) bool {
	switch v := out.(type) {
	case *envelope.Envelope:
		return !v.OK && (v.Error != "" || v.Message != "")
	case *envelope.Upload:
		return !v.OK && (v.Error != "" || v.Message != "")
	default:
		return false
	}
}

func reportsOK(out any) bool {
	switch v := out.(type) {
	case *envelope.Envelope:
		return v.OK
	case *envelope.Upload:
		return v.OK
	default:
		return true
	}
}
