package wfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/footprint-extrusion/internal/config"
	"github.com/couchcryptid/footprint-extrusion/internal/domain"
	"github.com/couchcryptid/footprint-extrusion/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrNoData is returned when every attempt for a tile failed.
var ErrNoData = errors.New("no data")

// outcome classifies a single GetFeature attempt.
type outcome string

const (
	outcomeSuccess   outcome = "success"
	outcomeTruncated outcome = "truncated"
	outcomeInvalid   outcome = "invalid_payload"
	outcomeTransport outcome = "transport"
)

// attemptResult is either a validated payload or the reason the attempt failed.
type attemptResult struct {
	outcome outcome
	body    []byte
	err     error
}

func (r attemptResult) ok() bool { return r.outcome == outcomeSuccess }

// Client fetches building footprints from a WFS endpoint. It implements
// pipeline.TileFetcher.
type Client struct {
	baseURL     string
	typeName    string
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
	clock       clockwork.Clock
	metrics     *observability.Metrics
}

// NewClient creates a WFS client from the service configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:  cfg.WFSBaseURL,
		typeName: cfg.WFSTypeName,
		httpClient: &http.Client{
			Timeout: cfg.WFSTimeout,
		},
		maxAttempts: cfg.WFSMaxAttempts,
		backoff:     cfg.WFSRetryBackoff,
		clock:       clockwork.NewRealClock(),
		metrics:     metrics,
	}
}

// Fetch downloads the GeoJSON body for one bounding box. Failed attempts
// (truncated body, invalid payload, transport or HTTP errors) are retried
// after a fixed wait, up to the configured attempt count. When all attempts
// fail the error wraps ErrNoData; callers treat that as an empty tile.
func (c *Client) Fetch(ctx context.Context, bbox domain.BBox, logger *slog.Logger) ([]byte, error) {
	u := c.requestURL(bbox)
	logger.Info("downloading", "url", u)

	var last attemptResult
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		last = c.attempt(ctx, u)
		c.metrics.FetchAttempts.WithLabelValues(string(last.outcome)).Inc()
		if last.ok() {
			return last.body, nil
		}

		logger.Warn(failureMessage(last.outcome),
			"attempt", fmt.Sprintf("%d/%d", attempt, c.maxAttempts),
			"retrying", attempt < c.maxAttempts,
			"error", last.err,
		)
		if attempt == c.maxAttempts || !c.wait(ctx) {
			break
		}
	}

	logger.Error("failed to download data", "attempts", c.maxAttempts)
	return nil, fmt.Errorf("%w: %s: %v", ErrNoData, last.outcome, last.err)
}

func (c *Client) requestURL(bbox domain.BBox) string {
	params := url.Values{
		"service":      {"WFS"},
		"version":      {"1.1.0"},
		"request":      {"GetFeature"},
		"typeName":     {c.typeName},
		"outputFormat": {"application/json"},
		"srsName":      {domain.CRS},
		"bbox":         {bbox.String()},
	}
	return c.baseURL + "?" + params.Encode()
}

func (c *Client) attempt(ctx context.Context, u string) attemptResult {
	start := c.clock.Now()
	defer func() {
		c.metrics.FetchDuration.Observe(c.clock.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return attemptResult{outcome: outcomeTransport, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{outcome: outcomeTransport, err: fmt.Errorf("get feature request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return attemptResult{
			outcome: outcomeTransport,
			err:     fmt.Errorf("wfs error: status %d: %s", resp.StatusCode, snippet),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return attemptResult{outcome: outcomeTruncated, err: fmt.Errorf("read body: %w", err)}
		}
		return attemptResult{outcome: outcomeTransport, err: fmt.Errorf("read body: %w", err)}
	}

	if !utf8.Valid(body) {
		return attemptResult{outcome: outcomeInvalid, err: errors.New("body is not valid UTF-8")}
	}
	if !json.Valid(body) {
		return attemptResult{outcome: outcomeInvalid, err: errors.New("body is not valid JSON")}
	}
	return attemptResult{outcome: outcomeSuccess, body: body}
}

// wait blocks for the retry backoff. Returns false if the context ended first.
func (c *Client) wait(ctx context.Context) bool {
	if c.backoff <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(c.backoff):
		return true
	}
}

func failureMessage(o outcome) string {
	switch o {
	case outcomeTruncated:
		return "incomplete read"
	case outcomeInvalid:
		return "invalid JSON received"
	default:
		return "error downloading data"
	}
}
