// Package client provides the HTTP client for the enrichment batch API.
// It issues one POST per page against /enrich/batch and parses the
// next_after_key cursor from the response.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

// BatchEndpoint is the enrichment API path, relative to the base URL.
const BatchEndpoint = "/enrich/batch"

// Prometheus metrics for enrichment API operations.
var (
	enrichRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrich_requests_total",
		Help: "Total enrichment batch requests by status",
	}, []string{"status"})

	enrichRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "enrich_request_duration_seconds",
		Help:    "Enrichment batch request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	enrichErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrich_errors_total",
		Help: "Total enrichment request errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// BatchPage is one page of the enrichment API response. Body holds the
// raw response JSON so callers can emit it unchanged; NextAfterKey is
// the parsed pagination key, nil when the response carries none.
type BatchPage struct {
	Body         []byte
	NextAfterKey *cursor.Cursor
}

// HasNext reports whether the page points at a following page.
// A key without a name terminates pagination.
func (p *BatchPage) HasNext() bool {
	return p.NextAfterKey != nil && !p.NextAfterKey.IsZero()
}

// Client is the enrichment batch API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the enrichment API, without trailing slash.
	BaseURL string

	// UserAgent header sent on every request.
	UserAgent string

	// Limit is the page size requested from the API.
	Limit int

	// Timeout per batch request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "enrich-batch-client/0.1.0",
		Limit:     100,
		Timeout:   30 * time.Second,
	}
}

// New creates a new enrichment API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive (got %d)", cfg.Limit)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("enrich-client"),
	}, nil
}

// FetchBatch requests one page of the enrichment batch endpoint. A zero
// cursor fetches the first page unfiltered; otherwise the cursor fields
// are sent as start_after_name/start_after_birth query parameters.
// There are no retries: the first failure aborts and propagates.
func (c *Client) FetchBatch(ctx context.Context, cur cursor.Cursor) (*BatchPage, error) {
	requestURL := c.buildURL(cur)

	startTime := time.Now()
	defer func() {
		enrichRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", BatchEndpoint).
		Str("cursor_name", cur.Name).
		Str("cursor_birth", cur.Birth).
		Msg("Fetching enrichment batch")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		enrichErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		enrichRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", BatchEndpoint).Msg("Batch request failed")
		return nil, fmt.Errorf("batch request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		enrichErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	enrichRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		enrichErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("endpoint", BatchEndpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Batch request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	page, err := parsePage(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", BatchEndpoint).
		Int("status", resp.StatusCode).
		Bool("has_next", page.HasNext()).
		Dur("duration", time.Since(startTime)).
		Msg("Batch fetched")

	return page, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// buildURL assembles the batch URL. The query string is built by hand:
// start_after_name must be percent-encoded with %20 for spaces (not the
// form-encoded +), and start_after_birth goes on the wire verbatim, so
// url.Values.Encode cannot be used.
func (c *Client) buildURL(cur cursor.Cursor) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(c.config.BaseURL, "/"))
	b.WriteString(BatchEndpoint)
	b.WriteString("?limit=")
	b.WriteString(strconv.Itoa(c.config.Limit))

	if !cur.IsZero() {
		b.WriteString("&start_after_name=")
		b.WriteString(percentEncode(cur.Name))
		b.WriteString("&start_after_birth=")
		b.WriteString(cur.Birth)
	}

	return b.String()
}

// percentEncode query-escapes s with %20 for spaces.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// parsePage extracts the next_after_key from a batch response body.
func parsePage(body []byte) (*BatchPage, error) {
	var envelope struct {
		NextAfterKey *cursor.Cursor `json:"next_after_key"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse batch response: %w", err)
	}

	return &BatchPage{
		Body:         body,
		NextAfterKey: envelope.NextAfterKey,
	}, nil
}

// classifyStatus categorizes an HTTP status for observability and handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
