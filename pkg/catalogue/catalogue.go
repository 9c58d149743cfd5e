// Package catalogue provides the catalogue search client. It combines a
// semantic (ELSER text_expansion) query with a boosted keyword multi_match
// against an Elasticsearch index and trims each hit down to a title and
// summary.
package catalogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

// elserModelID is the ELSER model the index's descriptive tokens were
// built with; the text_expansion clause must name the same model.
const elserModelID = ".elser_model_2_linux-x86_64"

// noSummary is returned when a hit carries no description.
const noSummary = "No summary available."

// Prometheus metrics for catalogue search operations.
var (
	catalogueSearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_searches_total",
		Help: "Total catalogue searches by status",
	}, []string{"status"})

	catalogueSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalogue_search_duration_seconds",
		Help:    "Catalogue search duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

// Query holds one catalogue search. SemanticQuery and Keywords drive the
// two query clauses; the remaining fields are optional filters that are
// only applied when non-empty.
type Query struct {
	SemanticQuery string
	Keywords      string
	Language      string
	PubDateFrom   string
	PubDateTo     string
	Format        string
}

// Result is one catalogue hit, trimmed to what callers display.
type Result struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Client is the catalogue search client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// ElasticURL is the Elasticsearch base URL, without trailing slash.
	ElasticURL string

	// Index is the catalogue index to search.
	Index string

	// Size is the number of hits requested per search.
	Size int

	// Timeout per search request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(elasticURL, index string) Config {
	return Config{
		ElasticURL: elasticURL,
		Index:      index,
		Size:       3,
		Timeout:    30 * time.Second,
	}
}

// New creates a new catalogue search client.
func New(cfg Config) (*Client, error) {
	if cfg.ElasticURL == "" {
		return nil, fmt.Errorf("elastic URL is required")
	}

	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	if cfg.Size <= 0 {
		cfg.Size = 3
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("catalogue-search"),
	}, nil
}

// Search runs one catalogue search and returns the trimmed hits.
func (c *Client) Search(ctx context.Context, q Query) ([]Result, error) {
	body, err := json.Marshal(buildQuery(q, c.config.Size))
	if err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	searchURL := fmt.Sprintf("%s/%s/_search",
		strings.TrimSuffix(c.config.ElasticURL, "/"), c.config.Index)

	startTime := time.Now()
	defer func() {
		catalogueSearchDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("index", c.config.Index).
		Str("semantic_query", q.SemanticQuery).
		Msg("Searching catalogue")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		catalogueSearchesTotal.WithLabelValues("network_error").Inc()
		c.logger.Error().Err(err).Str("index", c.config.Index).Msg("Search request failed")
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		catalogueSearchesTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	catalogueSearchesTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("index", c.config.Index).
			Int("status", resp.StatusCode).
			Msg("Search request error")
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, resp.Status)
	}

	results, err := parseHits(respBody)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("index", c.config.Index).
		Int("results", len(results)).
		Dur("duration", time.Since(startTime)).
		Msg("Search complete")

	return results, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// buildQuery assembles the Elasticsearch bool query: the semantic clause
// is required, the keyword clause only boosts, and each filter is applied
// when its field is set.
func buildQuery(q Query, size int) map[string]any {
	filters := []any{}

	if q.Language != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"language": q.Language},
		})
	}

	if q.PubDateFrom != "" || q.PubDateTo != "" {
		dateRange := map[string]any{}
		if q.PubDateFrom != "" {
			dateRange["gte"] = q.PubDateFrom
		}
		if q.PubDateTo != "" {
			dateRange["lte"] = q.PubDateTo
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"publication_date": dateRange},
		})
	}

	if q.Format != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"manifestation_type": q.Format},
		})
	}

	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"text_expansion": map[string]any{
							"merged_descriptives.tokens": map[string]any{
								"model_id":   elserModelID,
								"model_text": q.SemanticQuery,
							},
						},
					},
				},
				"should": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query": q.Keywords,
							"fields": []string{
								"title^3",
								"expression_title^2",
								"creator_name^2",
								"subjects^1.5",
								"genres^1.2",
								"statement_of_responsibility",
							},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": filters,
			},
		},
	}
}

// parseHits trims the Elasticsearch hits to title + summary. The work
// title falls back to the expression title and the summary to a fixed
// placeholder when the source lacks a description.
func parseHits(body []byte) ([]Result, error) {
	var envelope struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Title           string `json:"title"`
					ExpressionTitle string `json:"expression_title"`
					Description     string `json:"description"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]Result, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		title := hit.Source.Title
		if title == "" {
			title = hit.Source.ExpressionTitle
		}
		summary := hit.Source.Description
		if summary == "" {
			summary = noSummary
		}
		results = append(results, Result{Title: title, Summary: summary})
	}

	return results, nil
}
