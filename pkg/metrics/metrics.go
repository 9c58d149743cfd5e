// Package metrics provides the centralized Prometheus metrics registry for
// the enrichment batch client. All metrics are defined in their respective
// packages (client, walker, checkpoint, catalogue) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the batch client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - enrich_requests_total{status} (Counter): Total batch requests by HTTP status
//   - enrich_request_duration_seconds (Histogram): Batch request duration
//   - enrich_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Walk Metrics (pkg/walker):
//   - enrich_pages_walked_total (Counter): Pages fetched across all walks
//   - enrich_walks_total{outcome} (Counter): Walks by outcome (completed, aborted, cancelled)
//
// Checkpoint Metrics (pkg/checkpoint):
//   - enrich_checkpoint_saves_total (Counter): Checkpoint writes
//   - enrich_checkpoint_clears_total (Counter): Checkpoint removals on completion
//   - enrich_checkpoint_errors_total{operation} (Counter): Checkpoint errors by operation
//
// Catalogue Search Metrics (pkg/catalogue):
//   - catalogue_searches_total{status} (Counter): Total searches by HTTP status
//   - catalogue_search_duration_seconds (Histogram): Search duration
//
// Example Prometheus Queries:
//
//   # Pages per second during a walk
//   rate(enrich_pages_walked_total[5m])
//
//   # Abort ratio
//   sum(rate(enrich_walks_total{outcome="aborted"}[1h])) /
//   sum(rate(enrich_walks_total[1h]))
