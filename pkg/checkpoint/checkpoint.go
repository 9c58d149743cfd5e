// Package checkpoint persists the pagination cursor between runs so an
// interrupted walk can resume where it stopped. The checkpoint is written
// after every page that carries a next key and removed when the server
// signals the final page.
package checkpoint

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
)

// Prometheus metrics for checkpoint operations.
var (
	checkpointSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrich_checkpoint_saves_total",
		Help: "Total checkpoint writes",
	})

	checkpointClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrich_checkpoint_clears_total",
		Help: "Total checkpoint removals on walk completion",
	})

	checkpointErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrich_checkpoint_errors_total",
		Help: "Total checkpoint errors by operation",
	}, []string{"operation"})
)

// Store persists the resume cursor.
type Store interface {
	// Load returns the persisted cursor. The bool is false when no
	// checkpoint exists, which means the walk starts from the beginning.
	Load(ctx context.Context) (cursor.Cursor, bool, error)

	// Save overwrites the checkpoint with the given cursor.
	Save(ctx context.Context, cur cursor.Cursor) error

	// Clear removes the checkpoint. Clearing a missing checkpoint is
	// not an error.
	Clear(ctx context.Context) error
}
