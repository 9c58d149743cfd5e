// Package walker drives cursor pagination over the enrichment batch endpoint
package walker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/halvgaard/enrich-batch-client/pkg/checkpoint"
	"github.com/halvgaard/enrich-batch-client/pkg/client"
	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

// Prometheus metrics for walk operations.
var (
	enrichPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrich_pages_walked_total",
		Help: "Total enrichment pages fetched across walks",
	})

	enrichWalksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enrich_walks_total",
		Help: "Total walks by outcome",
	}, []string{"outcome"})
)

// BatchFetcher is the interface the enrichment client must implement for
// single-page fetching.
type BatchFetcher interface {
	// FetchBatch fetches one page starting after the given cursor.
	FetchBatch(ctx context.Context, cur cursor.Cursor) (*client.BatchPage, error)
}

// PageHandler receives each fetched page: its 1-based number within this
// run and the raw response body.
type PageHandler func(pageNum int, body []byte)

// Config holds walker configuration.
type Config struct {
	// PageHandler is called with every page body. Nil means pages are
	// fetched for their next key only.
	PageHandler PageHandler

	// ProgressEvery emits a progress log line every N pages.
	ProgressEvery int
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	return Config{
		ProgressEvery: 50,
	}
}

// Result summarizes a completed walk.
type Result struct {
	// Pages is the number of pages fetched in this run.
	Pages int

	// Resumed is true when the run started from a persisted checkpoint.
	Resumed bool

	// Duration of the whole walk.
	Duration time.Duration
}

// Walker pages through the enrichment batch endpoint, checkpointing the
// cursor after every page so an aborted run resumes where it stopped.
type Walker struct {
	fetcher BatchFetcher
	store   checkpoint.Store
	config  Config
	logger  zerolog.Logger
}

// New creates a new walker.
func New(fetcher BatchFetcher, store checkpoint.Store, config Config) (*Walker, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("batch fetcher is required")
	}
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 50
	}

	return &Walker{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  logging.NewLogger("batch-walker"),
	}, nil
}

// Run walks the endpoint until the server stops returning a next key.
// Pages are fetched strictly one after another. On the first error the
// walk aborts with the last checkpoint intact; on normal completion the
// checkpoint is removed.
func (w *Walker) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	cur, resumed, err := w.store.Load(ctx)
	if err != nil {
		enrichWalksTotal.WithLabelValues("aborted").Inc()
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if resumed {
		w.logger.Info().
			Str("cursor_name", cur.Name).
			Str("cursor_birth", cur.Birth).
			Msg("Resuming walk from checkpoint")
	} else {
		w.logger.Info().Msg("Starting walk from the beginning")
	}

	pages := 0
	for {
		select {
		case <-ctx.Done():
			enrichWalksTotal.WithLabelValues("cancelled").Inc()
			return nil, fmt.Errorf("walk cancelled after %d pages: %w", pages, ctx.Err())
		default:
		}

		page, err := w.fetcher.FetchBatch(ctx, cur)
		if err != nil {
			enrichWalksTotal.WithLabelValues("aborted").Inc()
			w.logger.Error().
				Err(err).
				Int("pages", pages).
				Str("cursor_name", cur.Name).
				Msg("Walk aborted, checkpoint preserved")
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}

		pages++
		enrichPagesTotal.Inc()

		if w.config.PageHandler != nil {
			w.config.PageHandler(pages, page.Body)
		}

		if pages%w.config.ProgressEvery == 0 {
			w.logger.Info().
				Int("pages", pages).
				Str("cursor_name", cur.Name).
				Msg("Walk progress")
		}

		if !page.HasNext() {
			break
		}

		// Save before advancing the cursor so the checkpoint never
		// gets ahead of a page that was actually handled.
		next := *page.NextAfterKey
		if err := w.store.Save(ctx, next); err != nil {
			enrichWalksTotal.WithLabelValues("aborted").Inc()
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		cur = next
	}

	if err := w.store.Clear(ctx); err != nil {
		enrichWalksTotal.WithLabelValues("aborted").Inc()
		return nil, fmt.Errorf("clear checkpoint: %w", err)
	}

	result := &Result{
		Pages:    pages,
		Resumed:  resumed,
		Duration: time.Since(start),
	}

	enrichWalksTotal.WithLabelValues("completed").Inc()
	w.logger.Info().
		Int("pages", result.Pages).
		Bool("resumed", result.Resumed).
		Dur("duration", result.Duration).
		Msg("Walk complete")

	return result, nil
}
