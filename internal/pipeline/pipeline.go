package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/couchcryptid/substation-imagery-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/substation-imagery-etl/internal/domain"
	"github.com/couchcryptid/substation-imagery-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Stage names used for the stage duration histogram.
const (
	StageFetch   = "fetch"
	StageEnrich  = "enrich"
	StageConvert = "convert"
	StagePublish = "publish"
)

// Publisher sends final records to a downstream system.
type Publisher interface {
	LoadBatch(ctx context.Context, records []domain.FinalRecord) error
}

// Paths locates the files written by a run.
type Paths struct {
	CSV  string
	JSON string
}

// Runner executes fetch, enrich and convert in sequence, then optionally
// publishes the final records.
type Runner struct {
	fetcher   *Fetcher
	enricher  *Enricher
	converter *Converter
	publisher Publisher
	paths     Paths
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// NewRunner wires the stages together. publisher may be nil.
func NewRunner(f *Fetcher, e *Enricher, c *Converter, publisher Publisher, paths Paths, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		fetcher:   f,
		enricher:  e,
		converter: c,
		publisher: publisher,
		paths:     paths,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the fetch stage has completed.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("records have not been fetched yet")
	}
	return nil
}

// Run executes the whole pipeline. The first error stops the run.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("pipeline started", "csv", r.paths.CSV, "json", r.paths.JSON)

	var records []domain.LocationRecord
	err := r.timed(StageFetch, func() error {
		var err error
		records, err = r.fetcher.FetchAll(ctx)
		return err
	})
	if err != nil {
		return err
	}
	r.ready.Store(true)

	if err := r.timed(StageEnrich, func() error { return r.enrich(ctx, records) }); err != nil {
		return err
	}

	var final []domain.FinalRecord
	err = r.timed(StageConvert, func() error {
		var err error
		final, err = r.converter.ConvertFile(r.paths.CSV, r.paths.JSON)
		return err
	})
	if err != nil {
		return err
	}

	if r.publisher != nil {
		err = r.timed(StagePublish, func() error {
			if err := r.publisher.LoadBatch(ctx, final); err != nil {
				return err
			}
			r.metrics.RecordsPublished.Add(float64(len(final)))
			return nil
		})
		if err != nil {
			return err
		}
	}

	r.logger.Info("pipeline finished", "fetched", len(records), "final", len(final))
	return nil
}

func (r *Runner) enrich(ctx context.Context, records []domain.LocationRecord) (err error) {
	f, err := os.Create(r.paths.CSV)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()

	w, err := csvfile.NewWriter(f)
	if err != nil {
		return err
	}

	written, enrichErr := r.enricher.Enrich(ctx, records, w)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if enrichErr != nil {
		return enrichErr
	}

	r.logger.Info("csv written", "path", r.paths.CSV, "rows", written)
	return nil
}

// timed runs fn and records its duration under the given stage label.
func (r *Runner) timed(stage string, fn func() error) error {
	start := r.clock.Now()
	err := fn()
	elapsed := r.clock.Since(start)
	r.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		r.logger.Error("stage failed", "stage", stage, "error", err, "duration", elapsed)
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	r.logger.Info("stage finished", "stage", stage, "duration", elapsed)
	return nil
}
