// Package pipeline composes the walk and the cleaning pass, then hands the
// result to the configured sinks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprilianr/go-scrape-fashion/config"
	"github.com/aprilianr/go-scrape-fashion/models"
	"github.com/aprilianr/go-scrape-fashion/scraper"
	"github.com/aprilianr/go-scrape-fashion/transform"
)

// RecordSource produces the raw record sequence for one run.
type RecordSource interface {
	Walk(ctx context.Context, baseURL, paginationURL string, startPage int, delay time.Duration) ([]models.RawProduct, models.WalkReport)
}

// BatchNormalizer cleans a whole batch at once, all-or-nothing.
type BatchNormalizer interface {
	Normalize(records []models.RawProduct) ([]models.CleanProduct, transform.BatchStats, error)
}

// Sink persists the final clean table to one destination.
type Sink interface {
	Name() string
	Persist(ctx context.Context, records []models.CleanProduct) error
}

// Pipeline is the run driver: walk, normalize once, fan out to sinks.
type Pipeline struct {
	source     RecordSource
	normalizer BatchNormalizer
	sinks      []Sink
	metrics    *scraper.Metrics
	cfg        *config.Config
}

// New assembles a pipeline from its collaborators.
func New(source RecordSource, normalizer BatchNormalizer, sinks []Sink, metrics *scraper.Metrics, cfg *config.Config) *Pipeline {
	return &Pipeline{
		source:     source,
		normalizer: normalizer,
		sinks:      sinks,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Run executes one complete ETL pass. Sink failures are logged and counted
// but never abort the remaining sinks; a normalization failure discards the
// whole batch and is returned to the caller.
func (p *Pipeline) Run(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{StartTime: time.Now()}
	defer func() { result.EndTime = time.Now() }()

	raw, report := p.source.Walk(ctx, p.cfg.BaseURL, p.cfg.PaginationURL, p.cfg.StartPage, p.cfg.Delay)
	result.PageCount = report.PageCount
	result.ErrorCount = report.ErrorCount
	result.FailedURLs = report.FailedURLs
	result.RawCount = len(raw)

	clean, stats, err := p.normalizer.Normalize(raw)
	if err != nil {
		slog.Error("normalization failed, discarding batch",
			slog.Int("records", len(raw)),
			slog.Any("error", err),
		)
		p.metrics.AddRecordsDropped("batch_failure", len(raw))
		return result, fmt.Errorf("normalize: %w", err)
	}
	result.CleanCount = stats.Output
	result.Duplicates = stats.Duplicates
	result.Incomplete = stats.Incomplete
	p.metrics.AddRecordsDropped("duplicate", stats.Duplicates)
	p.metrics.AddRecordsDropped("incomplete", stats.Incomplete)

	slog.Info("batch cleaned",
		slog.Int("raw", stats.Input),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("incomplete", stats.Incomplete),
		slog.Int("clean", stats.Output),
	)

	for _, sink := range p.sinks {
		if err := sink.Persist(ctx, clean); err != nil {
			slog.Error("sink failed",
				slog.String("sink", sink.Name()),
				slog.Any("error", err),
			)
			p.metrics.IncSinkFailure(sink.Name())
			result.SinkFailures = append(result.SinkFailures, sink.Name())
			continue
		}
		slog.Info("sink complete", slog.String("sink", sink.Name()), slog.Int("records", len(clean)))
	}

	return result, nil
}
