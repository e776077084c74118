// Package pipeline drives the migration: writer directory, row
// normalization, one bulk load.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/storage"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/transform"
)

// Loader loads a document batch into the search index.
type Loader interface {
	Bulk(ctx context.Context, index string, docs []*models.SearchDocument) error
}

// Stats summarizes one run.
type Stats struct {
	Movies    int
	Documents int
	Duration  time.Duration
}

// Pipeline runs the three sequential phases of a migration: load the writer
// directory, stream extraction rows through the normalizer into an in-memory
// batch, submit the whole batch as one bulk request. Single-threaded; the
// source connection's lifetime belongs to the caller.
type Pipeline struct {
	source  storage.Source
	loader  Loader
	logger  *zap.Logger // optional; when set, logs phase progress
	metrics metrics.Backend
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for phase progress.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics backend; the default discards everything.
func WithMetrics(b metrics.Backend) Option {
	return func(p *Pipeline) { p.metrics = b }
}

// New creates a pipeline over source and loader.
func New(source storage.Source, loader Loader, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		loader:  loader,
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the migration against index. Any extraction, normalization or
// transport fault aborts the run; per-document index errors are the loader's
// to report and do not surface here.
func (p *Pipeline) Run(ctx context.Context, index string) (*Stats, error) {
	start := time.Now()

	docs, movies, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.load(ctx, index, docs); err != nil {
		return nil, err
	}

	stats := &Stats{Movies: movies, Documents: len(docs), Duration: time.Since(start)}
	metrics.RecordCount(p.metrics, metrics.MoviesTotal, int64(stats.Movies))
	metrics.RecordCount(p.metrics, metrics.DocumentsTotal, int64(stats.Documents))
	return stats, nil
}

// Documents runs the extraction and normalization phases only, returning the
// batch a full run would submit. Backs the dry-run dump command.
func (p *Pipeline) Documents(ctx context.Context) ([]*models.SearchDocument, error) {
	docs, _, err := p.collect(ctx)
	return docs, err
}

func (p *Pipeline) collect(ctx context.Context) ([]*models.SearchDocument, int, error) {
	dirStart := time.Now()
	writers, err := p.source.LoadWriters(ctx)
	metrics.RecordPhase(p.metrics, "directory", err, time.Since(dirStart))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load writer directory: %w", err)
	}
	if p.logger != nil {
		p.logger.Debug("writer directory loaded", zap.Int("writers", len(writers)))
	}

	transformStart := time.Now()
	var docs []*models.SearchDocument
	var movies int
	err = p.source.EachMovie(ctx, func(row *models.MovieRow) error {
		movies++
		doc, err := transform.Document(row, writers)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	metrics.RecordPhase(p.metrics, "transform", err, time.Since(transformStart))
	if err != nil {
		return nil, movies, fmt.Errorf("failed to build document batch: %w", err)
	}
	if p.logger != nil {
		p.logger.Debug("document batch assembled", zap.Int("movies", movies), zap.Int("documents", len(docs)))
	}
	return docs, movies, nil
}

func (p *Pipeline) load(ctx context.Context, index string, docs []*models.SearchDocument) error {
	if len(docs) == 0 {
		if p.logger != nil {
			p.logger.Info("nothing to load", zap.String("index", index))
		}
		return nil
	}
	loadStart := time.Now()
	err := p.loader.Bulk(ctx, index, docs)
	metrics.RecordPhase(p.metrics, "load", err, time.Since(loadStart))
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	return nil
}
