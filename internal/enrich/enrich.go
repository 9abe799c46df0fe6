// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich looks up best-effort citation metrics for paper
// records. Lookups never fail past this package: any transport, status
// or decode failure leaves the affected metric at zero.
package enrich

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// CitationSource returns citation counts.
type CitationSource interface {
	CitationCount(ctx context.Context, ref PaperRef) (int, error)
}

// ScoreSource returns attention scores.
type ScoreSource interface {
	Score(ctx context.Context, ref PaperRef) (float64, error)
}

// RelatedSource returns recommended papers.
type RelatedSource interface {
	Related(ctx context.Context, ref PaperRef, limit int) ([]types.RelatedPaper, error)
}

// Cache stores complete lookups.
type Cache interface {
	Get(ctx context.Context, key string) (types.Metrics, bool)
	Put(ctx context.Context, key string, m types.Metrics)
}

// Orchestrator combines the metric sources for one paper at a time. Any
// source may be nil.
type Orchestrator struct {
	Citations CitationSource
	Scores    ScoreSource
	Related   RelatedSource

	// RelatedLimit is the number of related papers requested; 0 skips
	// the lookup.
	RelatedLimit int

	// Timeout bounds each individual lookup.
	Timeout time.Duration

	// Concurrency bounds parallel records in Enrich (default 4).
	Concurrency int

	Cache  Cache
	Logger *zap.Logger
}

// Fetch returns the metrics for ref. It never fails: each source that
// errors contributes its zero value. A result is cached only when every
// configured source succeeded.
func (o *Orchestrator) Fetch(ctx context.Context, ref PaperRef) types.Metrics {
	if ref.Empty() {
		return types.Metrics{}
	}
	key := ref.Key()
	if o.Cache != nil {
		if m, ok := o.Cache.Get(ctx, key); ok {
			return m
		}
	}

	var (
		m      types.Metrics
		failed [3]bool
		g      errgroup.Group
	)

	if o.Citations != nil {
		g.Go(func() error {
			ctx, cancel := o.bounded(ctx)
			defer cancel()
			n, err := o.Citations.CitationCount(ctx, ref)
			if err != nil {
				o.logFailure("citation count", ref, err)
				failed[0] = true
				return nil
			}
			m.CitationCount = n
			return nil
		})
	}
	if o.Scores != nil {
		g.Go(func() error {
			ctx, cancel := o.bounded(ctx)
			defer cancel()
			score, err := o.Scores.Score(ctx, ref)
			if err != nil {
				o.logFailure("altmetric score", ref, err)
				failed[1] = true
				return nil
			}
			m.Altmetric = score
			return nil
		})
	}
	if o.Related != nil && o.RelatedLimit > 0 {
		g.Go(func() error {
			ctx, cancel := o.bounded(ctx)
			defer cancel()
			related, err := o.Related.Related(ctx, ref, o.RelatedLimit)
			if err != nil {
				o.logFailure("related papers", ref, err)
				failed[2] = true
				return nil
			}
			m.RelatedPapers = related
			return nil
		})
	}
	_ = g.Wait()

	if o.Cache != nil && !failed[0] && !failed[1] && !failed[2] {
		o.Cache.Put(ctx, key, m)
	}
	return m
}

// Enrich fetches metrics for every record in place, in parallel. Each
// record is independent: one record's failed lookups never affect
// another's.
func (o *Orchestrator) Enrich(ctx context.Context, papers []types.PaperRecord) {
	limit := o.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range papers {
		ref := PaperRef{ArxivID: papers[i].ArxivID, DOI: papers[i].DOI}
		g.Go(func() error {
			m := o.Fetch(ctx, ref)
			papers[i].ApplyMetrics(m)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func (o *Orchestrator) logFailure(what string, ref PaperRef, err error) {
	if o.Logger == nil {
		return
	}
	o.Logger.Debug("metrics lookup failed, using zero value",
		zap.String("lookup", what),
		zap.String("arxiv_id", ref.ArxivID),
		zap.String("doi", ref.DOI),
		zap.Error(err),
	)
}

// New builds an Orchestrator wired to Semantic Scholar and Altmetric.
// The cache is SQLite-backed when cfg.CachePath is set and in-memory
// otherwise.
func New(cfg types.EnrichmentConfig, client *http.Client, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var c Cache
	if cfg.CachePath != "" {
		sc, err := OpenSQLiteCache(cfg.CachePath, cfg.CacheTTL, logger)
		if err != nil {
			return nil, err
		}
		c = sc
	} else {
		c = NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	}

	s2 := &SemanticScholar{Client: client, APIKey: cfg.SemanticScholarAPIKey, UserAgent: cfg.UserAgent}
	return &Orchestrator{
		Citations:    s2,
		Related:      s2,
		Scores:       &Altmetric{Client: client, APIKey: cfg.AltmetricAPIKey, UserAgent: cfg.UserAgent},
		RelatedLimit: cfg.RelatedLimit,
		Timeout:      cfg.Timeout,
		Concurrency:  cfg.Concurrency,
		Cache:        c,
		Logger:       logger,
	}, nil
}

// Close releases the cache when it holds resources.
func (o *Orchestrator) Close() error {
	if closer, ok := o.Cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
