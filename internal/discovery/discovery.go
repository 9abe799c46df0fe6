// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery implements the paper discovery pipeline: query
// construction, arXiv feed decoding, de-duplication and optional metrics
// enrichment, plus the per-view Session that owns discovered records.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/telemetry"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Fetcher retrieves one decoded page of results.
type Fetcher interface {
	Fetch(ctx context.Context, q QuerySpec) (Page, error)
}

// Enricher fills in metrics for records in place. Implementations never
// fail; a record whose lookups fail keeps zero-valued metrics.
type Enricher interface {
	Enrich(ctx context.Context, papers []types.PaperRecord)
}

// Options controls optional pipeline stages.
type Options struct {
	// Enrich requests citation metrics for every record.
	Enrich bool
}

// Result is the outcome of one discovery call.
type Result struct {
	// Query is the normalized query that was issued.
	Query  QuerySpec
	Papers []types.PaperRecord
	Total  int
}

// Service runs the discovery pipeline.
type Service struct {
	Fetcher  Fetcher
	Enricher Enricher

	// DefaultCategory is applied when a query carries no filter at all.
	DefaultCategory string
	// PageSize replaces an unset page size before normalization.
	PageSize int

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
}

// Discover fetches one page for q, de-duplicates it by record ID and,
// when requested, enriches it. Fetch and decode failures abort the call;
// enrichment failures never do.
func (s *Service) Discover(ctx context.Context, q QuerySpec, opts Options) (Result, error) {
	if q.PageSize <= 0 && s.PageSize > 0 {
		q.PageSize = s.PageSize
	}
	if !q.HasFilter() && s.DefaultCategory != "" {
		q.Category = s.DefaultCategory
	}
	q = Normalize(q)

	page, err := s.Fetcher.Fetch(ctx, q)
	if err != nil {
		return Result{Query: q}, fmt.Errorf("discovering papers: %w", err)
	}

	papers := Deduplicate(page.Papers)
	s.Metrics.PapersDecoded(len(papers))

	if opts.Enrich && s.Enricher != nil && len(papers) > 0 {
		s.Enricher.Enrich(ctx, papers)
	}

	s.logger().Info("discovery complete",
		zap.String("search", q.Search),
		zap.String("category", q.Category),
		zap.Int("page", q.Page),
		zap.Int("papers", len(papers)),
		zap.Bool("enriched", opts.Enrich),
	)
	return Result{Query: q, Papers: papers, Total: page.Total}, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Deduplicate drops records whose ID was already seen, keeping the first
// occurrence and the original order.
func Deduplicate(papers []types.PaperRecord) []types.PaperRecord {
	seen := make(map[string]bool, len(papers))
	out := make([]types.PaperRecord, 0, len(papers))
	for _, p := range papers {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
