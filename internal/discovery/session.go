// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/svskaushik/ArxivPulse/pkg/types"
)

var (
	// ErrStale is returned for a query whose result arrived after a newer
	// query was issued on the same session. The result is discarded.
	ErrStale = errors.New("discovery result superseded by a newer query")

	// ErrUnknownPaper is returned when no record in the session has the ID.
	ErrUnknownPaper = errors.New("unknown paper")

	// ErrSummaryExists is returned when a record already has a summary.
	ErrSummaryExists = errors.New("summary already attached")
)

// Discoverer runs one discovery call.
type Discoverer interface {
	Discover(ctx context.Context, q QuerySpec, opts Options) (Result, error)
}

// Session owns the paper collection of one view. Each Query starts a new
// generation and cancels the one before it; only the latest generation
// may replace the collection.
type Session struct {
	discoverer Discoverer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	query      QuerySpec
	papers     []types.PaperRecord
	index      map[string]int
}

// NewSession returns an empty session backed by d.
func NewSession(d Discoverer) *Session {
	return &Session{discoverer: d, index: map[string]int{}}
}

// Query runs q and, if no newer query was issued meanwhile, replaces the
// collection with the result. A failed latest query empties the
// collection. A superseded query returns ErrStale and changes nothing.
func (s *Session) Query(ctx context.Context, q QuerySpec, opts Options) ([]types.PaperRecord, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	res, err := s.discoverer.Discover(ctx, q, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrStale
	}
	s.cancel = nil
	if err != nil {
		s.replace(Normalize(q), nil)
		return nil, err
	}
	s.replace(res.Query, res.Papers)
	return slices.Clone(s.papers), nil
}

// NextPage re-runs the last query one page further on.
func (s *Session) NextPage(ctx context.Context, opts Options) ([]types.PaperRecord, error) {
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()
	q.Page++
	return s.Query(ctx, q, opts)
}

func (s *Session) replace(q QuerySpec, papers []types.PaperRecord) {
	s.query = q
	s.papers = papers
	s.index = make(map[string]int, len(papers))
	for i, p := range papers {
		s.index[p.ID] = i
	}
}

// Generation returns the number of queries issued so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LastQuery returns the normalized query behind the current collection.
func (s *Session) LastQuery() QuerySpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Papers returns a copy of the current collection.
func (s *Session) Papers() []types.PaperRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.papers)
}

// Paper returns the record with the given ID.
func (s *Session) Paper(id string) (types.PaperRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return types.PaperRecord{}, false
	}
	return s.papers[i], true
}

// AttachSummary sets the summary of a record. A summary can be attached
// once per record per session.
func (s *Session) AttachSummary(id, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrUnknownPaper
	}
	if s.papers[i].Summary != "" {
		return ErrSummaryExists
	}
	s.papers[i].Summary = summary
	return nil
}

// ApplyMetrics overwrites a record's metrics. The last call wins.
func (s *Session) ApplyMetrics(id string, m types.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrUnknownPaper
	}
	s.papers[i].ApplyMetrics(m)
	return nil
}
