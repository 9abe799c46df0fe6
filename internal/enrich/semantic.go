// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Semantic Scholar endpoints. Declared as vars so tests can substitute
// an httptest server.
var (
	semanticPaperBase     = "https://api.semanticscholar.org/graph/v1/paper/"
	semanticRecommendBase = "https://api.semanticscholar.org/recommendations/v1/papers/forpaper/"
)

const semanticService = "Semantic Scholar API"

// PaperRef identifies a paper for metrics lookups. At least one field
// must be set.
type PaperRef struct {
	ArxivID string
	DOI     string
}

// Empty reports whether neither identifier is set.
func (r PaperRef) Empty() bool {
	return strings.TrimSpace(r.ArxivID) == "" && strings.TrimSpace(r.DOI) == ""
}

// Key is a stable cache key for the reference.
func (r PaperRef) Key() string {
	return "arxiv:" + strings.TrimSpace(r.ArxivID) + "|doi:" + strings.ToLower(strings.TrimSpace(r.DOI))
}

// semanticID returns the Semantic Scholar external-id form of the
// reference, preferring the arXiv ID.
func (r PaperRef) semanticID() string {
	if id := strings.TrimSpace(r.ArxivID); id != "" {
		return "arXiv:" + id
	}
	return "DOI:" + strings.TrimSpace(r.DOI)
}

// SemanticScholar looks up citation counts and recommendations.
type SemanticScholar struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

func (s *SemanticScholar) header() http.Header {
	h := http.Header{}
	if s.UserAgent != "" {
		h.Set("User-Agent", s.UserAgent)
	}
	if s.APIKey != "" {
		h.Set("x-api-key", s.APIKey)
	}
	return h
}

type semanticPaper struct {
	PaperID       string `json:"paperId"`
	CitationCount *int   `json:"citationCount"`
}

// CitationCount returns the paper's citation count.
func (s *SemanticScholar) CitationCount(ctx context.Context, ref PaperRef) (int, error) {
	if ref.Empty() {
		return 0, &apperr.ValidationError{Field: "arxivId or doi"}
	}
	reqURL := semanticPaperBase + escapePath(ref.semanticID()) + "?fields=citationCount"

	var p semanticPaper
	if err := getJSON(ctx, s.Client, semanticService, reqURL, s.header(), &p); err != nil {
		return 0, err
	}
	if p.CitationCount == nil {
		return 0, &apperr.DecodeError{Source: semanticService + " response", Field: "citationCount"}
	}
	return *p.CitationCount, nil
}

type semanticRecommendations struct {
	RecommendedPapers []struct {
		PaperID     string            `json:"paperId"`
		Title       string            `json:"title"`
		URL         string            `json:"url"`
		ExternalIDs map[string]string `json:"externalIds"`
	} `json:"recommendedPapers"`
}

// Related returns up to limit papers recommended for ref.
func (s *SemanticScholar) Related(ctx context.Context, ref PaperRef, limit int) ([]types.RelatedPaper, error) {
	if ref.Empty() {
		return nil, &apperr.ValidationError{Field: "arxivId or doi"}
	}
	params := url.Values{
		"fields": {"title,url,externalIds"},
		"limit":  {strconv.Itoa(limit)},
	}
	reqURL := semanticRecommendBase + escapePath(ref.semanticID()) + "?" + params.Encode()

	var rec semanticRecommendations
	if err := getJSON(ctx, s.Client, semanticService, reqURL, s.header(), &rec); err != nil {
		return nil, err
	}

	related := make([]types.RelatedPaper, 0, len(rec.RecommendedPapers))
	for _, p := range rec.RecommendedPapers {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		related = append(related, types.RelatedPaper{
			Title:   title,
			URL:     p.URL,
			ArxivID: p.ExternalIDs["ArXiv"],
		})
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

// escapePath escapes each slash-separated segment, keeping the slashes
// that DOIs carry.
func escapePath(s string) string {
	segs := strings.Split(s, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
