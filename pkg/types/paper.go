// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Author is one paper author with a synthesized profile link.
type Author struct {
	Name       string `json:"name" yaml:"name"`
	ProfileURL string `json:"profileUrl" yaml:"profile_url"`
}

// RelatedPaper is a lightweight pointer to a paper recommended alongside
// a discovered record.
type RelatedPaper struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	ArxivID string `json:"arxivId,omitempty" yaml:"arxiv_id,omitempty"`
}

// PaperRecord is one discovered publication.
//
// ID is the feed's URL-shaped identifier. It never changes after decode
// and is the only key used to de-duplicate records or locate one to mutate.
// Summary, CitationCount, Altmetric and RelatedPapers are filled in after
// discovery; the rest comes from the feed entry.
type PaperRecord struct {
	// ID is the entry identifier (e.g. "http://arxiv.org/abs/2301.07041v1").
	ID string `json:"id" yaml:"id"`

	// ArxivID is the version-stripped short identifier (e.g. "2301.07041").
	ArxivID string `json:"arxivId" yaml:"arxiv_id"`

	Title    string   `json:"title" yaml:"title"`
	Authors  []Author `json:"authors" yaml:"authors"`
	Abstract string   `json:"abstract" yaml:"abstract"`

	// Categories lists the arXiv category terms in feed order.
	Categories []string `json:"categories" yaml:"categories"`

	Published time.Time `json:"published" yaml:"published"`
	Updated   time.Time `json:"updated" yaml:"updated"`

	// DOI is set only when the feed carries an arxiv:doi element.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Link is the canonical web page (the rel="alternate" link).
	Link string `json:"link" yaml:"link"`

	// PDFURL is derived from ID, not taken from the feed.
	PDFURL string `json:"pdfLink" yaml:"pdf_link"`

	// Summary is empty until a summary is attached. It is set at most once.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	CitationCount int            `json:"citationCount" yaml:"citation_count"`
	Altmetric     float64        `json:"altmetric" yaml:"altmetric"`
	RelatedPapers []RelatedPaper `json:"relatedPapers" yaml:"related_papers"`
}

// ApplyMetrics overwrites the record's enrichment fields with m.
func (p *PaperRecord) ApplyMetrics(m Metrics) {
	p.CitationCount = m.CitationCount
	p.Altmetric = m.Altmetric
	p.RelatedPapers = m.RelatedPapers
}

// Metrics is the normalized result of an enrichment lookup. The zero value
// is what callers see when every metrics source failed.
type Metrics struct {
	CitationCount int            `json:"citationCount" yaml:"citation_count"`
	Altmetric     float64        `json:"altmetric" yaml:"altmetric"`
	RelatedPapers []RelatedPaper `json:"relatedPapers,omitempty" yaml:"related_papers,omitempty"`
}
