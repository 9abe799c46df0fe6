// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"encoding/xml"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Link bases used when synthesizing record fields. Declared as vars so
// deployments and tests can point them elsewhere.
var (
	arxivPDFBase      = "https://arxiv.org/pdf/"
	authorProfileBase = "https://scholar.google.com/scholar?q="
)

const feedSource = "arXiv feed"

// arXiv Atom feed XML structures.
type arxivFeed struct {
	XMLName      xml.Name     `xml:"feed"`
	TotalResults int          `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Updated    string          `xml:"updated"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// Page is one decoded page of results.
type Page struct {
	Papers []types.PaperRecord
	// Total is the feed's opensearch:totalResults, 0 when absent.
	Total int
}

// DecodeFeed decodes an arXiv Atom response into paper records in feed
// order. Decoding is all-or-nothing: malformed XML or an entry without an
// id or title fails the whole page with a *apperr.DecodeError.
func DecodeFeed(r io.Reader) (Page, error) {
	var feed arxivFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return Page{}, &apperr.DecodeError{Source: feedSource, Err: err}
	}

	papers := make([]types.PaperRecord, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		p, err := mapEntry(entry)
		if err != nil {
			if de, ok := err.(*apperr.DecodeError); ok {
				de.Source = feedSource + " entry " + strconv.Itoa(i)
			}
			return Page{}, err
		}
		papers = append(papers, p)
	}
	return Page{Papers: papers, Total: feed.TotalResults}, nil
}

func mapEntry(e arxivEntry) (types.PaperRecord, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return types.PaperRecord{}, &apperr.DecodeError{Field: "id"}
	}
	title := collapseSpace(e.Title)
	if title == "" {
		return types.PaperRecord{}, &apperr.DecodeError{Field: "title"}
	}
	// The API reports query errors as a single entry under /api/errors.
	if strings.Contains(id, "/api/errors") {
		return types.PaperRecord{}, &apperr.DecodeError{Field: "id", Err: errString(collapseSpace(e.Summary))}
	}

	p := types.PaperRecord{
		ID:            id,
		ArxivID:       ExtractArxivID(id),
		Title:         title,
		Abstract:      collapseSpace(e.Summary),
		DOI:           strings.TrimSpace(e.DOI),
		Link:          alternateLink(e.Links, id),
		PDFURL:        PDFURL(id),
		Authors:       make([]types.Author, 0, len(e.Authors)),
		Categories:    make([]string, 0, len(e.Categories)),
		RelatedPapers: []types.RelatedPaper{},
	}

	for _, a := range e.Authors {
		name := collapseSpace(a.Name)
		if name == "" {
			continue
		}
		p.Authors = append(p.Authors, types.Author{Name: name, ProfileURL: AuthorProfileURL(name)})
	}
	for _, c := range e.Categories {
		if term := strings.TrimSpace(c.Term); term != "" {
			p.Categories = append(p.Categories, term)
		}
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		p.Updated = t
	}
	return p, nil
}

type errString string

func (e errString) Error() string { return "feed reported error: " + string(e) }

// alternateLink returns the canonical web link, falling back to the
// entry id (which is the abstract page URL for arXiv).
func alternateLink(links []arxivLink, fallback string) string {
	for _, l := range links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	return fallback
}

// AuthorProfileURL builds an author search link from the display name.
func AuthorProfileURL(name string) string {
	return authorProfileBase + url.QueryEscape(name)
}

// PDFURL derives the PDF location from an entry id such as
// "http://arxiv.org/abs/2301.07041v1", keeping the version suffix.
func PDFURL(id string) string {
	return arxivPDFBase + idSuffix(id)
}

func idSuffix(id string) string {
	const prefix = "/abs/"
	if idx := strings.Index(id, prefix); idx >= 0 {
		return id[idx+len(prefix):]
	}
	if strings.Contains(id, "://") {
		return id[strings.LastIndex(id, "/")+1:]
	}
	return id
}

// ExtractArxivID pulls the version-stripped arXiv ID from an entry id
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041"). Old-style
// identifiers keep their archive prefix ("hep-th/9901001").
func ExtractArxivID(idURL string) string {
	id := idSuffix(idURL)

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
