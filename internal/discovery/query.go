// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPageSize is the page size used when a query does not set one.
	DefaultPageSize = 20

	// MaxPageSize is the largest page the pipeline will request.
	MaxPageSize = 100

	// arxivDateLayout is the submittedDate range format (minute precision).
	arxivDateLayout = "200601021504"
)

// SortBy selects the arXiv result ordering.
type SortBy string

const (
	SortRelevance   SortBy = "relevance"
	SortLastUpdated SortBy = "lastUpdatedDate"
	SortSubmitted   SortBy = "submittedDate"
)

// QuerySpec holds the recognized discovery filters.
type QuerySpec struct {
	// Search is a free-text term matched against all fields.
	Search string `json:"search,omitempty"`

	// Category holds one or more arXiv category tags separated by commas
	// (e.g. "cs.AI" or "cs.AI,cs.LG").
	Category string `json:"category,omitempty"`

	// From and To bound the submission date. Either may be nil.
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	// Page is 1-based.
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// HasFilter reports whether any search, category or date filter is set.
func (q QuerySpec) HasFilter() bool {
	return strings.TrimSpace(q.Search) != "" || len(q.categories()) > 0 || q.From != nil || q.To != nil
}

func (q QuerySpec) categories() []string {
	var cats []string
	for _, c := range strings.Split(q.Category, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}

// Normalize clamps pagination into range: page <= 0 becomes 1, a
// non-positive page size becomes DefaultPageSize and anything above
// MaxPageSize is reduced to it.
func Normalize(q QuerySpec) QuerySpec {
	if q.Page <= 0 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	return q
}

// Offset returns the zero-based index of the first result on the page.
func Offset(q QuerySpec) int {
	q = Normalize(q)
	return (q.Page - 1) * q.PageSize
}

// BuildQuery translates q into the arXiv search_query grammar. Clauses
// are joined with AND and absent fields produce no clause, so a query with
// no filters yields the empty string.
func BuildQuery(q QuerySpec) string {
	var parts []string

	if terms := strings.Fields(q.Search); len(terms) > 0 {
		parts = append(parts, searchClause(terms))
	}

	if cats := q.categories(); len(cats) > 0 {
		clauses := make([]string, len(cats))
		for i, c := range cats {
			clauses[i] = "cat:" + c
		}
		parts = append(parts, "("+strings.Join(clauses, " OR ")+")")
	}

	if q.From != nil || q.To != nil {
		parts = append(parts, "submittedDate:["+dateBound(q.From, false)+" TO "+dateBound(q.To, true)+"]")
	}

	return strings.Join(parts, " AND ")
}

// searchClause matches every term in any field. Multiple terms are
// grouped so the AND between them binds before the outer clauses.
func searchClause(terms []string) string {
	if len(terms) == 1 {
		return "all:" + terms[0]
	}
	clauses := make([]string, len(terms))
	for i, t := range terms {
		clauses[i] = "all:" + t
	}
	return "(" + strings.Join(clauses, " AND ") + ")"
}

// dateBound formats an inclusive bound. An end date covers its whole day.
func dateBound(t *time.Time, end bool) string {
	if t == nil {
		return "*"
	}
	d := t.UTC()
	if end && d.Hour() == 0 && d.Minute() == 0 {
		d = d.Add(23*time.Hour + 59*time.Minute)
	}
	return d.Format(arxivDateLayout)
}

// Params returns the full set of query parameters for the arXiv API.
// Unfiltered listings are ordered by last update, searches by relevance.
func Params(q QuerySpec) url.Values {
	q = Normalize(q)

	sortBy := SortLastUpdated
	if strings.TrimSpace(q.Search) != "" {
		sortBy = SortRelevance
	}

	v := url.Values{}
	v.Set("search_query", BuildQuery(q))
	v.Set("start", strconv.Itoa(Offset(q)))
	v.Set("max_results", strconv.Itoa(q.PageSize))
	v.Set("sortBy", string(sortBy))
	v.Set("sortOrder", "descending")
	return v
}

// ParseDate parses an ISO date (YYYY-MM-DD) or RFC 3339 timestamp. The
// empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
