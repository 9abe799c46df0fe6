// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

// altmetricBase is the Altmetric details endpoint. Declared as a var so
// tests can substitute an httptest server.
var altmetricBase = "https://api.altmetric.com/v1/"

const altmetricService = "Altmetric API"

// Altmetric looks up attention scores.
type Altmetric struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

type altmetricDetails struct {
	Score *float64 `json:"score"`
}

// Score returns the Altmetric attention score, looked up by DOI when
// known and by arXiv ID otherwise.
func (a *Altmetric) Score(ctx context.Context, ref PaperRef) (float64, error) {
	var path string
	switch {
	case strings.TrimSpace(ref.DOI) != "":
		path = "doi/" + escapePath(strings.TrimSpace(ref.DOI))
	case strings.TrimSpace(ref.ArxivID) != "":
		path = "arxiv/" + escapePath(strings.TrimSpace(ref.ArxivID))
	default:
		return 0, &apperr.ValidationError{Field: "arxivId or doi"}
	}

	reqURL := altmetricBase + path
	if a.APIKey != "" {
		reqURL += "?key=" + url.QueryEscape(a.APIKey)
	}

	h := http.Header{}
	if a.UserAgent != "" {
		h.Set("User-Agent", a.UserAgent)
	}

	var d altmetricDetails
	if err := getJSON(ctx, a.Client, altmetricService, reqURL, h, &d); err != nil {
		return 0, err
	}
	if d.Score == nil {
		return 0, &apperr.DecodeError{Source: altmetricService + " response", Field: "score"}
	}
	return *d.Score, nil
}
