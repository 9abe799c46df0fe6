// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

// arxivPDFBase is where bare arXiv identifiers are resolved.
var arxivPDFBase = "https://arxiv.org/pdf/"

// arxivPattern matches new-style arXiv IDs: "2301.07041", "arXiv:2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// oldArxivPattern matches archive-prefixed IDs: "hep-th/9901001v1".
var oldArxivPattern = regexp.MustCompile(`^(?:arXiv:)?([a-z-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)

// ResolveURL turns a PDF reference into a fetchable URL. A bare arXiv ID
// maps to the arXiv PDF endpoint, an http(s) URL is returned unchanged,
// and anything else is a *apperr.ValidationError.
func ResolveURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", &apperr.ValidationError{Field: "url"}
	}

	if m := arxivPattern.FindStringSubmatch(ref); m != nil {
		return arxivPDFBase + m[1], nil
	}
	if m := oldArxivPattern.FindStringSubmatch(ref); m != nil {
		return arxivPDFBase + m[1], nil
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &apperr.ValidationError{Field: "url", Reason: "want an http(s) URL or arXiv ID"}
	}
	return ref, nil
}
