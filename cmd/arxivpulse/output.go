// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// writeStructured writes v as json or yaml. It reports false for any
// other format so the caller can print a table instead.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case "table", "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported format %q: use table, json or yaml", format)
	}
}

func writePaperTable(w io.Writer, papers []types.PaperRecord, total int) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-16s  %-10s  %-60s  %-10s  %s\n", "arXiv ID", "Published", "Title", "Category", "Citations")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for _, p := range papers {
		category := ""
		if len(p.Categories) > 0 {
			category = p.Categories[0]
		}
		fmt.Fprintf(w, "%-16s  %-10s  %-60s  %-10s  %d\n",
			clip(p.ArxivID, 16), p.Published.Format("2006-01-02"), clip(p.Title, 60), clip(category, 10), p.CitationCount)
	}
	fmt.Fprintf(w, "\n%d of %d papers\n", len(papers), total)
}

func writeMetrics(w io.Writer, m types.Metrics) {
	fmt.Fprintf(w, "Citations:  %d\n", m.CitationCount)
	fmt.Fprintf(w, "Altmetric:  %.2f\n", m.Altmetric)
	if len(m.RelatedPapers) == 0 {
		return
	}
	fmt.Fprintln(w, "Related:")
	for _, r := range m.RelatedPapers {
		fmt.Fprintf(w, "  - %s\n    %s\n", r.Title, r.URL)
	}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
