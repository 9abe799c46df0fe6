// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/enrich"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [arxiv-id]",
	Short: "Look up citation count, Altmetric score and related papers",
	Long: `Metrics looks up a paper by arXiv ID and/or DOI on Semantic Scholar and
Altmetric. Lookups that fail report zero; the command itself only fails when
no identifier is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().String("doi", "", "paper DOI")
	metricsCmd.Flags().String("format", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	doi, _ := cmd.Flags().GetString("doi")
	format, _ := cmd.Flags().GetString("format")

	ref := enrich.PaperRef{DOI: strings.TrimSpace(doi)}
	if len(args) == 1 {
		ref.ArxivID = discovery.ExtractArxivID(strings.TrimSpace(args[0]))
	}
	if ref.Empty() {
		return fmt.Errorf("provide an arXiv ID or --doi")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m := a.enricher.Fetch(cmd.Context(), ref)
	if ok, err := writeStructured(os.Stdout, format, m); ok {
		return err
	}
	writeMetrics(os.Stdout, m)
	return nil
}
