// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [search terms...]",
	Short: "List papers from arXiv",
	Long: `Discover queries arXiv with optional search terms, categories and a
submission date range. Without any filter it lists the latest papers in the
default category (cs.AI). Use --pages to walk forward through results and
--enrich to add citation metrics and --summarize to add a short summary.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("category", "", "arXiv categories, comma-separated (e.g. cs.AI,cs.LG)")
	discoverCmd.Flags().String("from", "", "submitted on or after (YYYY-MM-DD)")
	discoverCmd.Flags().String("to", "", "submitted on or before (YYYY-MM-DD)")
	discoverCmd.Flags().Int("page", 1, "first page to fetch")
	discoverCmd.Flags().Int("per-page", 0, "results per page (default 20, max 100)")
	discoverCmd.Flags().Int("pages", 1, "number of consecutive pages to fetch")
	discoverCmd.Flags().Bool("enrich", false, "look up citation metrics for each paper")
	discoverCmd.Flags().Bool("summarize", false, "summarize each abstract")
	discoverCmd.Flags().String("format", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	q, err := querySpecFromFlags(cmd, args)
	if err != nil {
		return err
	}
	enrichPapers, _ := cmd.Flags().GetBool("enrich")
	pages, _ := cmd.Flags().GetInt("pages")
	format, _ := cmd.Flags().GetString("format")
	summarize, _ := cmd.Flags().GetBool("summarize")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session := discovery.NewSession(a.discovery)
	opts := discovery.Options{Enrich: enrichPapers}
	ctx := cmd.Context()

	papers, err := session.Query(ctx, q, opts)
	var all []types.PaperRecord
	for i := 1; ; i++ {
		if err != nil {
			return err
		}
		if summarize {
			summarizeSession(ctx, a, session)
		}
		all = append(all, session.Papers()...)
		if i >= pages || len(papers) == 0 {
			break
		}
		papers, err = session.NextPage(ctx, opts)
	}

	if ok, err := writeStructured(os.Stdout, format, all); ok {
		return err
	}
	writePaperTable(os.Stdout, all, len(all))
	return nil
}

func querySpecFromFlags(cmd *cobra.Command, args []string) (discovery.QuerySpec, error) {
	category, _ := cmd.Flags().GetString("category")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")

	q := discovery.QuerySpec{
		Search:   joinArgs(args),
		Category: category,
		Page:     page,
		PageSize: perPage,
	}
	var err error
	if q.From, err = discovery.ParseDate(from); err != nil {
		return q, fmt.Errorf("--from: %w", err)
	}
	if q.To, err = discovery.ParseDate(to); err != nil {
		return q, fmt.Errorf("--to: %w", err)
	}
	return q, nil
}

// summarizeSession attaches a summary of each abstract in the current
// page. Failures leave the record without a summary.
func summarizeSession(ctx context.Context, a *app, session *discovery.Session) {
	for _, p := range session.Papers() {
		if p.Abstract == "" {
			continue
		}
		summary, err := a.summarizer.Summarize(ctx, p.Abstract)
		if err != nil {
			a.logger.Warn("summarizing abstract", zap.String("paper_id", p.ArxivID), zap.Error(err))
			continue
		}
		if err := session.AttachSummary(p.ID, summary); err != nil {
			a.logger.Debug("attaching summary", zap.String("paper_id", p.ArxivID), zap.Error(err))
		}
	}
}
