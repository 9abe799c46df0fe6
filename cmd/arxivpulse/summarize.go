// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text...]",
	Short: "Summarize text, a file or a paper's PDF",
	Long: `Summarize sends text to the configured summarization flow, or to the
generative model when no flow is configured. The text comes from the
arguments, --file, --pdf (an arXiv ID or PDF URL) or standard input.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().String("file", "", "read text from a file")
	summarizeCmd.Flags().String("pdf", "", "summarize a PDF by arXiv ID or URL")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	pdfRef, _ := cmd.Flags().GetString("pdf")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var text string
	switch {
	case pdfRef != "":
		if text, err = a.pdfs.Text(ctx, pdfRef); err != nil {
			return err
		}
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		text = string(data)
	case len(args) > 0:
		text = joinArgs(args)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	summary, err := a.summarizer.Summarize(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(summary))
	return nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
