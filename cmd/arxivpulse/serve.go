// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svskaushik/ArxivPulse/internal/logging"
	"github.com/svskaushik/ArxivPulse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the HTTP API used by the web client: paper discovery,
streaming chat over a paper's PDF, summaries, metrics, PDF text and a PDF
proxy. Prometheus metrics are exposed on /metrics. SIGINT or SIGTERM shuts
the server down gracefully.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins (default any)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.allowed_origins", serveCmd.Flags().Lookup("allowed-origins"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.cfg.Server, server.Deps{
		Discovery:  a.discovery,
		Metrics:    a.enricher,
		PDFs:       a.pdfs,
		Chat:       a.chat,
		Summarizer: a.summarizer,
		Telemetry:  a.metrics,
		Logger:     logging.Component(a.logger, "server"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
