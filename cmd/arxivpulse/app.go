// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/chat"
	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/enrich"
	"github.com/svskaushik/ArxivPulse/internal/genai"
	"github.com/svskaushik/ArxivPulse/internal/logging"
	"github.com/svskaushik/ArxivPulse/internal/pdftext"
	"github.com/svskaushik/ArxivPulse/internal/telemetry"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// app wires the services every command draws from.
type app struct {
	cfg        types.Config
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	discovery  *discovery.Service
	enricher   *enrich.Orchestrator
	pdfs       *pdftext.Service
	model      *genai.Gemini
	summarizer genai.Summarizer
	chat       *chat.Service
}

func newApp() (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	return buildApp(cfg)
}

func buildApp(cfg types.Config) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	m := telemetry.New()

	enricher, err := enrich.New(cfg.Enrichment,
		m.Client("enrichment", cfg.Enrichment.Timeout),
		logging.Component(logger, "enrich"))
	if err != nil {
		return nil, err
	}

	arxiv := discovery.NewClient(cfg.Discovery,
		m.Client("arxiv", cfg.Discovery.Timeout),
		logging.Component(logger, "arxiv"))

	pdfs := pdftext.NewService(cfg.PDF,
		m.Client("pdf", cfg.PDF.Timeout),
		logging.Component(logger, "pdf"))

	// Streams are bounded by the model's own timeout, not the client's.
	model := genai.NewGemini(cfg.GenAI, m.Client("gemini", 0), logging.Component(logger, "gemini"))

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		discovery: &discovery.Service{
			Fetcher:         arxiv,
			Enricher:        enricher,
			DefaultCategory: cfg.Discovery.DefaultCategory,
			PageSize:        cfg.Discovery.PageSize,
			Logger:          logging.Component(logger, "discovery"),
			Metrics:         m,
		},
		enricher: enricher,
		pdfs:     pdfs,
		model:    model,
		summarizer: genai.NewSummarizer(cfg.Summarizer,
			m.Client("langflow", cfg.Summarizer.Timeout), model, cfg.GenAI.MaxPromptChars),
		chat: &chat.Service{
			Texts:          pdfs,
			Model:          model,
			MaxPromptChars: cfg.GenAI.MaxPromptChars,
			Timeout:        cfg.Server.StreamTimeout,
			Logger:         logging.Component(logger, "chat"),
		},
	}, nil
}

func (a *app) Close() {
	if err := a.enricher.Close(); err != nil {
		a.logger.Warn("closing metrics cache", zap.Error(err))
	}
	_ = a.logger.Sync()
}
