// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes discovery, chat, summaries, metrics and PDF
// access over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/chat"
	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/enrich"
	"github.com/svskaushik/ArxivPulse/internal/pdftext"
	"github.com/svskaushik/ArxivPulse/internal/telemetry"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Discoverer runs a discovery query.
type Discoverer interface {
	Discover(ctx context.Context, q discovery.QuerySpec, opts discovery.Options) (discovery.Result, error)
}

// MetricsFetcher looks up metrics for one paper. It never fails.
type MetricsFetcher interface {
	Fetch(ctx context.Context, ref enrich.PaperRef) types.Metrics
}

// PDFSource reads remote PDFs.
type PDFSource interface {
	Text(ctx context.Context, ref string) (string, error)
	Open(ctx context.Context, ref string) (*pdftext.Document, error)
}

// Answerer streams an answer about a paper.
type Answerer interface {
	Answer(ctx context.Context, req types.ChatRequest, w chat.FrameWriter) error
}

// Summarizer condenses text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Discovery  Discoverer
	Metrics    MetricsFetcher
	PDFs       PDFSource
	Chat       Answerer
	Summarizer Summarizer
	Telemetry  *telemetry.Metrics
	Logger     *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    types.ServerConfig
	deps   Deps
	logger *zap.Logger
	router chi.Router
}

// New builds the router.
func New(cfg types.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.observe)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(s.cfg.AllowedOrigins),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Total-Count"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", s.deps.Telemetry.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/fetch-papers", s.fetchPapers)
		r.Post("/chat-with-pdf", s.chatWithPDF)
		r.Post("/summarize", s.summarize)
		r.Get("/fetch-metrics", s.fetchMetrics)
		r.Get("/fetch-pdf-text", s.fetchPDFText)
		r.Get("/proxy-pdf", s.proxyPDF)
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Run serves on cfg.Addr until ctx ends, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
