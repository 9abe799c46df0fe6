// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/cache"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Service resolves, fetches and extracts PDF text, caching extracted
// text by resolved URL.
type Service struct {
	Fetcher *Fetcher
	Logger  *zap.Logger

	texts *cache.LRU[string]
}

// NewService builds a Service from cfg.
func NewService(cfg types.PDFConfig, client *http.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Fetcher: &Fetcher{
			Client:    client,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			MaxBytes:  cfg.MaxBytes,
		},
		Logger: logger,
		texts:  cache.NewLRU[string](cfg.CacheSize, 0),
	}
}

// Text returns the extracted text of the PDF referenced by ref (a URL
// or arXiv ID).
func (s *Service) Text(ctx context.Context, ref string) (string, error) {
	u, err := ResolveURL(ref)
	if err != nil {
		return "", err
	}
	if s.texts != nil {
		if text, ok := s.texts.Get(u); ok {
			s.Logger.Debug("pdf text cache hit", zap.String("url", u))
			return text, nil
		}
	}

	data, err := s.Fetcher.Fetch(ctx, u)
	if err != nil {
		return "", err
	}
	text, err := Extract(data)
	if err != nil {
		return "", err
	}

	s.Logger.Info("pdf text extracted",
		zap.String("url", u),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text)),
	)
	if s.texts != nil {
		s.texts.Put(u, text)
	}
	return text, nil
}

// Open resolves ref and opens the remote document for streaming.
func (s *Service) Open(ctx context.Context, ref string) (*Document, error) {
	u, err := ResolveURL(ref)
	if err != nil {
		return nil, err
	}
	return s.Fetcher.Open(ctx, u)
}
