// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/httputil"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint used when the client has no
// BaseURL.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const arxivService = "arXiv API"

// Client queries the arXiv Atom API.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// Limiter paces outbound requests. Nil disables pacing.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewClient builds a Client from cfg. The limiter allows one request per
// cfg.RequestInterval with a burst of one.
func NewClient(cfg types.DiscoveryConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		HTTP:       httpClient,
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
	if cfg.RequestInterval > 0 {
		c.Limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}
	return c
}

// Fetch retrieves and decodes one page of results for q. Transport
// failures, timeouts and non-200 responses are *apperr.TransportError;
// an undecodable body is *apperr.DecodeError.
func (c *Client) Fetch(ctx context.Context, q QuerySpec) (Page, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Page{}, &apperr.TransportError{Service: arxivService, Err: err}
		}
	}

	base := c.BaseURL
	if base == "" {
		base = arxivAPIBase
	}
	params := Params(q)
	reqURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return Page{}, &apperr.TransportError{Service: arxivService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, &apperr.TransportError{Service: arxivService, Status: resp.StatusCode}
	}

	page, err := DecodeFeed(resp.Body)
	if err != nil {
		// A deadline hit mid-body surfaces as an XML syntax error.
		if ctx.Err() != nil {
			return Page{}, &apperr.TransportError{Service: arxivService, Err: ctx.Err()}
		}
		return Page{}, err
	}

	c.Logger.Debug("arXiv page fetched",
		zap.String("search_query", params.Get("search_query")),
		zap.String("start", params.Get("start")),
		zap.Int("papers", len(page.Papers)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return page, nil
}
