// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai wraps the generative text services: the streaming model
// used by chat and the flow service used for summaries.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// geminiAPIBase is the Generative Language API root used when the client
// has no BaseURL.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

const geminiService = "Gemini API"

// TextStreamer produces generated text incrementally.
type TextStreamer interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Gemini streams completions from the Gemini streamGenerateContent API.
type Gemini struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a whole stream, first byte to last.
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// NewGemini builds a client from cfg.
func NewGemini(cfg types.GenAIConfig, client *http.Client, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		Client:    client,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *geminiError `json:"error"`
}

// blockedFinishReasons end a stream without usable text.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

// Stream sends prompt and yields text deltas as they arrive. A non-200
// response is a *apperr.TransportError; an error object or a blocked
// prompt inside the stream is a *apperr.ProtocolError. Malformed event
// payloads are logged and skipped.
func (g *Gemini) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if g.APIKey == "" {
			yield("", &apperr.ValidationError{Field: "genai.api_key"})
			return
		}
		ctx := ctx
		if g.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.Timeout)
			defer cancel()
		}

		resp, err := g.open(ctx, prompt)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range stream.Events(ctx, resp.Body) {
			if err != nil {
				if ctx.Err() != nil {
					err = &apperr.TransportError{Service: geminiService, Err: ctx.Err()}
				}
				yield("", err)
				return
			}
			for _, line := range ev.Data {
				var gr geminiResponse
				if err := json.Unmarshal([]byte(line), &gr); err != nil {
					g.logger().Warn("skipping malformed Gemini event", zap.Error(err))
					continue
				}
				text, err := gr.text()
				if err != nil {
					yield("", err)
					return
				}
				if text == "" {
					continue
				}
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func (gr geminiResponse) text() (string, error) {
	if gr.Error != nil {
		return "", &apperr.ProtocolError{Remote: true, Message: gr.Error.Message}
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", &apperr.ProtocolError{Remote: true, Message: "prompt blocked: " + gr.PromptFeedback.BlockReason}
	}
	if len(gr.Candidates) == 0 {
		return "", nil
	}
	c := gr.Candidates[0]
	if blockedFinishReasons[c.FinishReason] {
		return "", &apperr.ProtocolError{Remote: true, Message: "response blocked: " + c.FinishReason}
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

func (g *Gemini) open(ctx context.Context, prompt string) (*http.Response, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	base := g.BaseURL
	if base == "" {
		base = geminiAPIBase
	}
	reqURL := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", strings.TrimRight(base, "/"), g.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-goog-api-key", g.APIKey)
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &apperr.TransportError{Service: geminiService, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, &apperr.TransportError{Service: geminiService, Status: resp.StatusCode, Err: errorBody(resp.Body)}
	}
	return resp, nil
}

// errorBody extracts the message from a JSON error body, or nil.
func errorBody(r io.Reader) error {
	var env struct {
		Error *geminiError `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	if err := json.Unmarshal(data, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return errors.New(env.Error.Message)
	}
	return nil
}

func (g *Gemini) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
