// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// ChatPath is the server route that streams answers.
const ChatPath = "/api/chat-with-pdf"

const chatService = "chat endpoint"

// HTTPStreamer streams answers from a running server's chat endpoint.
type HTTPStreamer struct {
	Client  *http.Client
	BaseURL string
	// Timeout bounds a whole answer.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Stream posts req and yields the answer's chunks in arrival order.
func (h *HTTPStreamer) Stream(ctx context.Context, req types.ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx := ctx
		if h.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.Timeout)
			defer cancel()
		}

		resp, err := h.open(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for chunk, err := range stream.Chunks(ctx, resp.Body, h.Logger) {
			if err != nil {
				var pe *apperr.ProtocolError
				if ctx.Err() != nil && !errors.As(err, &pe) {
					err = &apperr.TransportError{Service: chatService, Err: ctx.Err()}
				}
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (h *HTTPStreamer) open(ctx context.Context, req types.ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(h.BaseURL, "/")+ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &apperr.TransportError{Service: chatService, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, &apperr.TransportError{Service: chatService, Status: resp.StatusCode, Err: errorField(resp.Body)}
	}
	return resp, nil
}

// errorField reads {"error": "..."} from a JSON error body, or nil.
func errorField(r io.Reader) error {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&env); err != nil || env.Error == "" {
		return nil
	}
	return errors.New(env.Error)
}
