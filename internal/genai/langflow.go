// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/httputil"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

const langflowService = "Langflow API"

// Summarizer turns paper text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Langflow runs a summarization flow on a Langflow server.
type Langflow struct {
	Client    *http.Client
	BaseURL   string
	FlowID    string
	APIKey    string
	Tweaks    map[string]any
	Timeout   time.Duration
	UserAgent string
}

// NewLangflow builds a client from cfg.
func NewLangflow(cfg types.SummarizerConfig, client *http.Client) *Langflow {
	return &Langflow{
		Client:    client,
		BaseURL:   cfg.BaseURL,
		FlowID:    cfg.FlowID,
		APIKey:    cfg.APIKey,
		Tweaks:    cfg.Tweaks,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	}
}

type flowRunRequest struct {
	InputValue string         `json:"input_value"`
	InputType  string         `json:"input_type"`
	OutputType string         `json:"output_type"`
	Tweaks     map[string]any `json:"tweaks"`
}

// flowRunResponse is the part of a non-streaming run response we read.
// Components report their text under different keys depending on the
// server version, so those are kept raw for flowOutputText.
type flowRunResponse struct {
	Outputs []struct {
		Outputs []flowComponentOutput `json:"outputs"`
	} `json:"outputs"`
}

type flowComponentOutput struct {
	Results   map[string]json.RawMessage `json:"results"`
	Outputs   map[string]json.RawMessage `json:"outputs"`
	Artifacts map[string]json.RawMessage `json:"artifacts"`
	Messages  []struct {
		Message string `json:"message"`
	} `json:"messages"`
}

// Summarize runs the flow with text as its input and returns the flow's
// message output.
func (l *Langflow) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &apperr.ValidationError{Field: "text"}
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	tweaks := l.Tweaks
	if tweaks == nil {
		tweaks = map[string]any{}
	}
	body, err := json.Marshal(flowRunRequest{InputValue: text, InputType: "chat", OutputType: "chat", Tweaks: tweaks})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	reqURL := strings.TrimRight(l.BaseURL, "/") + "/api/v1/run/" + url.PathEscape(l.FlowID) + "?stream=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.APIKey)
		req.Header.Set("x-api-key", l.APIKey)
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 1)
	if err != nil {
		return "", &apperr.TransportError{Service: langflowService, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &apperr.TransportError{Service: langflowService, Status: resp.StatusCode}
	}

	var run flowRunResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&run); err != nil {
		return "", &apperr.DecodeError{Source: langflowService + " response", Err: err}
	}
	summary, ok := flowOutputText(run)
	if !ok {
		return "", &apperr.DecodeError{Source: langflowService + " response", Field: "outputs[0].outputs[0].message"}
	}
	return summary, nil
}

// flowOutputText finds the text produced by the first component of the
// first flow output. It looks in results.message, outputs.message,
// artifacts.message and messages[0].message, in that order.
func flowOutputText(run flowRunResponse) (string, bool) {
	if len(run.Outputs) == 0 || len(run.Outputs[0].Outputs) == 0 {
		return "", false
	}
	c := run.Outputs[0].Outputs[0]

	for _, m := range []map[string]json.RawMessage{c.Results, c.Outputs, c.Artifacts} {
		if raw, ok := m["message"]; ok {
			if s, ok := messageText(raw); ok {
				return s, true
			}
		}
	}
	if len(c.Messages) > 0 && strings.TrimSpace(c.Messages[0].Message) != "" {
		return strings.TrimSpace(c.Messages[0].Message), true
	}
	return "", false
}

// messageText reads a message value that is either a string, an object
// with a text field, or an object whose message field is one of those.
func messageText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var obj struct {
		Text    *string         `json:"text"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	if obj.Text != nil && strings.TrimSpace(*obj.Text) != "" {
		return strings.TrimSpace(*obj.Text), true
	}
	if len(obj.Message) > 0 {
		return messageText(obj.Message)
	}
	return "", false
}

// StreamSummarizer summarizes with a streaming model when no flow is
// configured.
type StreamSummarizer struct {
	Streamer TextStreamer
	// MaxChars caps the text placed in the prompt.
	MaxChars int
}

// Summarize collects the model's full answer to the summary prompt.
func (s *StreamSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &apperr.ValidationError{Field: "text"}
	}
	summary, err := stream.Assemble(s.Streamer.Stream(ctx, SummaryPrompt(text, s.MaxChars)), nil)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", &apperr.DecodeError{Source: "summary", Err: errors.New("model returned no text")}
	}
	return summary, nil
}

// NewSummarizer returns a Langflow summarizer when cfg names a flow and
// falls back to streamer otherwise.
func NewSummarizer(cfg types.SummarizerConfig, client *http.Client, streamer TextStreamer, maxChars int) Summarizer {
	if cfg.BaseURL != "" && cfg.FlowID != "" {
		return NewLangflow(cfg, client)
	}
	return &StreamSummarizer{Streamer: streamer, MaxChars: maxChars}
}
