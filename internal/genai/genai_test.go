// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

func collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for s, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// --- Prompts ---

func TestChatPrompt(t *testing.T) {
	p := ChatPrompt("  The paper body.  ", " What is the method? ", 0)
	assert.Contains(t, p, "You are an AI assistant specialized in scientific papers.")
	assert.Contains(t, p, "Paper content:\nThe paper body.\n\nUser question: What is the method?\n\nYour response:")
}

func TestChatPromptDoesNotExpandPlaceholdersInText(t *testing.T) {
	p := ChatPrompt("mentions {{question}} literally", "q", 0)
	assert.Contains(t, p, "mentions {{question}} literally")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "ab"+truncatedMarker, Truncate("abc", 2))
	assert.Equal(t, "日本"+truncatedMarker, Truncate("日本語", 2))
}

// --- Gemini streaming ---

func geminiServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Gemini) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	g := NewGemini(types.GenAIConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 2 * time.Second},
		BaseURL:    ts.URL + "/v1beta",
		APIKey:     "test-key",
		Model:      "gemini-1.5-flash",
	}, ts.Client(), nil)
	return ts, g
}

func TestGeminiStream(t *testing.T) {
	var captured *http.Request
	var body geminiRequest
	_, g := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"Hel"}],"role":"model"}}]}`+"\r\n\r\n")
		fmt.Fprint(w, "data: not-json\r\n\r\n")
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"lo"},{"text":"!"}],"role":"model"},"finishReason":"STOP"}],"usageMetadata":{"totalTokenCount":5}}`+"\r\n\r\n")
	})

	got, err := collect(g.Stream(context.Background(), "the prompt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo!"}, got)

	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:streamGenerateContent", captured.URL.Path)
	assert.Equal(t, "sse", captured.URL.Query().Get("alt"))
	assert.Equal(t, "test-key", captured.Header.Get("x-goog-api-key"))
	require.Len(t, body.Contents, 1)
	assert.Equal(t, "the prompt", body.Contents[0].Parts[0].Text)
}

func TestGeminiStreamIsReusable(t *testing.T) {
	_, g := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"again"}]}}]}`+"\n\n")
	})

	seq := g.Stream(context.Background(), "p")
	for range 2 {
		got, err := collect(seq)
		require.NoError(t, err)
		assert.Equal(t, []string{"again"}, got)
	}
}

func TestGeminiStreamHTTPError(t *testing.T) {
	_, g := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	})

	_, err := collect(g.Stream(context.Background(), "p"))
	var te *apperr.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.Status)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiStreamErrorsInsideStream(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  string
	}{
		{"error object", `{"error":{"code":500,"message":"internal"}}`, "internal"},
		{"blocked prompt", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY"},
		{"blocked candidate", `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`, "response blocked: SAFETY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, g := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[{"text":"partial"}]}}]}`+"\n\n")
				fmt.Fprint(w, "data: "+tt.event+"\n\n")
			})

			got, err := collect(g.Stream(context.Background(), "p"))
			assert.Equal(t, []string{"partial"}, got)
			var pe *apperr.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.True(t, pe.Remote)
			assert.Equal(t, tt.want, pe.Message)
		})
	}
}

func TestGeminiStreamTimeout(t *testing.T) {
	_, g := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	g.Timeout = 50 * time.Millisecond

	_, err := collect(g.Stream(context.Background(), "p"))
	var te *apperr.TransportError
	require.ErrorAs(t, err, &te)
}

func TestGeminiRequiresKey(t *testing.T) {
	g := &Gemini{Model: "m"}
	_, err := collect(g.Stream(context.Background(), "p"))
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// --- Langflow ---

func TestLangflowSummarize(t *testing.T) {
	var captured *http.Request
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"session_id":"s","outputs":[{"inputs":{"input_value":"x"},"outputs":[{"outputs":{"message":"A concise summary."}}]}]}`)
	}))
	defer ts.Close()

	l := NewLangflow(types.SummarizerConfig{
		BaseURL: ts.URL + "/",
		FlowID:  "flow-123",
		APIKey:  "lf-key",
		Tweaks:  map[string]any{"Prompt-1": map[string]any{}},
	}, ts.Client())

	summary, err := l.Summarize(context.Background(), "paper abstract")
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", summary)

	assert.Equal(t, "/api/v1/run/flow-123", captured.URL.Path)
	assert.Equal(t, "false", captured.URL.Query().Get("stream"))
	assert.Equal(t, "Bearer lf-key", captured.Header.Get("Authorization"))
	assert.Equal(t, "paper abstract", body["input_value"])
	assert.Contains(t, body["tweaks"], "Prompt-1")
}

func TestLangflowSummarizeFailures(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		_, err := (&Langflow{}).Summarize(context.Background(), " ")
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("http error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()
		_, err := (&Langflow{Client: ts.Client(), BaseURL: ts.URL, FlowID: "f"}).Summarize(context.Background(), "t")
		var te *apperr.TransportError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"outputs":[{"outputs":[{"outputs":{"message":42}}]}]}`)
		}))
		defer ts.Close()
		_, err := (&Langflow{Client: ts.Client(), BaseURL: ts.URL, FlowID: "f"}).Summarize(context.Background(), "t")
		var de *apperr.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "outputs[0].outputs[0].message", de.Field)
	})
}

func TestFlowOutputText(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"outputs string", `{"outputs":[{"outputs":[{"outputs":{"message":"plain"}}]}]}`, "plain", true},
		{"results nested text", `{"outputs":[{"outputs":[{"results":{"message":{"text":"nested","sender":"Machine"}}}]}]}`, "nested", true},
		{"outputs message object", `{"outputs":[{"outputs":[{"outputs":{"message":{"message":{"text":"deep"},"type":"object"}}}]}]}`, "deep", true},
		{"artifacts", `{"outputs":[{"outputs":[{"artifacts":{"message":"from artifacts"}}]}]}`, "from artifacts", true},
		{"messages list", `{"outputs":[{"outputs":[{"messages":[{"message":"from messages"}]}]}]}`, "from messages", true},
		{"results preferred", `{"outputs":[{"outputs":[{"results":{"message":{"text":"first"}},"outputs":{"message":"second"}}]}]}`, "first", true},
		{"no outputs", `{"outputs":[]}`, "", false},
		{"no component", `{"outputs":[{"outputs":[]}]}`, "", false},
		{"blank message", `{"outputs":[{"outputs":[{"outputs":{"message":"  "}}]}]}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var run flowRunResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &run))
			got, ok := flowOutputText(run)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- Fallback summarizer ---

type scriptedStreamer struct {
	prompt string
	chunks []string
	err    error
}

func (s *scriptedStreamer) Stream(_ context.Context, prompt string) iter.Seq2[string, error] {
	s.prompt = prompt
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func TestStreamSummarizer(t *testing.T) {
	st := &scriptedStreamer{chunks: []string{" Short ", "summary. "}}
	s := &StreamSummarizer{Streamer: st, MaxChars: 10}

	got, err := s.Summarize(context.Background(), "some long paper text that will be cut")
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", got)
	assert.Contains(t, st.prompt, "some long "+truncatedMarker)

	st = &scriptedStreamer{chunks: []string{"part"}, err: &apperr.ProtocolError{Remote: true, Message: "x"}}
	_, err = (&StreamSummarizer{Streamer: st}).Summarize(context.Background(), "t")
	var pe *apperr.ProtocolError
	assert.ErrorAs(t, err, &pe)
}

func TestNewSummarizerSelection(t *testing.T) {
	st := &scriptedStreamer{}
	assert.IsType(t, &Langflow{}, NewSummarizer(types.SummarizerConfig{BaseURL: "http://lf", FlowID: "f"}, nil, st, 0))
	assert.IsType(t, &StreamSummarizer{}, NewSummarizer(types.SummarizerConfig{BaseURL: "http://lf"}, nil, st, 0))
}
