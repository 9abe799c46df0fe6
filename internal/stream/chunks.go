// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

// payload is the JSON carried by one data line. Exactly one of Chunk or
// Error is expected; Error may be a string or an object with a message.
type payload struct {
	Chunk   *string         `json:"chunk"`
	Error   json.RawMessage `json:"error"`
	Details string          `json:"details"`
}

// Chunks decodes the chat event stream in r into text deltas, in arrival
// order. Each data line is decoded on its own:
//
//   - {"chunk": "..."} yields the delta;
//   - {"error": ...} yields a *apperr.ProtocolError with Remote set and
//     ends the sequence;
//   - anything that is not valid JSON is logged and skipped.
//
// Transport failures from Events are passed through and end the sequence.
func Chunks(ctx context.Context, r io.Reader, logger *zap.Logger) iter.Seq2[string, error] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(yield func(string, error) bool) {
		for ev, err := range Events(ctx, r) {
			if err != nil {
				yield("", err)
				return
			}
			for _, line := range ev.Data {
				var p payload
				if err := json.Unmarshal([]byte(line), &p); err != nil {
					logger.Warn("skipping malformed stream payload",
						zap.String("line", truncate(line, 200)),
						zap.Error(&apperr.ProtocolError{Message: "invalid JSON payload", Err: err}),
					)
					continue
				}
				if len(p.Error) > 0 && string(p.Error) != "null" {
					msg := errorMessage(p.Error)
					if p.Details != "" {
						msg += ": " + p.Details
					}
					yield("", &apperr.ProtocolError{Remote: true, Message: msg})
					return
				}
				if p.Chunk == nil {
					logger.Debug("ignoring stream payload without chunk", zap.String("line", truncate(line, 200)))
					continue
				}
				if !yield(*p.Chunk, nil) {
					return
				}
			}
		}
	}
}

// errorMessage renders an error payload that is either a JSON string or
// an object carrying "message" or "error".
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
