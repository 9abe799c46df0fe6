// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/svskaushik/ArxivPulse/internal/telemetry"
)

// Writer emits chat frames on an HTTP response. Every frame is flushed
// as soon as it is written.
type Writer struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	metrics *telemetry.Metrics
}

// NewWriter sets the event-stream headers and sends the 200 status.
func NewWriter(w http.ResponseWriter, m *telemetry.Metrics) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &Writer{w: w, rc: http.NewResponseController(w), metrics: m}
}

// Chunk writes one {"chunk": text} frame.
func (sw *Writer) Chunk(text string) error {
	if err := sw.frame(map[string]string{"chunk": text}); err != nil {
		return err
	}
	sw.metrics.StreamChunk()
	return nil
}

// ErrorDetails writes one {"error": msg, "details": details} frame.
// Callers end the stream after it.
func (sw *Writer) ErrorDetails(msg, details string) error {
	sw.metrics.StreamFailure()
	return sw.frame(map[string]string{"error": msg, "details": details})
}

// Comment writes a comment line, which readers ignore. Used as a
// keep-alive while the first chunk is pending.
func (sw *Writer) Comment(text string) error {
	if _, err := fmt.Fprintf(sw.w, ": %s\n\n", text); err != nil {
		return err
	}
	return sw.flush()
}

func (sw *Writer) frame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return sw.flush()
}

func (sw *Writer) flush() error {
	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
