// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/genai"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

const (
	// streamFailure is the error frame message sent when an answer fails.
	streamFailure = "Error in chat with PDF"
	// pendingComment keeps the stream alive while the PDF is read.
	pendingComment = "fetching paper"
)

// TextSource returns the plain text of a paper's PDF.
type TextSource interface {
	Text(ctx context.Context, ref string) (string, error)
}

// FrameWriter receives answer frames.
type FrameWriter interface {
	Chunk(text string) error
	ErrorDetails(msg, details string) error
	Comment(text string) error
}

var _ FrameWriter = (*stream.Writer)(nil)

// Service answers questions about a paper by prompting a streaming model
// with the paper's text.
type Service struct {
	Texts          TextSource
	Model          genai.TextStreamer
	MaxPromptChars int
	// Timeout bounds one answer, PDF fetch included.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Validate checks that req names a paper, a PDF and a question.
func Validate(req types.ChatRequest) error {
	return apperr.Required(
		[2]string{"paperId", req.PaperID},
		[2]string{"pdfUrl", req.PDFURL},
		[2]string{"message", req.Message},
	)
}

// Answer streams the answer to req into w. Any failure, before or during
// the stream, is written as one error frame and returned; the caller
// ends the response either way.
func (s *Service) Answer(ctx context.Context, req types.ChatRequest, w FrameWriter) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	log := s.logger().With(zap.String("paper_id", req.PaperID))

	fail := func(err error) error {
		log.Error("chat stream failed", zap.Error(err))
		_ = w.ErrorDetails(streamFailure, err.Error())
		return err
	}

	if err := w.Comment(pendingComment); err != nil {
		log.Debug("chat client disconnected", zap.Error(err))
		return err
	}

	text, err := s.Texts.Text(ctx, req.PDFURL)
	if err != nil {
		return fail(err)
	}

	chunks := 0
	prompt := genai.ChatPrompt(text, req.Message, s.MaxPromptChars)
	for chunk, err := range s.Model.Stream(ctx, prompt) {
		if err != nil {
			return fail(err)
		}
		if err := w.Chunk(chunk); err != nil {
			// The client went away; nothing left to write to.
			log.Debug("chat client disconnected", zap.Error(err))
			return err
		}
		chunks++
	}
	log.Info("chat answer streamed", zap.Int("chunks", chunks), zap.Int("pdf_chars", len(text)))
	return nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
