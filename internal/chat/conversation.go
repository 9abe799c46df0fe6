// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat holds a conversation about one paper and the two ends of
// the chat stream: the client that consumes it and the service that
// produces it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/stream"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// FallbackNotice is appended to the transcript when an answer fails.
const FallbackNotice = "Sorry, I encountered an error. Please try again."

// ErrBusy is returned by Ask while a previous answer is still streaming.
var ErrBusy = errors.New("an answer is still in progress")

// Streamer opens the answer stream for one question.
type Streamer interface {
	Stream(ctx context.Context, req types.ChatRequest) iter.Seq2[string, error]
}

// Conversation is the transcript of questions about one paper. At most
// one answer streams at a time.
type Conversation struct {
	PaperID string
	PDFURL  string

	streamer Streamer
	logger   *zap.Logger

	mu       sync.Mutex
	messages []types.ChatMessage
	busy     bool
}

// NewConversation starts an empty conversation about a paper.
func NewConversation(paperID, pdfURL string, s Streamer, logger *zap.Logger) *Conversation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conversation{PaperID: paperID, PDFURL: pdfURL, streamer: s, logger: logger}
}

// Ask submits question and streams the answer into the transcript.
// onUpdate, when set, receives the assistant message after every chunk.
//
// On failure the partial answer stays in the transcript (it is dropped
// when nothing arrived) followed by FallbackNotice, and Ask returns the
// partial message with the error.
func (c *Conversation) Ask(ctx context.Context, question string, onUpdate func(types.ChatMessage)) (types.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return types.ChatMessage{}, &apperr.ValidationError{Field: "message"}
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return types.ChatMessage{}, ErrBusy
	}
	c.busy = true
	c.messages = append(c.messages, newMessage(types.RoleUser, question))
	answer := newMessage(types.RoleAssistant, "")
	c.messages = append(c.messages, answer)
	idx := len(c.messages) - 1
	c.mu.Unlock()

	req := types.ChatRequest{PaperID: c.PaperID, PDFURL: c.PDFURL, Message: question}
	content, err := stream.Assemble(c.streamer.Stream(ctx, req), func(content string) {
		c.mu.Lock()
		c.messages[idx].Content = content
		msg := c.messages[idx]
		c.mu.Unlock()
		if onUpdate != nil {
			onUpdate(msg)
		}
	})
	answer.Content = content

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err == nil {
		return answer, nil
	}

	if content == "" {
		c.messages = c.messages[:idx]
	}
	c.messages = append(c.messages, newMessage(types.RoleAssistant, FallbackNotice))
	c.logger.Warn("chat answer failed",
		zap.String("paper_id", c.PaperID),
		zap.Int("partial_chars", len(content)),
		zap.Error(err),
	)
	return answer, fmt.Errorf("answering question: %w", err)
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether an answer is streaming.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func newMessage(role types.Role, content string) types.ChatMessage {
	return types.ChatMessage{ID: uuid.NewString(), Role: role, Content: content}
}
