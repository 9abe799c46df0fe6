// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
	"github.com/svskaushik/ArxivPulse/internal/chat"
	"github.com/svskaushik/ArxivPulse/internal/discovery"
	"github.com/svskaushik/ArxivPulse/internal/logging"
	"github.com/svskaushik/ArxivPulse/internal/pdftext"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat <arxiv-id-or-pdf-url>",
	Short: "Ask questions about a paper's PDF",
	Long: `Chat answers questions about one paper using its PDF text. Each
--question is asked in turn; without any, questions are read from standard
input one per line. Answers stream to standard output as they arrive.

With --server the questions go to a running arxivpulse API instead of
calling the model directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayP("question", "q", nil, "question to ask (repeatable)")
	chatCmd.Flags().String("server", "", "base URL of an arxivpulse API (e.g. http://localhost:8080)")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	questions, _ := cmd.Flags().GetStringArray("question")
	serverURL, _ := cmd.Flags().GetString("server")

	pdfURL, err := pdftext.ResolveURL(args[0])
	if err != nil {
		return err
	}
	paperID := discovery.ExtractArxivID(args[0])

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var streamer chat.Streamer = &localStreamer{svc: a.chat}
	if serverURL != "" {
		streamer = &chat.HTTPStreamer{
			Client:  a.metrics.Client("chat", 0),
			BaseURL: serverURL,
			Timeout: a.cfg.Server.StreamTimeout,
			Logger:  logging.Component(a.logger, "chat-client"),
		}
	}
	conv := chat.NewConversation(paperID, pdfURL, streamer, logging.Component(a.logger, "conversation"))

	out := cmd.OutOrStdout()
	if len(questions) > 0 {
		for _, q := range questions {
			ask(cmd.Context(), conv, q, out)
		}
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Chatting about %s. One question per line, Ctrl-D to quit.\n", pdfURL)
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		ask(cmd.Context(), conv, sc.Text(), out)
	}
	return sc.Err()
}

// ask prints the answer as it grows and the fallback notice on failure.
func ask(ctx context.Context, conv *chat.Conversation, question string, out io.Writer) {
	printed := 0
	_, err := conv.Ask(ctx, question, func(m types.ChatMessage) {
		fmt.Fprint(out, m.Content[printed:])
		printed = len(m.Content)
	})
	if printed > 0 {
		fmt.Fprintln(out)
	}
	if err != nil {
		fmt.Fprintln(out, chat.FallbackNotice)
	}
	fmt.Fprintln(out)
}

// localStreamer answers in-process through a chat.Service.
type localStreamer struct {
	svc *chat.Service
}

func (l *localStreamer) Stream(ctx context.Context, req types.ChatRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		fw := &yieldWriter{yield: yield}
		err := l.svc.Answer(ctx, req, fw)
		if fw.stopped {
			return
		}
		if fw.err != nil {
			yield("", fw.err)
			return
		}
		if err != nil {
			yield("", err)
		}
	}
}

var errConsumerStopped = errors.New("consumer stopped")

// yieldWriter turns answer frames back into sequence values.
type yieldWriter struct {
	yield   func(string, error) bool
	stopped bool
	err     error
}

func (w *yieldWriter) Chunk(text string) error {
	if !w.yield(text, nil) {
		w.stopped = true
		return errConsumerStopped
	}
	return nil
}

func (w *yieldWriter) Comment(string) error { return nil }

func (w *yieldWriter) ErrorDetails(msg, details string) error {
	w.err = &apperr.ProtocolError{Remote: true, Message: msg + ": " + details}
	return nil
}
