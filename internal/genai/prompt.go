// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"strings"
	"unicode/utf8"
)

const chatPromptTemplate = `You are an AI assistant specialized in scientific papers. Use the following paper content to answer the user's question. If the answer cannot be found in the paper, say so.

Paper content:
{{paper}}

User question: {{question}}

Your response:`

const summaryPromptTemplate = `Summarize the following research paper text for a technical reader in one short paragraph. State the problem, the approach and the main result. Do not invent details that are not in the text.

Text:
{{text}}

Summary:`

// truncatedMarker is appended when paper text is cut to fit a prompt.
const truncatedMarker = "\n[... paper text truncated ...]"

// ChatPrompt builds the prompt for a question about a paper. Paper text
// beyond maxChars runes is cut; maxChars <= 0 disables the cut.
func ChatPrompt(paperText, question string, maxChars int) string {
	r := strings.NewReplacer(
		"{{paper}}", Truncate(strings.TrimSpace(paperText), maxChars),
		"{{question}}", strings.TrimSpace(question),
	)
	return r.Replace(chatPromptTemplate)
}

// SummaryPrompt builds the fallback summarization prompt.
func SummaryPrompt(text string, maxChars int) string {
	return strings.Replace(summaryPromptTemplate, "{{text}}", Truncate(strings.TrimSpace(text), maxChars), 1)
}

// Truncate cuts s to at most maxChars runes, marking the cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i] + truncatedMarker
		}
		n++
	}
	return s
}
