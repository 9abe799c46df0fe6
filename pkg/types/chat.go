// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role tags the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in a conversation about a paper. Assistant
// content grows while its stream is open and is frozen afterwards.
type ChatMessage struct {
	ID      string `json:"id" yaml:"id"`
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ChatRequest is the body accepted by the chat endpoint.
type ChatRequest struct {
	PaperID string `json:"paperId"`
	PDFURL  string `json:"pdfUrl"`
	Message string `json:"message"`
}
