// Package llm provides the chat completion client used to generate answers.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options bound a completion request.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer generates a completion for an ordered list of messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts *Options) (string, error)
	Name() string
}
