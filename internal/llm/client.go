// Package llm provides the language-model client used by the conversational
// expense assistant. The model is a black-box text generator behind a
// request/response interface; interpretation of its replies lives elsewhere.
package llm

import (
	"context"
	"errors"
)

// Message is one turn of prior conversation passed as model context.
type Message struct {
	Role    string // "user", "assistant" or "system"
	Content string
}

// ErrUnavailable wraps transport, auth and server failures from the model
// provider. Callers treat it as fatal for the current turn; nothing is
// retried here.
var ErrUnavailable = errors.New("language model unavailable")

// Client generates a reply to a user message given a system prompt and prior
// conversation history, oldest turn first.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (string, error)
}

// Config holds provider settings for the concrete client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // defaults to the OpenAI API; overridable for tests
	Temperature float64
	MaxTokens   int
}
