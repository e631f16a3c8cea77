package outbound

import (
	"context"

	"github.com/medihort/medihort-ai/internal/domain/chat"
)

// CompletionOptions tunes a single completion call
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// LanguageModel is a chat-completion provider (Ollama, OpenAI, Vertex AI)
type LanguageModel interface {
	Name() string
	// Complete returns the assistant reply for the system prompt followed by messages
	Complete(ctx context.Context, systemPrompt string, messages []chat.Message, opts CompletionOptions) (string, error)
	HealthCheck(ctx context.Context) error
}
