package llm

import (
	"context"
	"fmt"
)

// Request is a single chat-completion call: one system prompt, one user
// message, and generation settings.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// WantJSON asks the provider to constrain output to a JSON object
	// where the API supports a response-format hint.
	WantJSON bool
}

// Provider is a chat-completion LLM client. Implementations are stateless
// and safe for concurrent use across pipeline workers.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string // openai, anthropic
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// NewProvider constructs the configured provider.
func NewProvider(cfg *Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
