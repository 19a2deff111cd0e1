// Package llm abstracts the language-model service behind a single-call
// client interface. Every pipeline builds one prompt and makes one call;
// failures are returned to the caller, never retried here.
package llm

import (
	"context"
	"fmt"

	"github.com/fabfab/bi-agent/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Invoke is a convenience for the common single-prompt case.
func Invoke(ctx context.Context, c Client, prompt string) (string, error) {
	return c.Generate(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

type Options struct {
	Model   string
	APIKey  string
	BaseURL string
}

func NewClient(cfg config.Config) (Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	return NewOpenAIClient(Options{
		Model:   cfg.LLMModel,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	}), nil
}
