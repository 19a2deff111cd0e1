// Package embeddings abstracts the embedding service used to vectorize
// document chunks and queries.
package embeddings

import (
	"context"
	"fmt"

	"github.com/fabfab/bi-agent/config"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	Model     string
	Dimension int
	APIKey    string
	BaseURL   string
}

func NewEmbedder(cfg config.Config) (Embedder, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	return NewOpenAIEmbedder(Options{
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
	}), nil
}
