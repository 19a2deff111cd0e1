package pipeline_test

import (
	"context"

	"github.com/fabfab/bi-agent/embeddings"
	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/timeseries"
)

type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	for _, msg := range messages {
		s.prompts = append(s.prompts, msg.Content)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.Client = (*stubLLM)(nil)

// stubEmbedder returns one deterministic vector per input text.
type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)%7) + 1, float32(len(text)%3) + 1}
	}
	return vectors, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

type stubMiner struct {
	series timeseries.Series
	err    error
}

func (s *stubMiner) Mine(ctx context.Context, text string) (timeseries.Series, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

var _ timeseries.Miner = (*stubMiner)(nil)
