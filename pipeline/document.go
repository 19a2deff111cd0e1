package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fabfab/bi-agent/embeddings"
	"github.com/fabfab/bi-agent/extract"
	"github.com/fabfab/bi-agent/forecast"
	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/timeseries"
)

// DocumentPipeline answers against the text of the selected documents. With
// plotting intent it mines the corpus for a time series and forecasts it;
// otherwise it runs the split, index, retrieve top-k, answer sequence. The
// ordering matters: corpora can exceed the model's practical context size, so
// feeding the full corpus is not an acceptable substitution.
type DocumentPipeline struct {
	dataDir  string
	embedder embeddings.Embedder
	llm      llm.Client
	miner    timeseries.Miner
	engine   *forecast.Engine
	logger   *log.Logger
}

func NewDocumentPipeline(
	dataDir string,
	embedder embeddings.Embedder,
	client llm.Client,
	miner timeseries.Miner,
	engine *forecast.Engine,
	logger *log.Logger,
) *DocumentPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &DocumentPipeline{
		dataDir:  dataDir,
		embedder: embedder,
		llm:      client,
		miner:    miner,
		engine:   engine,
		logger:   logger,
	}
}

func (p *DocumentPipeline) Answer(ctx context.Context, query Query, wantsPlot bool) Result {
	if len(query.SelectedFiles) == 0 {
		return ErrorResult(errors.New("no files selected"))
	}

	corpus, result := p.buildCorpus(query.SelectedFiles)
	if result != nil {
		return *result
	}

	if wantsPlot {
		return p.forecastFromCorpus(ctx, query, corpus)
	}
	return p.retrieveAndAnswer(ctx, query.Text, corpus)
}

// buildCorpus extracts every selected file into one text blob. A single
// failed extraction aborts the whole request; partial corpora are never
// silently used.
func (p *DocumentPipeline) buildCorpus(files []string) (string, *Result) {
	builder := &strings.Builder{}
	for _, file := range files {
		path := filepath.Join(p.dataDir, filepath.Base(file))
		text, err := extract.FromFile(path)
		if err != nil {
			failure := ErrorResult(fmt.Errorf("error reading file %s: %w", file, err))
			return "", &failure
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	corpus := strings.TrimSpace(builder.String())
	if corpus == "" {
		failure := ErrorResult(errors.New("no extractable text in the selected files"))
		return "", &failure
	}
	return corpus, nil
}

func (p *DocumentPipeline) forecastFromCorpus(ctx context.Context, query Query, corpus string) Result {
	series, err := p.miner.Mine(ctx, corpus)
	if err != nil {
		if errors.Is(err, timeseries.ErrNoSeries) {
			return ErrorResult(timeseries.ErrNoSeries)
		}
		return ErrorResult(fmt.Errorf("series mining failed: %w", err))
	}

	name := query.SelectedFiles[0]
	result, err := p.engine.Forecast(series, name)
	if err != nil {
		return ErrorResult(err)
	}

	// A business interpretation replaces the engine's mechanical summary;
	// if the extra call fails the forecast still stands on its own.
	interpretation, err := llm.Invoke(ctx, p.llm, interpretationPrompt(query.Text, result.Summary))
	if err != nil {
		p.logger.Printf("forecast interpretation failed, keeping engine summary: %v", err)
		return ForecastOutcome(result.Summary, result.ImagePath)
	}

	return ForecastOutcome(strings.TrimSpace(interpretation), result.ImagePath)
}

func (p *DocumentPipeline) retrieveAndAnswer(ctx context.Context, query, corpus string) Result {
	chunks := ChunkText(corpus, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return ErrorResult(errors.New("no extractable text in the selected files"))
	}

	chunkVectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return ErrorResult(fmt.Errorf("embed chunks: %w", err))
	}
	if len(chunkVectors) != len(chunks) {
		return ErrorResult(fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(chunkVectors)))
	}

	queryVectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return ErrorResult(fmt.Errorf("embed query: %w", err))
	}
	if len(queryVectors) == 0 {
		return ErrorResult(errors.New("embedder returned no vectors"))
	}

	index := buildIndex(chunks, chunkVectors)
	matches := index.search(queryVectors[0], topK)
	context := strings.Join(matches, "\n\n")

	answer, err := llm.Invoke(ctx, p.llm, ragPrompt(query, context))
	if err != nil {
		return ErrorResult(fmt.Errorf("model invocation failed: %w", err))
	}

	return TextResult(strings.TrimSpace(answer))
}

func ragPrompt(query, context string) string {
	return fmt.Sprintf(`You are an expert business analyst. Analyze the provided context from documents and answer the user's query using only that context. When appropriate, provide insights and suggestions based on the data. If the context does not contain enough information, explain what is missing.

Context:
%s

Query: %q

Based on the context, provide a concise and insightful answer to the query.`, context, query)
}

func interpretationPrompt(query, summary string) string {
	return fmt.Sprintf(`You are an expert business analyst. A forecast was generated in response to the query %q. The forecast summary is:

%s

Give a short business interpretation of this forecast: what it suggests, and one or two actionable recommendations.`, query, summary)
}

var _ Pipeline = (*DocumentPipeline)(nil)
