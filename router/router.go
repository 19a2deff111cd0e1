// Package router classifies an incoming query into the data-source category
// that should answer it, and detects whether the user wants a forecast plot.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fabfab/bi-agent/llm"
)

// Source is the data-source category chosen for a query.
type Source string

const (
	SourceTabular    Source = "Tabular"
	SourceDocument   Source = "Document"
	SourceRelational Source = "Relational"
	SourceUnknown    Source = "Unknown"
)

// Classifier routes a raw query to a Source. Implementations are best-effort
// heuristics: misrouting is recoverable behavior, and a classifier never
// returns an error, only SourceUnknown.
type Classifier interface {
	Classify(ctx context.Context, query string) Source
}

// LLMClassifier asks the language model to pick the source with a single
// call. Any unrecognized response or service failure maps to SourceUnknown.
type LLMClassifier struct {
	llm    llm.Client
	logger *log.Logger
}

func NewLLMClassifier(client llm.Client, logger *log.Logger) *LLMClassifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LLMClassifier{llm: client, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) Source {
	response, err := llm.Invoke(ctx, c.llm, routingPrompt(query))
	if err != nil {
		c.logger.Printf("routing call failed: %v", err)
		return SourceUnknown
	}

	switch Source(strings.TrimSpace(response)) {
	case SourceTabular:
		return SourceTabular
	case SourceDocument:
		return SourceDocument
	case SourceRelational:
		return SourceRelational
	default:
		c.logger.Printf("unrecognized routing response: %q", response)
		return SourceUnknown
	}
}

func routingPrompt(query string) string {
	return fmt.Sprintf(`You are an expert query router. Classify the user's query and determine the most appropriate data source. A query might sound like it is for a database, but it could be a question about a recently uploaded document.

The available data sources are: Relational, Document, Tabular.

- Use Relational for queries that involve calculations, aggregations, or questions about structured data in a database.
  Examples: 'What are the total sales for the last quarter?', 'Show me the top 5 selling products.', 'How many users are there?'

- Use Document for queries about the content of uploaded documents (PDFs, Word documents, or Excel files). If the query asks to summarize, analyze, or find specific information within a document, use Document. Prioritize Document for document-specific questions.
  Examples: 'What is the company's policy on remote work?', 'Summarize the key findings of the research paper.', 'What were the sales and marketing expenses last year?'

- Use Tabular for queries on simple tabular data from a CSV file. If a CSV file is selected and the query is about analyzing, forecasting, or extracting data from that file, prioritize Tabular.
  Examples: 'What is the price of product X?', 'List all products in the category Y.', 'Forecast sales from this CSV.'

Query: %q

Respond with only one word: Relational, Document, or Tabular.`, query)
}

var _ Classifier = (*LLMClassifier)(nil)
