package timeseries

import (
	"context"
	"log"
	"strings"

	"github.com/fabfab/bi-agent/llm"
)

// Miner recovers a two-column series from an unstructured text blob.
// Implementations return ErrNoSeries when the text holds no chronological
// numeric data; any other error is a service fault.
type Miner interface {
	Mine(ctx context.Context, text string) (Series, error)
}

// LLMMiner asks the language model to emit the series in the strict tabular
// form, then validates the response before accepting it.
type LLMMiner struct {
	llm    llm.Client
	logger *log.Logger
}

func NewLLMMiner(client llm.Client, logger *log.Logger) *LLMMiner {
	if logger == nil {
		logger = log.Default()
	}
	return &LLMMiner{llm: client, logger: logger}
}

func (m *LLMMiner) Mine(ctx context.Context, text string) (Series, error) {
	response, err := llm.Invoke(ctx, m.llm, miningPrompt(text))
	if err != nil {
		return nil, err
	}

	cleaned := stripCodeFences(response)
	series, err := ParseStrictTable(cleaned)
	if err != nil {
		m.logger.Printf("series mining produced no usable table (%d response bytes)", len(response))
		return nil, ErrNoSeries
	}

	return series, nil
}

const miningPromptHeader = `Extract a time series of dates and numeric values from the text below.

Rules:
- Output only CSV, nothing else: no commentary, no code fences, no empty rows.
- The first line must be exactly: ds,y
- One row per date. Normalize every date to ISO format (YYYY-MM-DD).
- Exactly one numeric value per date. Strip currency symbols and thousands separators.
- If the text contains no dated numeric data, output exactly: NONE

Example 1:
Text: "Revenue was $1,200 in Jan 2024 and rose to $1,350 by February 2024."
Output:
ds,y
2024-01-01,1200
2024-02-01,1350

Example 2:
Text: "Our refund policy allows returns within 30 days."
Output:
NONE

Text:
`

func miningPrompt(text string) string {
	return miningPromptHeader + text
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```csv")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var _ Miner = (*LLMMiner)(nil)
