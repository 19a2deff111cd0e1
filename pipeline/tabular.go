package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fabfab/bi-agent/forecast"
	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/timeseries"
)

// TabularPipeline answers against the first CSV file in the selection, either
// by forecasting its ds/y columns or by handing the full rendered table to
// the model for analysis.
type TabularPipeline struct {
	dataDir string
	llm     llm.Client
	engine  *forecast.Engine
	logger  *log.Logger
}

func NewTabularPipeline(dataDir string, client llm.Client, engine *forecast.Engine, logger *log.Logger) *TabularPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &TabularPipeline{
		dataDir: dataDir,
		llm:     client,
		engine:  engine,
		logger:  logger,
	}
}

func (p *TabularPipeline) Answer(ctx context.Context, query Query, wantsPlot bool) Result {
	if len(query.SelectedFiles) == 0 {
		return ErrorResult(errors.New("no files selected"))
	}

	name := firstCSV(query.SelectedFiles)
	if name == "" {
		return ErrorResult(errors.New("no CSV file in the selection"))
	}

	path := filepath.Join(p.dataDir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrorResult(fmt.Errorf("error reading CSV file: %w", err))
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return ErrorResult(fmt.Errorf("error reading CSV file: %w", err))
	}

	if wantsPlot {
		series, err := timeseries.FromColumns(records)
		if err != nil {
			return ErrorResult(fmt.Errorf("failed to format data for forecasting: %w", err))
		}
		result, err := p.engine.Forecast(series, name)
		if err != nil {
			return ErrorResult(err)
		}
		return ForecastOutcome(result.Summary, result.ImagePath)
	}

	answer, err := llm.Invoke(ctx, p.llm, analysisPrompt(query.Text, renderTable(records)))
	if err != nil {
		return ErrorResult(fmt.Errorf("model invocation failed: %w", err))
	}

	return TextResult(strings.TrimSpace(answer))
}

func firstCSV(files []string) string {
	for _, file := range files {
		if strings.HasSuffix(strings.ToLower(file), ".csv") {
			return file
		}
	}
	return ""
}

func renderTable(records [][]string) string {
	builder := &strings.Builder{}
	for _, record := range records {
		builder.WriteString(strings.Join(record, ", "))
		builder.WriteString("\n")
	}
	return builder.String()
}

func analysisPrompt(query, table string) string {
	return fmt.Sprintf(`You are a data analyst. Answer the user's query based on the provided CSV data.

CSV Data:
%s

Query: %q

Based on the CSV data, provide a concise answer to the query.`, table, query)
}

var _ Pipeline = (*TabularPipeline)(nil)
