package pipeline_test

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fabfab/bi-agent/forecast"
	"github.com/fabfab/bi-agent/pipeline"
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestTabularEmptySelectionFailsWithoutReadingFiles(t *testing.T) {
	p := pipeline.NewTabularPipeline("/nonexistent", &stubLLM{}, nil, discard())

	result := p.Answer(context.Background(), pipeline.Query{Text: "what are the sales"}, false)
	if result.Err == nil {
		t.Fatal("expected error for empty selection")
	}
	if !strings.Contains(result.Err.Error(), "no files selected") {
		t.Fatalf("unexpected error: %v", result.Err)
	}
}

func TestTabularNoCSVInSelection(t *testing.T) {
	p := pipeline.NewTabularPipeline(t.TempDir(), &stubLLM{}, nil, discard())

	result := p.Answer(context.Background(), pipeline.Query{Text: "q", SelectedFiles: []string{"report.pdf"}}, false)
	if result.Err == nil || !strings.Contains(result.Err.Error(), "no CSV file") {
		t.Fatalf("expected no-CSV error, got %v", result.Err)
	}
}

func TestTabularAnalysisPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "product,amount\nwidget,100\ngadget,250\n")

	client := &stubLLM{response: "  Gadgets sell best.  "}
	p := pipeline.NewTabularPipeline(dir, client, nil, discard())

	result := p.Answer(context.Background(), pipeline.Query{
		Text:          "which product sells best",
		SelectedFiles: []string{"sales.csv"},
	}, false)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Text != "Gadgets sell best." {
		t.Fatalf("expected trimmed answer, got %q", result.Text)
	}
	if result.ImagePath != "" {
		t.Fatalf("analysis path must not produce an image, got %q", result.ImagePath)
	}

	joined := strings.Join(client.prompts, "\n")
	if !strings.Contains(joined, "widget, 100") {
		t.Fatal("expected rendered table inside the prompt")
	}
}

func TestTabularForecastPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "ds,y\n2024-01-01,100\n2024-01-02,110\n2024-01-03,120\n")

	engine := forecast.NewEngine(t.TempDir(), discard())
	p := pipeline.NewTabularPipeline(dir, &stubLLM{}, engine, discard())

	result := p.Answer(context.Background(), pipeline.Query{
		Text:          "forecast sales for next year",
		SelectedFiles: []string{"sales.csv"},
	}, true)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !strings.HasPrefix(result.ImagePath, forecast.PublicPathPrefix) {
		t.Fatalf("expected artifact reference, got %q", result.ImagePath)
	}
	finalDate := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, forecast.Horizon).Format("2006-01-02")
	if !strings.Contains(result.Text, finalDate) {
		t.Fatalf("expected summary with projected date %s, got %q", finalDate, result.Text)
	}
}

func TestTabularForecastUnresolvableColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "date,total\n2024-01-01,100\n")

	p := pipeline.NewTabularPipeline(dir, &stubLLM{}, forecast.NewEngine(t.TempDir(), discard()), discard())

	result := p.Answer(context.Background(), pipeline.Query{
		Text:          "forecast this",
		SelectedFiles: []string{"sales.csv"},
	}, true)

	if result.Err == nil || !strings.Contains(result.Err.Error(), "failed to format data") {
		t.Fatalf("expected formatting error, got %v", result.Err)
	}
}

func TestTabularMalformedCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.csv", "a,b\n\"unterminated\n")

	p := pipeline.NewTabularPipeline(dir, &stubLLM{}, nil, discard())

	result := p.Answer(context.Background(), pipeline.Query{
		Text:          "q",
		SelectedFiles: []string{"bad.csv"},
	}, false)

	if result.Err == nil || !strings.Contains(result.Err.Error(), "error reading CSV file") {
		t.Fatalf("expected CSV parse error, got %v", result.Err)
	}
}
