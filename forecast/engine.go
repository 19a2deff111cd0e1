// Package forecast fits a trend model on a two-column series, projects a
// fixed horizon, and renders the result as a chart artifact on disk.
package forecast

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fabfab/bi-agent/timeseries"
)

// Horizon is the number of daily periods projected past the last observation.
const Horizon = 365

// PublicPathPrefix is where the HTTP layer exposes saved chart artifacts.
const PublicPathPrefix = "/api/plots/"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
}

// Result is a textual summary plus the public reference of the chart saved on
// durable storage.
type Result struct {
	Summary   string
	ImagePath string
}

// Engine renders forecasts into plotDir. Artifact filenames embed a random
// identifier and are never overwritten or deleted.
type Engine struct {
	plotDir  string
	newModel func() Model
	logger   *log.Logger
}

func NewEngine(plotDir string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		plotDir:  plotDir,
		newModel: func() Model { return newLinearModel() },
		logger:   logger,
	}
}

// Forecast coerces the series dates, fits the model, projects Horizon daily
// periods past the last observed date, saves the chart, and summarizes the
// final projected value. Each stage reports its own failure message.
func (e *Engine) Forecast(series timeseries.Series, name string) (Result, error) {
	obs, err := coerceDates(series)
	if err != nil {
		return Result{}, fmt.Errorf("failed to format data for forecasting: %w", err)
	}

	model := e.newModel()
	if err := model.Fit(obs); err != nil {
		return Result{}, fmt.Errorf("failed to generate forecast: %w", err)
	}

	last := obs[len(obs)-1].T
	projected := make([]Observation, 0, Horizon)
	for day := 1; day <= Horizon; day++ {
		t := last.AddDate(0, 0, day)
		projected = append(projected, Observation{T: t, Y: model.Predict(t)})
	}

	if err := os.MkdirAll(e.plotDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to generate or save plot: %w", err)
	}

	filename := fmt.Sprintf("forecast_%s.png", uuid.New())
	path := filepath.Join(e.plotDir, filename)
	if err := renderChart(path, name, obs, projected); err != nil {
		return Result{}, fmt.Errorf("failed to generate or save plot: %w", err)
	}

	// A silent save failure must not be reported as success.
	if _, err := os.Stat(path); err != nil {
		return Result{}, fmt.Errorf("failed to save plot image file")
	}

	final := projected[len(projected)-1]
	summary := fmt.Sprintf(
		"Forecast generated for the next %d days. The model predicts a value of %.2f on %s.",
		Horizon, final.Y, final.T.Format("2006-01-02"),
	)

	e.logger.Printf("forecast chart saved: %s", filename)
	return Result{Summary: summary, ImagePath: PublicPathPrefix + filename}, nil
}

// coerceDates parses every date string and returns observations sorted by
// time. The engine does not assume input order. Fewer than two parseable rows
// is a formatting failure, not a fitting failure.
func coerceDates(series timeseries.Series) ([]Observation, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 rows, got %d", len(series))
	}

	obs := make([]Observation, 0, len(series))
	for _, point := range series {
		t, err := parseDate(point.DS)
		if err != nil {
			return nil, fmt.Errorf("unparseable date %q", point.DS)
		}
		obs = append(obs, Observation{T: t, Y: point.Y})
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].T.Before(obs[j].T) })
	return obs, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", s)
}
