// Package pipeline implements the three answering pipelines (tabular,
// document/RAG, relational) and the tagged result variant they all converge
// on. Pipelines never let an error escape: every outcome is a Result.
package pipeline

import "context"

// Query is the immutable input to every pipeline: the raw text and the
// ordered list of user-selected file names.
type Query struct {
	Text          string
	SelectedFiles []string
}

// Record is one label/value pair of a structured relational answer.
type Record struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Result is the tagged outcome of one pipeline run. Exactly one of Text,
// Records, or Err is set; ImagePath accompanies a forecast outcome.
type Result struct {
	Text      string
	Records   []Record
	ImagePath string
	Err       error
}

func TextResult(text string) Result {
	return Result{Text: text}
}

func RecordsResult(records []Record) Result {
	return Result{Records: records}
}

func ForecastOutcome(summary, imagePath string) Result {
	return Result{Text: summary, ImagePath: imagePath}
}

func ErrorResult(err error) Result {
	return Result{Err: err}
}

// Pipeline answers a query against one data-source category. wantsPlot
// carries the plotting-intent flag derived from the raw query.
type Pipeline interface {
	Answer(ctx context.Context, query Query, wantsPlot bool) Result
}
