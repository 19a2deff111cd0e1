// Package orchestrator composes the plot-intent detector, the router, and the
// answering pipelines, and normalizes their heterogeneous results into the
// single response envelope.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/fabfab/bi-agent/pipeline"
	"github.com/fabfab/bi-agent/router"
)

// Envelope is the unified per-request response. Exactly one of the answer
// shapes (text, record list, error object) is populated for any pipeline
// outcome; an Unknown route carries a null answer. Never mutated after
// return.
type Envelope struct {
	Source    string  `json:"source"`
	Query     string  `json:"query"`
	Answer    any     `json:"answer"`
	ImagePath *string `json:"image_path"`
}

// ErrorBody is the error shape inside the envelope's answer field.
type ErrorBody struct {
	Error string `json:"error"`
}

type Orchestrator struct {
	classifier router.Classifier
	pipelines  map[router.Source]pipeline.Pipeline
	logger     *log.Logger
}

func New(classifier router.Classifier, tabular, document, relational pipeline.Pipeline, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		classifier: classifier,
		pipelines: map[router.Source]pipeline.Pipeline{
			router.SourceTabular:    tabular,
			router.SourceDocument:   document,
			router.SourceRelational: relational,
		},
		logger: logger,
	}
}

// Ask runs one self-contained request: detect plotting intent, route, answer,
// normalize. The intent detector and router have no data dependency on each
// other; everything downstream runs in strict stage order.
func (o *Orchestrator) Ask(ctx context.Context, query pipeline.Query) (envelope Envelope) {
	defer func() {
		// No fault may escape the orchestration boundary.
		if r := recover(); r != nil {
			o.logger.Printf("pipeline panic: %v", r)
			envelope = Envelope{
				Source: string(router.SourceUnknown),
				Query:  query.Text,
				Answer: ErrorBody{Error: fmt.Sprintf("internal error: %v", r)},
			}
		}
	}()

	wantsPlot := router.HasPlottingIntent(query.Text)
	source := o.classifier.Classify(ctx, query.Text)
	o.logger.Printf("routed query to %s (plotting intent: %t)", source, wantsPlot)

	target, ok := o.pipelines[source]
	if !ok {
		return Envelope{Source: string(router.SourceUnknown), Query: query.Text}
	}

	result := target.Answer(ctx, query, wantsPlot)
	return normalize(source, query, result)
}

// normalize converts a pipeline's tagged result into the envelope. Pipeline
// result shapes never leak past this point.
func normalize(source router.Source, query pipeline.Query, result pipeline.Result) Envelope {
	envelope := Envelope{
		Source: string(source),
		Query:  query.Text,
	}

	switch {
	case result.Err != nil:
		envelope.Answer = ErrorBody{Error: result.Err.Error()}
	case result.Records != nil:
		envelope.Answer = result.Records
	default:
		envelope.Answer = result.Text
	}

	if result.Err == nil && result.ImagePath != "" {
		path := result.ImagePath
		envelope.ImagePath = &path
	}

	return envelope
}
