package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fabfab/bi-agent/agent"
	"github.com/fabfab/bi-agent/database"
	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/security"
)

// RunnerFactory opens a database connection scoped to one request and
// returns the query runner plus its cleanup.
type RunnerFactory func(ctx context.Context) (agent.QueryRunner, func(), error)

// PostgresRunnerFactory builds runners backed by a fresh pgx pool per
// request.
func PostgresRunnerFactory(dsn string) RunnerFactory {
	return func(ctx context.Context) (agent.QueryRunner, func(), error) {
		pool, err := database.NewPostgresPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return database.NewPgxRunner(pool), pool.Close, nil
	}
}

// RelationalPipeline delegates the query to the autonomous SQL agent and
// parses its final text into label/value records.
type RelationalPipeline struct {
	factory RunnerFactory
	llm     llm.Client
	logger  *log.Logger
}

func NewRelationalPipeline(factory RunnerFactory, client llm.Client, logger *log.Logger) *RelationalPipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &RelationalPipeline{
		factory: factory,
		llm:     client,
		logger:  logger,
	}
}

func (p *RelationalPipeline) Answer(ctx context.Context, query Query, _ bool) Result {
	runner, cleanup, err := p.factory(ctx)
	if err != nil {
		return ErrorResult(fmt.Errorf("error connecting to the database: %w", err))
	}
	defer cleanup()

	sqlAgent := agent.New(p.llm, runner, p.logger)
	raw, err := sqlAgent.Run(ctx, query.Text)
	if err != nil {
		if errors.Is(err, agent.ErrExhausted) {
			return ErrorResult(errors.New("the sql agent could not complete the query; it may be out of scope for the database"))
		}
		return ErrorResult(fmt.Errorf("error executing sql query: %w", err))
	}

	masked := security.MaskPII(raw)
	return RecordsResult(ParseRecords(masked))
}

// ParseRecords interprets the agent's final text as a list of label/value
// records. The agent is instructed to emit a JSON array of {label, value}
// objects; a two-element-array form is also accepted. Anything else falls
// back to a single record carrying the raw string.
func ParseRecords(text string) []Record {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		payload := []byte(text[start : end+1])

		var records []Record
		if err := json.Unmarshal(payload, &records); err == nil && wellFormed(records) {
			return records
		}

		var pairs [][]any
		if err := json.Unmarshal(payload, &pairs); err == nil && len(pairs) > 0 {
			records = make([]Record, 0, len(pairs))
			for _, pair := range pairs {
				if len(pair) != 2 {
					records = nil
					break
				}
				records = append(records, Record{Label: fmt.Sprint(pair[0]), Value: pair[1]})
			}
			if len(records) > 0 {
				return records
			}
		}
	}

	return []Record{{Label: "Result", Value: text}}
}

func wellFormed(records []Record) bool {
	if len(records) == 0 {
		return false
	}
	for _, record := range records {
		if record.Label == "" {
			return false
		}
	}
	return true
}

var _ Pipeline = (*RelationalPipeline)(nil)
