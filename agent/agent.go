// Package agent implements the autonomous SQL-generating loop used by the
// relational pipeline. The model emits one JSON action per step, either a SQL
// statement to execute or a final answer; running out of steps is an expected
// outcome reported as ErrExhausted.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fabfab/bi-agent/llm"
)

const defaultMaxSteps = 8

// ErrExhausted signals that the agent gave up without producing a final
// answer. Callers treat it as a first-class outcome, not a crash.
var ErrExhausted = errors.New("the sql agent could not complete the query")

// QueryRunner executes SQL and returns column names plus stringified rows.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string) (columns []string, rows [][]string, err error)
}

type action struct {
	Action string `json:"action"`
	Query  string `json:"query,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// Agent drives the generate-execute loop against one live database.
type Agent struct {
	llm      llm.Client
	runner   QueryRunner
	maxSteps int
	logger   *log.Logger
}

func New(client llm.Client, runner QueryRunner, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		llm:      client,
		runner:   runner,
		maxSteps: defaultMaxSteps,
		logger:   logger,
	}
}

// Run iterates until the model produces a final answer or the step budget is
// spent. Execution errors are fed back to the model as observations so it can
// correct its own SQL.
func (a *Agent) Run(ctx context.Context, question string) (string, error) {
	tables := a.listTables(ctx)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(tables)},
		{Role: llm.RoleUser, Content: question},
	}

	for step := 0; step < a.maxSteps; step++ {
		response, err := a.llm.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("agent step %d: %w", step+1, err)
		}

		act, parseErr := parseAction(response)
		if parseErr != nil {
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: response},
				llm.Message{Role: llm.RoleUser, Content: "Your reply was not a valid action object. Reply with a single JSON object only."},
			)
			continue
		}

		switch act.Action {
		case "final":
			return act.Answer, nil
		case "sql":
			observation := a.execute(ctx, act.Query)
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: response},
				llm.Message{Role: llm.RoleUser, Content: "Observation:\n" + observation},
			)
		default:
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: response},
				llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("Unknown action %q. Use \"sql\" or \"final\".", act.Action)},
			)
		}
	}

	return "", ErrExhausted
}

func (a *Agent) execute(ctx context.Context, sql string) string {
	a.logger.Printf("agent executing sql: %s", sql)

	columns, rows, err := a.runner.RunQuery(ctx, sql)
	if err != nil {
		return fmt.Sprintf("query failed: %v", err)
	}

	return renderRows(columns, rows)
}

func (a *Agent) listTables(ctx context.Context) []string {
	_, rows, err := a.runner.RunQuery(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name")
	if err != nil {
		a.logger.Printf("list tables: %v", err)
		return nil
	}

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			tables = append(tables, row[0])
		}
	}
	return tables
}

// parseAction extracts the single JSON action object from the model reply,
// tolerating surrounding prose or code fences.
func parseAction(response string) (action, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return action{}, fmt.Errorf("no json object in response")
	}

	var act action
	if err := json.Unmarshal([]byte(response[start:end+1]), &act); err != nil {
		return action{}, fmt.Errorf("decode action: %w", err)
	}
	if act.Action == "" {
		return action{}, fmt.Errorf("action field missing")
	}
	return act, nil
}

func renderRows(columns []string, rows [][]string) string {
	if len(rows) == 0 {
		return "query returned no rows"
	}

	builder := &strings.Builder{}
	builder.WriteString(strings.Join(columns, " | "))
	builder.WriteString("\n")
	for i, row := range rows {
		// Cap the observation so a huge result cannot blow the prompt.
		if i == 50 {
			fmt.Fprintf(builder, "... (%d more rows)", len(rows)-i)
			break
		}
		builder.WriteString(strings.Join(row, " | "))
		builder.WriteString("\n")
	}
	return builder.String()
}

func systemPrompt(tables []string) string {
	builder := &strings.Builder{}
	builder.WriteString(`You are an expert business analyst with access to a PostgreSQL database. Answer the user's question by generating and executing SQL queries, then provide insights and suggestions based on the results.

On every turn reply with exactly one JSON object and nothing else:
- {"action": "sql", "query": "<one SQL statement>"} to run a query and receive its result as an observation.
- {"action": "final", "answer": "<your final answer>"} when you can answer the question.

When the final answer is a list of label/value pairs, format the answer field itself as a JSON array like [{"label": "Product A", "value": 100}].`)

	if len(tables) > 0 {
		builder.WriteString("\n\nTables available: ")
		builder.WriteString(strings.Join(tables, ", "))
	}

	return builder.String()
}
