package agent_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/fabfab/bi-agent/agent"
	"github.com/fabfab/bi-agent/llm"
)

// scriptedLLM replays a fixed sequence of responses.
type scriptedLLM struct {
	responses []string
	seen      [][]llm.Message
	err       error
}

func (s *scriptedLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.seen = append(s.seen, messages)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("script exhausted")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

var _ llm.Client = (*scriptedLLM)(nil)

type recordingRunner struct {
	executed []string
	columns  []string
	rows     [][]string
	err      error
}

func (r *recordingRunner) RunQuery(ctx context.Context, sql string) ([]string, [][]string, error) {
	r.executed = append(r.executed, sql)
	if r.err != nil {
		return nil, nil, r.err
	}
	return r.columns, r.rows, nil
}

var _ agent.QueryRunner = (*recordingRunner)(nil)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAgentExecutesSQLThenFinishes(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		`{"action": "sql", "query": "SELECT count(*) FROM users"}`,
		`{"action": "final", "answer": "There are 42 users."}`,
	}}
	runner := &recordingRunner{columns: []string{"count"}, rows: [][]string{{"42"}}}

	answer, err := agent.New(client, runner, discard()).Run(context.Background(), "how many users are there?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "There are 42 users." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	// First runner call lists tables, second executes the generated SQL.
	if len(runner.executed) != 2 {
		t.Fatalf("expected 2 executed statements, got %d", len(runner.executed))
	}
	if runner.executed[1] != "SELECT count(*) FROM users" {
		t.Fatalf("unexpected statement: %q", runner.executed[1])
	}
}

func TestAgentFeedsExecutionErrorBack(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		`{"action": "sql", "query": "SELECT * FROM nope"}`,
		`{"action": "final", "answer": "The table does not exist."}`,
	}}
	runner := &recordingRunner{err: errors.New(`relation "nope" does not exist`)}

	answer, err := agent.New(client, runner, discard()).Run(context.Background(), "query nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The table does not exist." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	// The failure must have been surfaced to the model as an observation.
	last := client.seen[len(client.seen)-1]
	observation := last[len(last)-1].Content
	if !strings.Contains(observation, "query failed") {
		t.Fatalf("expected failure observation, got %q", observation)
	}
}

func TestAgentRecoversFromMalformedAction(t *testing.T) {
	client := &scriptedLLM{responses: []string{
		"let me think about that",
		`{"action": "final", "answer": "done"}`,
	}}

	answer, err := agent.New(client, &recordingRunner{}, discard()).Run(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "done" {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestAgentExhaustion(t *testing.T) {
	responses := make([]string, 0, 16)
	for i := 0; i < 16; i++ {
		responses = append(responses, `{"action": "sql", "query": "SELECT 1"}`)
	}
	client := &scriptedLLM{responses: responses}

	_, err := agent.New(client, &recordingRunner{columns: []string{"?column?"}, rows: [][]string{{"1"}}}, discard()).
		Run(context.Background(), "unanswerable")
	if !errors.Is(err, agent.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestAgentServiceErrorPropagates(t *testing.T) {
	client := &scriptedLLM{err: errors.New("model down")}

	_, err := agent.New(client, &recordingRunner{}, discard()).Run(context.Background(), "question")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, agent.ErrExhausted) {
		t.Fatal("service error must stay distinct from exhaustion")
	}
}
