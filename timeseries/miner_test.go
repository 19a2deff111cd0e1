package timeseries_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/timeseries"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var _ llm.Client = (*stubLLM)(nil)

func TestMineAcceptsStrictTable(t *testing.T) {
	miner := timeseries.NewLLMMiner(&stubLLM{response: "ds,y\n2024-01-01,100\n2024-02-01,150"}, log.New(io.Discard, "", 0))

	series, err := miner.Mine(context.Background(), "revenue was 100 in january")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
}

func TestMineStripsCodeFences(t *testing.T) {
	miner := timeseries.NewLLMMiner(&stubLLM{response: "```csv\nds,y\n2024-01-01,100\n2024-02-01,150\n```"}, log.New(io.Discard, "", 0))

	series, err := miner.Mine(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
}

func TestMineNoSeries(t *testing.T) {
	for _, response := range []string{"NONE", "There is no numeric data here.", ""} {
		miner := timeseries.NewLLMMiner(&stubLLM{response: response}, log.New(io.Discard, "", 0))
		if _, err := miner.Mine(context.Background(), "policy document"); !errors.Is(err, timeseries.ErrNoSeries) {
			t.Fatalf("response %q: expected ErrNoSeries, got %v", response, err)
		}
	}
}

func TestMineServiceErrorIsNotNoSeries(t *testing.T) {
	miner := timeseries.NewLLMMiner(&stubLLM{err: errors.New("boom")}, log.New(io.Discard, "", 0))
	_, err := miner.Mine(context.Background(), "some text")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, timeseries.ErrNoSeries) {
		t.Fatal("service error must stay distinct from ErrNoSeries")
	}
}
