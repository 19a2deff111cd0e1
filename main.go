package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fabfab/bi-agent/api"
	"github.com/fabfab/bi-agent/config"
	"github.com/fabfab/bi-agent/embeddings"
	"github.com/fabfab/bi-agent/forecast"
	"github.com/fabfab/bi-agent/llm"
	"github.com/fabfab/bi-agent/orchestrator"
	"github.com/fabfab/bi-agent/pipeline"
	"github.com/fabfab/bi-agent/router"
	"github.com/fabfab/bi-agent/timeseries"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func buildOrchestrator(cfg config.Config, logger *log.Logger) (*orchestrator.Orchestrator, error) {
	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	engine := forecast.NewEngine(cfg.PlotDir, logger)
	miner := timeseries.NewLLMMiner(llmClient, logger)
	classifier := router.NewLLMClassifier(llmClient, logger)

	tabular := pipeline.NewTabularPipeline(cfg.DataDir, llmClient, engine, logger)
	document := pipeline.NewDocumentPipeline(cfg.DataDir, embedder, llmClient, miner, engine, logger)
	relational := pipeline.NewRelationalPipeline(pipeline.PostgresRunnerFactory(cfg.PostgresDSN), llmClient, logger)

	return orchestrator.New(classifier, tabular, document, relational, logger), nil
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "address to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		logger.Fatalf("setup: %v", err)
	}

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, orch, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	query := flags.String("query", "", "question to ask")
	files := flags.String("files", "", "comma-separated list of selected files")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*query) == "" {
		logger.Fatal("a -query is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		logger.Fatalf("setup: %v", err)
	}

	var selected []string
	for _, file := range strings.Split(*files, ",") {
		if trimmed := strings.TrimSpace(file); trimmed != "" {
			selected = append(selected, trimmed)
		}
	}

	envelope := orch.Ask(ctx, pipeline.Query{Text: *query, SelectedFiles: selected})

	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		logger.Fatalf("encode envelope: %v", err)
	}
	fmt.Println(string(encoded))
}

func printUsage() {
	fmt.Println("Usage: bi-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the HTTP API")
	fmt.Println("  ask      Answer a single query from the command line")
}
