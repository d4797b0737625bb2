// Command mcp serves the receipt text pipeline as MCP tools over stdio.
// Stdout belongs to the protocol; logs go to stderr.
package main

import (
	"fmt"
	"log/slog"
	"os"

	mcpadapter "github.com/BradRyan1/Receipt-Processor/internal/adapters/mcp"
	"github.com/BradRyan1/Receipt-Processor/internal/config"
	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
	"github.com/BradRyan1/Receipt-Processor/internal/core/usecase"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/entity/ollama"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/resilience"
	"github.com/BradRyan1/Receipt-Processor/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewTextLogger(cfg.LogLevel))

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	srv := mcpadapter.NewServer(pipeline, version)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}

func buildPipeline(cfg config.Config) (*usecase.Pipeline, error) {
	var rules []classify.Rule
	if cfg.RulesPath != "" {
		f, err := os.Open(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("open rules file: %w", err)
		}
		defer f.Close()
		rules, err = classify.LoadRules(f)
		if err != nil {
			return nil, fmt.Errorf("load rules file %s: %w", cfg.RulesPath, err)
		}
	}

	var analyzer ports.EntityAnalyzer
	if cfg.EntityEnabled {
		executor := resilience.NewExecutor(resilience.DefaultConfig())
		analyzer = ollama.NewAnalyzer(ollama.New(cfg.OllamaURL, cfg.OllamaModel), executor)
	}
	return usecase.NewPipeline(classify.NewClassifier(rules), analyzer, cfg.EntityMinConfidence), nil
}
