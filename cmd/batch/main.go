// Command batch processes a local folder of receipt files end to end:
// extract text, classify, and propose (or apply) descriptive filenames.
// It needs no database and no broker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
	"github.com/BradRyan1/Receipt-Processor/internal/core/usecase"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/entity/ollama"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/pdf"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/plaintext"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/tesseract"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/report"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/resilience"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/storage/localfs"
	"github.com/BradRyan1/Receipt-Processor/internal/observability/logging"
)

var supportedExtensions = map[string]bool{
	".txt": true, ".pdf": true,
	".jpg": true, ".jpeg": true, ".png": true, ".tiff": true, ".bmp": true,
}

func main() {
	fs := ff.NewFlagSet("receipts-batch")
	var (
		dir           = fs.StringLong("dir", ".", "Folder of receipt files to process")
		apply         = fs.BoolLong("apply", "Rename files on disk (default is a dry run)")
		skipNoData    = fs.BoolLong("skip-no-data", "Leave files alone when nothing was extracted")
		rulesPath     = fs.StringLong("rules", "", "YAML file with classifier keyword rules")
		reportPath    = fs.StringLong("report", "", "Write a report to this path (.xlsx or .csv)")
		entityEnabled = fs.BoolLong("entity", "Use an Ollama model for extra classification evidence")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llama3.1:8b", "Ollama model name")
		minConfidence = fs.Float64Long("entity-min-confidence", 0.5, "Confidence floor for entity evidence")
		logLevel      = fs.StringLong("log-level", "warn", "Log level: debug, info, warn, error")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPTS"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewTextLogger(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dir, *apply, *skipNoData, *rulesPath, *reportPath, *entityEnabled, *ollamaURL, *ollamaModel, *minConfidence); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	dir string,
	apply, skipNoData bool,
	rulesPath, reportPath string,
	entityEnabled bool,
	ollamaURL, ollamaModel string,
	minConfidence float64,
) error {
	filenames, err := listReceiptFiles(dir)
	if err != nil {
		return err
	}
	if len(filenames) == 0 {
		fmt.Println("no receipt files found")
		return nil
	}

	storage, err := localfs.New(dir)
	if err != nil {
		return fmt.Errorf("open folder: %w", err)
	}

	rules, err := loadRules(rulesPath)
	if err != nil {
		return err
	}
	classifier := classify.NewClassifier(rules)

	var analyzer ports.EntityAnalyzer
	if entityEnabled {
		executor := resilience.NewExecutor(resilience.DefaultConfig())
		analyzer = ollama.NewAnalyzer(ollama.New(ollamaURL, ollamaModel), executor)
	}
	pipeline := usecase.NewPipeline(classifier, analyzer, minConfidence)

	extractors := extractor.NewRouter().
		Register(plaintext.NewExtractor(storage), ".txt").
		Register(pdf.NewExtractor(storage), ".pdf").
		Register(tesseract.NewExtractor(storage), ".jpg", ".jpeg", ".png", ".tiff", ".bmp")

	uc := usecase.NewLocalBatchUseCase(storage, extractors, pipeline, skipNoData, apply)
	results, counts, err := uc.Run(ctx, filenames)
	if err != nil {
		return err
	}

	printResults(results, counts, apply)

	if reportPath != "" {
		if err := writeReport(ctx, reportPath, results, counts); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", reportPath)
	}
	return nil
}

// listReceiptFiles returns the supported files of a folder sorted by name.
// The sort order is the collision order, so repeated runs over the same
// folder number duplicates identically.
func listReceiptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", dir, err)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(name))] {
			filenames = append(filenames, name)
		}
	}
	sort.Strings(filenames)
	return filenames, nil
}

func loadRules(path string) ([]classify.Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	rules, err := classify.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("load rules file %s: %w", path, err)
	}
	return rules, nil
}

func printResults(results []domain.Receipt, counts domain.BatchCounts, applied bool) {
	for _, r := range results {
		marker := "->"
		if r.Status == domain.StatusSkippedNoData {
			marker = "--"
		}
		fmt.Printf("%-40s %s %s  [%s]\n", r.OriginalFilename, marker, r.ProposedFilename, r.Status)
		if r.Error != "" {
			fmt.Printf("%-40s    %s\n", "", r.Error)
		}
	}

	mode := "dry run, use --apply to rename"
	if applied {
		mode = "applied"
	}
	fmt.Printf("\n%d files: %d renamed, %d collisions resolved, %d skipped, %d failed (%s)\n",
		counts.Total, counts.Renamed, counts.CollisionResolved, counts.SkippedNoData, counts.Failed, mode)
}

func writeReport(ctx context.Context, path string, results []domain.Receipt, counts domain.BatchCounts) error {
	now := time.Now().UTC()
	batch := &domain.Batch{
		ID:                "local",
		Status:            domain.BatchCompleted,
		TotalReceipts:     counts.Total,
		Renamed:           counts.Renamed,
		CollisionResolved: counts.CollisionResolved,
		SkippedNoData:     counts.SkippedNoData,
		Failed:            counts.Failed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return report.NewXLSXWriter().WriteBatchReport(ctx, batch, results, out)
	default:
		return report.NewCSVWriter().WriteBatchReport(ctx, batch, results, out)
	}
}
