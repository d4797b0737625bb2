// Package bootstrap assembles the service graph shared by the api and
// worker binaries: database, object storage, queue, extraction pipeline,
// and the use cases on top of them.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/BradRyan1/Receipt-Processor/internal/config"
	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
	"github.com/BradRyan1/Receipt-Processor/internal/core/usecase"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/entity/ollama"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/pdf"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/plaintext"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/extractor/tesseract"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/queue/nats"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/report"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/repository/postgres"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/resilience"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Receipts ports.ReceiptRepository
	Batches  ports.BatchRepository

	IngestUC ports.ReceiptIngestor
	BatchUC  *usecase.BatchUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	receipts := postgres.NewReceiptRepository(db)
	if err := receipts.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	batches := postgres.NewBatchRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}
	classifier := classify.NewClassifier(rules)

	var analyzer ports.EntityAnalyzer
	if cfg.EntityEnabled {
		analyzer = ollama.NewAnalyzer(ollama.New(cfg.OllamaURL, cfg.OllamaModel), executor)
	}
	pipeline := usecase.NewPipeline(classifier, analyzer, cfg.EntityMinConfidence)

	extractors := extractor.NewRouter().
		Register(plaintext.NewExtractor(storage), ".txt").
		Register(pdf.NewExtractor(storage), ".pdf").
		Register(tesseract.NewExtractor(storage), ".jpg", ".jpeg", ".png", ".tiff", ".bmp")

	processUC := usecase.NewProcessReceiptUseCase(receipts, storage, extractors, pipeline, cfg.SkipNoData)
	batchUC := usecase.NewBatchUseCase(batches, receipts, processUC, queue, report.NewXLSXWriter())
	ingestUC := usecase.NewIngestReceiptUseCase(receipts, batches, storage)

	return &App{
		Config: cfg,

		Queue:    queue,
		Receipts: receipts,
		Batches:  batches,

		IngestUC: ingestUC,
		BatchUC:  batchUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// loadRules reads the operator rule table. An empty path means the built-in
// table; a path that exists but fails to parse aborts startup rather than
// silently classifying with defaults.
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

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
