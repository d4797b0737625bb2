package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradRyan1/Receipt-Processor/internal/bootstrap"
	"github.com/BradRyan1/Receipt-Processor/internal/config"
	"github.com/BradRyan1/Receipt-Processor/internal/infrastructure/watcher"
	"github.com/BradRyan1/Receipt-Processor/internal/observability/logging"
	"github.com/BradRyan1/Receipt-Processor/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      m.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if cfg.WatchDir != "" {
		w := watcher.New(cfg.WatchDir, app.IngestUC, app.BatchUC)
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("drop-folder watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeBatchRequested(ctx, func(handlerCtx context.Context, batchID string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		// The batch row was last touched when the run was queued; the gap
		// to now is the queue lag.
		if batch, err := app.BatchUC.GetBatchByID(runCtx, batchID); err == nil {
			m.ObserveQueueLag(serviceName, time.Since(batch.UpdatedAt))
		}

		m.StartBatch()
		start := time.Now()
		counts, runErr := app.BatchUC.RunByID(runCtx, batchID)
		m.FinishBatch(serviceName, time.Since(start), counts, runErr)

		if runErr != nil {
			return runErr
		}
		slog.Info("batch processed",
			"batch_id", batchID,
			"total", counts.Total,
			"renamed", counts.Renamed,
			"collision_resolved", counts.CollisionResolved,
			"skipped_no_data", counts.SkippedNoData,
			"failed", counts.Failed)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
