package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// BatchUseCase owns the batch lifecycle: scheduling runs, executing them
// receipt by receipt, and serving batch/receipt reads and reports.
type BatchUseCase struct {
	batches   ports.BatchRepository
	receipts  ports.ReceiptRepository
	processor *ProcessReceiptUseCase
	queue     ports.MessageQueue
	reports   ports.ReportWriter
}

func NewBatchUseCase(
	batches ports.BatchRepository,
	receipts ports.ReceiptRepository,
	processor *ProcessReceiptUseCase,
	queue ports.MessageQueue,
	reports ports.ReportWriter,
) *BatchUseCase {
	return &BatchUseCase{
		batches:   batches,
		receipts:  receipts,
		processor: processor,
		queue:     queue,
		reports:   reports,
	}
}

// RequestRun marks a batch queued and hands it to the worker pool. Each
// queue message carries a whole batch so one worker processes its receipts
// sequentially and collision numbering stays deterministic.
func (uc *BatchUseCase) RequestRun(ctx context.Context, batchID string) (*domain.Batch, error) {
	batch, err := uc.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}

	if err := uc.batches.UpdateStatus(ctx, batchID, domain.BatchQueued, ""); err != nil {
		return nil, fmt.Errorf("set status=queued: %w", err)
	}
	if err := uc.queue.PublishBatchRequested(ctx, batchID); err != nil {
		return nil, fmt.Errorf("publish batch request: %w", err)
	}

	batch.Status = domain.BatchQueued
	return batch, nil
}

// RunByID processes every receipt of a batch in upload order. Individual
// receipt failures are counted, not fatal; only cancellation aborts the
// run early.
func (uc *BatchUseCase) RunByID(ctx context.Context, batchID string) (domain.BatchCounts, error) {
	var counts domain.BatchCounts

	if _, err := uc.batches.GetByID(ctx, batchID); err != nil {
		return counts, fmt.Errorf("fetch batch by id: %w", err)
	}
	if err := uc.batches.UpdateStatus(ctx, batchID, domain.BatchProcessing, ""); err != nil {
		return counts, fmt.Errorf("set status=processing: %w", err)
	}

	receipts, err := uc.receipts.ListByBatch(ctx, batchID)
	if err != nil {
		return counts, uc.failBatch(ctx, batchID, fmt.Errorf("list batch receipts: %w", err))
	}

	registry := domain.NewCollisionRegistry()
	for i := range receipts {
		status, err := uc.processor.ProcessOne(ctx, &receipts[i], registry)
		if err != nil {
			if ctx.Err() != nil {
				return counts, uc.failBatch(ctx, batchID, fmt.Errorf("batch run canceled: %w", err))
			}
			slog.Error("receipt processing failed",
				"batch_id", batchID,
				"receipt_id", receipts[i].ID,
				"error", err)
		}
		counts.Record(status)
	}

	if err := uc.batches.SaveCounts(ctx, batchID, counts); err != nil {
		return counts, uc.failBatch(ctx, batchID, fmt.Errorf("save batch counts: %w", err))
	}
	if err := uc.batches.UpdateStatus(ctx, batchID, domain.BatchCompleted, ""); err != nil {
		return counts, fmt.Errorf("set status=completed: %w", err)
	}
	return counts, nil
}

// failBatch records a terminal failure, combining the original error with
// any trouble recording it.
func (uc *BatchUseCase) failBatch(ctx context.Context, batchID string, runErr error) error {
	if failErr := uc.batches.UpdateStatus(ctx, batchID, domain.BatchFailed, runErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", runErr, failErr)
	}
	return runErr
}

func (uc *BatchUseCase) GetByID(ctx context.Context, id string) (*domain.Receipt, error) {
	receipt, err := uc.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt by id: %w", err)
	}
	return receipt, nil
}

func (uc *BatchUseCase) GetBatchByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	batch, err := uc.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}
	return batch, nil
}

func (uc *BatchUseCase) ListByBatch(ctx context.Context, batchID string) ([]domain.Receipt, error) {
	if _, err := uc.batches.GetByID(ctx, batchID); err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}
	receipts, err := uc.receipts.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch receipts: %w", err)
	}
	return receipts, nil
}

// BuildBatchReport renders the batch as an XLSX workbook.
func (uc *BatchUseCase) BuildBatchReport(ctx context.Context, batchID string) ([]byte, error) {
	batch, err := uc.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}
	receipts, err := uc.receipts.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch receipts: %w", err)
	}

	var buf bytes.Buffer
	if err := uc.reports.WriteBatchReport(ctx, batch, receipts, &buf); err != nil {
		return nil, fmt.Errorf("write batch report: %w", err)
	}
	return buf.Bytes(), nil
}
