package ports

import (
	"context"
	"io"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// ReceiptIngestor is the inbound contract for batch creation and uploads.
type ReceiptIngestor interface {
	CreateBatch(ctx context.Context) (*domain.Batch, error)
	Upload(ctx context.Context, batchID, filename, mimeType string, body io.Reader) (*domain.Receipt, error)
}

// BatchScheduler requests asynchronous processing of an uploaded batch.
type BatchScheduler interface {
	RequestRun(ctx context.Context, batchID string) (*domain.Batch, error)
}

// BatchProcessor is the inbound contract for running a whole batch. One
// call processes the batch's receipts sequentially, in upload order.
type BatchProcessor interface {
	RunByID(ctx context.Context, batchID string) (domain.BatchCounts, error)
}

// ReceiptReader is the inbound read model for receipt and batch state.
type ReceiptReader interface {
	GetByID(ctx context.Context, id string) (*domain.Receipt, error)
	GetBatchByID(ctx context.Context, batchID string) (*domain.Batch, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.Receipt, error)
}

// ReportBuilder renders a finished batch as a spreadsheet.
type ReportBuilder interface {
	BuildBatchReport(ctx context.Context, batchID string) ([]byte, error)
}
