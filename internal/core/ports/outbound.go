package ports

import (
	"context"
	"io"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// ReceiptRepository persists and reads receipt state.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	GetByID(ctx context.Context, id string) (*domain.Receipt, error)
	// ListByBatch returns the batch's receipts in upload order. Processing
	// relies on that order for deterministic collision numbering.
	ListByBatch(ctx context.Context, batchID string) ([]domain.Receipt, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReceiptStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result domain.ReceiptResult) error
}

// BatchRepository persists and reads batch state.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error
	SaveCounts(ctx context.Context, id string, counts domain.BatchCounts) error
}

// ObjectStorage stores receipt files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Rename moves a stored object to a new key and must refuse to clobber
	// an existing target.
	Rename(ctx context.Context, oldKey, newKey string) error
}

// MessageQueue publishes/consumes batch processing requests.
type MessageQueue interface {
	PublishBatchRequested(ctx context.Context, batchID string) error
	SubscribeBatchRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts text lines from a stored receipt file.
type TextExtractor interface {
	Extract(ctx context.Context, receipt *domain.Receipt) ([]string, error)
}

// EntityAnalyzer supplies optional classification evidence: named entities
// and key phrases found in the receipt text. Implementations may fail
// freely; callers degrade to keyword-only classification.
type EntityAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.EntityAnalysis, error)
}

// ReportWriter renders a batch and its receipts into a spreadsheet stream.
type ReportWriter interface {
	WriteBatchReport(ctx context.Context, batch *domain.Batch, receipts []domain.Receipt, out io.Writer) error
}
