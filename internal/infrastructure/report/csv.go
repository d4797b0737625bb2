package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

// CSVWriter renders the receipt rows only; batch totals live in the
// receipt statuses and are cheap to recompute downstream.
type CSVWriter struct{}

func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

func (w *CSVWriter) WriteBatchReport(_ context.Context, _ *domain.Batch, receipts []domain.Receipt, out io.Writer) error {
	writer := csv.NewWriter(out)

	header := []string{"original_filename", "proposed_filename", "category", "date", "amount", "status", "error"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, receipt := range receipts {
		if err := writer.Write(receiptRow(receipt)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
