// Package report renders batch outcomes for people: an xlsx workbook with
// a summary and per-receipt detail, plus a flat csv flavor for piping into
// other tools.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

const (
	summarySheet  = "Summary"
	receiptsSheet = "Receipts"
)

var receiptColumns = []string{
	"Original Filename", "Proposed Filename", "Category", "Date", "Amount", "Status", "Error",
}

type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

func (w *XLSXWriter) WriteBatchReport(_ context.Context, batch *domain.Batch, receipts []domain.Receipt, out io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, batch); err != nil {
		return err
	}
	if err := writeReceipts(f, receipts); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, batch *domain.Batch) error {
	rows := [][2]any{
		{"Batch", batch.ID},
		{"Status", string(batch.Status)},
		{"Total Receipts", batch.TotalReceipts},
		{"Renamed", batch.Renamed},
		{"Collisions Resolved", batch.CollisionResolved},
		{"Skipped (No Data)", batch.SkippedNoData},
		{"Failed", batch.Failed},
		{"Created", batch.CreatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range rows {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell name: %w", err)
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return fmt.Errorf("summary cell name: %w", err)
		}
		if err := f.SetCellValue(summarySheet, labelCell, row[0]); err != nil {
			return fmt.Errorf("set summary cell: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valueCell, row[1]); err != nil {
			return fmt.Errorf("set summary cell: %w", err)
		}
	}
	return nil
}

func writeReceipts(f *excelize.File, receipts []domain.Receipt) error {
	if _, err := f.NewSheet(receiptsSheet); err != nil {
		return fmt.Errorf("create receipts sheet: %w", err)
	}

	for col, header := range receiptColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("receipts cell name: %w", err)
		}
		if err := f.SetCellValue(receiptsSheet, cell, header); err != nil {
			return fmt.Errorf("set receipts header: %w", err)
		}
	}

	for i, receipt := range receipts {
		values := receiptRow(receipt)
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("receipts cell name: %w", err)
			}
			if err := f.SetCellValue(receiptsSheet, cell, value); err != nil {
				return fmt.Errorf("set receipts cell: %w", err)
			}
		}
	}
	return nil
}

// receiptRow flattens one receipt into the shared column layout used by
// both the xlsx and csv renderers.
func receiptRow(receipt domain.Receipt) []string {
	return []string{
		receipt.OriginalFilename,
		receipt.ProposedFilename,
		string(receipt.Category),
		domain.DisplayDate(receipt.Date),
		"$" + domain.DisplayAmount(receipt.Amount),
		string(receipt.Status),
		receipt.Error,
	}
}
