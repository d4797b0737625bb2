// Package tesseract recognizes text in image receipts. The engine binding
// needs cgo and the ocr build tag; builds without it get a stub that
// reports images as unreadable.
package tesseract

import (
	"context"
	"fmt"
	"io"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, receipt *domain.Receipt) ([]string, error) {
	reader, err := e.storage.Open(ctx, receipt.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open stored receipt: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored receipt: %w", err)
	}

	text, err := recognize(preprocess(raw))
	if err != nil {
		return nil, err
	}
	return extract.Lines(text), nil
}
