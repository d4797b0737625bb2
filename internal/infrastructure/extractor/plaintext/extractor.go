package plaintext

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// Extractor reads receipts that are already plain text.
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

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid utf-8 text", receipt.OriginalFilename)
	}
	return extract.Lines(string(raw)), nil
}
