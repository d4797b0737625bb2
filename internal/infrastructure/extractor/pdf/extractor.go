package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// Extractor pulls the text layer out of PDF receipts. Scanned PDFs without
// a text layer come back empty rather than failing.
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

	text, err := plainText(raw)
	if err != nil {
		return nil, err
	}
	return extract.Lines(text), nil
}

// plainText parses the document and concatenates its text layer. The
// parser panics on some malformed files, so the recover turns those into
// ordinary errors.
func plainText(raw []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	body, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return buf.String(), nil
}
