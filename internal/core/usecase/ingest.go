package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// supportedExtensions are the receipt formats the extractor dispatcher can
// handle. Uploads outside this set are rejected up front instead of
// failing later in a worker.
var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tiff": true, ".bmp": true,
	".pdf": true, ".txt": true,
}

type IngestReceiptUseCase struct {
	receipts ports.ReceiptRepository
	batches  ports.BatchRepository
	storage  ports.ObjectStorage
}

func NewIngestReceiptUseCase(
	receipts ports.ReceiptRepository,
	batches ports.BatchRepository,
	storage ports.ObjectStorage,
) *IngestReceiptUseCase {
	return &IngestReceiptUseCase{
		receipts: receipts,
		batches:  batches,
		storage:  storage,
	}
}

func (uc *IngestReceiptUseCase) CreateBatch(ctx context.Context) (*domain.Batch, error) {
	now := time.Now().UTC()
	batch := &domain.Batch{
		ID:        uuid.NewString(),
		Status:    domain.BatchOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return batch, nil
}

func (uc *IngestReceiptUseCase) Upload(
	ctx context.Context,
	batchID, filename, mimeType string,
	body io.Reader,
) (*domain.Receipt, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload receipt", errors.New("empty filename"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload receipt", fmt.Errorf("unsupported file extension %q", ext))
	}

	if _, err := uc.batches.GetByID(ctx, batchID); err != nil {
		return nil, fmt.Errorf("fetch batch by id: %w", err)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s_%s", batchID, id, sanitizeStorageName(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	receipt := &domain.Receipt{
		ID:               id,
		BatchID:          batchID,
		OriginalFilename: filename,
		Extension:        ext,
		MimeType:         mimeType,
		StorageKey:       storageKey,
		Status:           domain.StatusUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.receipts.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("create receipt metadata: %w", err)
	}

	return receipt, nil
}

// sanitizeStorageName makes an upload filename safe to embed in a storage
// key. This is stricter than proposed-filename sanitization because keys
// travel through more layers.
func sanitizeStorageName(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	// filepath.Base turns "" and bare separators into "." or "..", which
	// are directory names, not filenames.
	if base == "" || base == "." || base == ".." {
		return "receipt.bin"
	}
	return base
}
