package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

func TestCreateBatchPersistsOpenBatch(t *testing.T) {
	batches := &fakeBatchRepo{}
	uc := NewIngestReceiptUseCase(&fakeReceiptRepo{}, batches, &fakeStorage{})

	batch, err := uc.CreateBatch(context.Background())
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if batch.ID == "" {
		t.Fatalf("expected batch id")
	}
	if batch.Status != domain.BatchOpen {
		t.Fatalf("expected status open, got %s", batch.Status)
	}
	if batches.batch == nil || batches.batch.ID != batch.ID {
		t.Fatalf("expected batch persisted")
	}
}

func TestUploadStoresFileAndMetadata(t *testing.T) {
	receipts := &fakeReceiptRepo{}
	batches := &fakeBatchRepo{batch: &domain.Batch{ID: "b-1", Status: domain.BatchOpen}}
	storage := &fakeStorage{}
	uc := NewIngestReceiptUseCase(receipts, batches, storage)

	receipt, err := uc.Upload(context.Background(), "b-1", "My Receipt.JPG", "image/jpeg", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if receipt.BatchID != "b-1" || receipt.Extension != ".jpg" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", receipt.Status)
	}
	if !strings.HasPrefix(receipt.StorageKey, "b-1/") || !strings.HasSuffix(receipt.StorageKey, "_My_Receipt.JPG") {
		t.Fatalf("unexpected storage key %q", receipt.StorageKey)
	}
	if _, ok := storage.saved[receipt.StorageKey]; !ok {
		t.Fatalf("expected file saved under %q", receipt.StorageKey)
	}
	if len(receipts.created) != 1 || receipts.created[0].ID != receipt.ID {
		t.Fatalf("expected receipt metadata persisted")
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	batches := &fakeBatchRepo{batch: &domain.Batch{ID: "b-1"}}
	uc := NewIngestReceiptUseCase(&fakeReceiptRepo{}, batches, &fakeStorage{})

	_, err := uc.Upload(context.Background(), "b-1", "malware.exe", "application/octet-stream", strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	_, err = uc.Upload(context.Background(), "b-1", "   ", "", strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty filename, got %v", err)
	}
}

func TestUploadUnknownBatch(t *testing.T) {
	uc := NewIngestReceiptUseCase(&fakeReceiptRepo{}, &fakeBatchRepo{}, &fakeStorage{})

	_, err := uc.Upload(context.Background(), "missing", "a.jpg", "image/jpeg", strings.NewReader(""))
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected batch not found, got %v", err)
	}
}

func TestSanitizeStorageName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "My Receipt.jpg", want: "My_Receipt.jpg"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: "receipt (1)?.png", want: "receipt__1__.png"},
		{in: "", want: "receipt.bin"},
		{in: ".", want: "receipt.bin"},
		{in: "..", want: "receipt.bin"},
		{in: "straße.pdf", want: "stra_e.pdf"},
	}
	for _, tc := range cases {
		if got := sanitizeStorageName(tc.in); got != tc.want {
			t.Fatalf("sanitizeStorageName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
