package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

func TestSaveAndOpenNestedKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "b-1/r-1_receipt.jpg", strings.NewReader("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := store.Open(ctx, "b-1/r-1_receipt.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("expected payload, got %q", data)
	}
}

func TestRenameMovesObject(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "b-1/r-1_scan.jpg", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Rename(ctx, "b-1/r-1_scan.jpg", "b-1/Gas - 2 January 2024 - $30.00.jpg"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if _, err := store.Open(ctx, "b-1/r-1_scan.jpg"); err == nil {
		t.Fatalf("old key should be gone after rename")
	}
	rc, err := store.Open(ctx, "b-1/Gas - 2 January 2024 - $30.00.jpg")
	if err != nil {
		t.Fatalf("new key should exist after rename: %v", err)
	}
	rc.Close()
}

func TestRenameRefusesExistingTarget(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "b-1/a.jpg", strings.NewReader("a")); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := store.Save(ctx, "b-1/b.jpg", strings.NewReader("b")); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	err = store.Rename(ctx, "b-1/a.jpg", "b-1/b.jpg")
	if !domain.IsKind(err, domain.ErrRenameConflict) {
		t.Fatalf("expected rename conflict, got %v", err)
	}

	// The source must survive a refused rename.
	rc, err := store.Open(ctx, "b-1/a.jpg")
	if err != nil {
		t.Fatalf("source should remain after refused rename: %v", err)
	}
	rc.Close()
}

func TestKeyMustStayUnderBase(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "../escape.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
	if _, err := store.Open(ctx, ""); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}
