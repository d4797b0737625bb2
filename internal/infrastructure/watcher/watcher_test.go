package watcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

type uploadCall struct {
	batchID  string
	filename string
	mimeType string
	content  string
}

type fakeIngestor struct {
	mu        sync.Mutex
	batches   int
	uploads   []uploadCall
	uploadErr error
}

func (f *fakeIngestor) CreateBatch(context.Context) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	return &domain.Batch{ID: "b-1", Status: domain.BatchOpen}, nil
}

func (f *fakeIngestor) Upload(_ context.Context, batchID, filename, mimeType string, body io.Reader) (*domain.Receipt, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, uploadCall{
		batchID:  batchID,
		filename: filename,
		mimeType: mimeType,
		content:  string(content),
	})
	return &domain.Receipt{ID: "r-1", BatchID: batchID, Status: domain.StatusUploaded}, nil
}

func (f *fakeIngestor) snapshot() (int, []uploadCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches, append([]uploadCall(nil), f.uploads...)
}

type fakeScheduler struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (f *fakeScheduler) RequestRun(_ context.Context, batchID string) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.runs = append(f.runs, batchID)
	return &domain.Batch{ID: batchID, Status: domain.BatchQueued}, nil
}

func (f *fakeScheduler) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

func writeDropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestHandleFileIngestsSchedulesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "scan.jpg", "image-bytes")

	ingestor := &fakeIngestor{}
	scheduler := &fakeScheduler{}
	w := New(dir, ingestor, scheduler)

	w.handleFile(context.Background(), path)

	batches, uploads := ingestor.snapshot()
	if batches != 1 {
		t.Fatalf("expected one batch, got %d", batches)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploads))
	}
	up := uploads[0]
	if up.batchID != "b-1" || up.filename != "scan.jpg" || up.content != "image-bytes" {
		t.Fatalf("unexpected upload %+v", up)
	}
	if up.mimeType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", up.mimeType)
	}
	if runs := scheduler.requested(); len(runs) != 1 || runs[0] != "b-1" {
		t.Fatalf("expected run requested for b-1, got %v", runs)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected ingested file removed, stat err = %v", err)
	}
}

func TestHandleFileIgnoresHiddenFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := writeDropFile(t, dir, ".partial", "half a scan")
	sub := filepath.Join(dir, "archive")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ingestor := &fakeIngestor{}
	scheduler := &fakeScheduler{}
	w := New(dir, ingestor, scheduler)

	w.handleFile(context.Background(), hidden)
	w.handleFile(context.Background(), sub)

	if batches, uploads := ingestor.snapshot(); batches != 0 || len(uploads) != 0 {
		t.Fatalf("expected no ingestion, got %d batches %d uploads", batches, len(uploads))
	}
	if _, err := os.Stat(hidden); err != nil {
		t.Fatalf("hidden file must stay in place: %v", err)
	}
}

func TestHandleFileKeepsFileWhenUploadFails(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "scan.png", "bytes")

	ingestor := &fakeIngestor{uploadErr: errors.New("storage down")}
	scheduler := &fakeScheduler{}
	w := New(dir, ingestor, scheduler)

	w.handleFile(context.Background(), path)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file must survive a failed upload: %v", err)
	}
	if runs := scheduler.requested(); len(runs) != 0 {
		t.Fatalf("no run may be requested after a failed upload, got %v", runs)
	}
}

func TestHandleFileKeepsFileWhenScheduleFails(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "scan.pdf", "bytes")

	ingestor := &fakeIngestor{}
	scheduler := &fakeScheduler{err: errors.New("queue down")}
	w := New(dir, ingestor, scheduler)

	w.handleFile(context.Background(), path)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file must survive a failed schedule: %v", err)
	}
}

func TestWaitSettledReturnsOnceSizeIsStable(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "scan.jpg", "fully written")

	done := make(chan struct{})
	go func() {
		waitSettled(context.Background(), path)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("waitSettled did not return for a stable file")
	}
}

func TestWaitSettledStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeDropFile(t, dir, "scan.jpg", "bytes")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		waitSettled(ctx, path)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("waitSettled ignored cancellation")
	}
}

func TestWaitSettledMissingFileReturns(t *testing.T) {
	waitSettled(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
}

func TestMimeTypeForFallsBackToOctetStream(t *testing.T) {
	if got := mimeTypeFor("scan.zz9"); got != "application/octet-stream" {
		t.Fatalf("mimeTypeFor = %q", got)
	}
	if got := mimeTypeFor("scan.jpg"); got != "image/jpeg" {
		t.Fatalf("mimeTypeFor = %q", got)
	}
}

func TestRunIngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ingestor := &fakeIngestor{}
	scheduler := &fakeScheduler{}
	w := New(dir, ingestor, scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	// Give the watcher a moment to register before the drop.
	time.Sleep(100 * time.Millisecond)
	writeDropFile(t, dir, "dropped.jpg", "bytes")

	deadline := time.Now().Add(5 * time.Second)
	for {
		if runs := scheduler.requested(); len(runs) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dropped file was never ingested")
		}
		time.Sleep(25 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop on cancellation")
	}
}
