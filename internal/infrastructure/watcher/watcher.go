// Package watcher feeds files dropped into a directory through the batch
// pipeline. Every file becomes its own single-receipt batch, so a drop
// folder behaves like the API with one upload per request.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

type Watcher struct {
	dir       string
	ingestor  ports.ReceiptIngestor
	scheduler ports.BatchScheduler
}

func New(dir string, ingestor ports.ReceiptIngestor, scheduler ports.BatchScheduler) *Watcher {
	return &Watcher{dir: dir, ingestor: ingestor, scheduler: scheduler}
}

// Run blocks until the context ends. Files that fail to ingest are left in
// place and logged; successfully ingested files are removed because the
// upload keeps its own copy in object storage.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching drop directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.handleFile(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	waitSettled(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		slog.Error("open dropped file", "file", name, "error", err)
		return
	}
	defer f.Close()

	batch, err := w.ingestor.CreateBatch(ctx)
	if err != nil {
		slog.Error("create batch for dropped file", "file", name, "error", err)
		return
	}
	receipt, err := w.ingestor.Upload(ctx, batch.ID, name, mimeTypeFor(name), f)
	if err != nil {
		slog.Error("ingest dropped file", "file", name, "error", err)
		return
	}
	if _, err := w.scheduler.RequestRun(ctx, batch.ID); err != nil {
		slog.Error("request batch run", "file", name, "batch_id", batch.ID, "error", err)
		return
	}

	slog.Info("queued dropped file", "file", name, "batch_id", batch.ID, "receipt_id", receipt.ID)
	if err := os.Remove(path); err != nil {
		slog.Warn("remove ingested file", "file", name, "error", err)
	}
}

// waitSettled waits until the file size stops changing. Scanners and
// network copies fire the create event before they finish writing.
func waitSettled(ctx context.Context, path string) {
	var lastSize int64 = -1
	for i := 0; i < 20; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.Size() == lastSize {
			return
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func mimeTypeFor(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
