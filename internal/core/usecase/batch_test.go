package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

type batchStatusCall struct {
	status domain.BatchStatus
	errMsg string
}

type fakeBatchRepo struct {
	batch       *domain.Batch
	createErr   error
	getErr      error
	statusErr   error
	statusCalls []batchStatusCall
	savedCounts *domain.BatchCounts
	countsErr   error
}

func (f *fakeBatchRepo) Create(_ context.Context, b *domain.Batch) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyBatch := *b
	f.batch = &copyBatch
	return nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, id string) (*domain.Batch, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.batch == nil || f.batch.ID != id {
		return nil, domain.WrapError(domain.ErrBatchNotFound, "fetch batch", errors.New(id))
	}
	copyBatch := *f.batch
	return &copyBatch, nil
}

func (f *fakeBatchRepo) UpdateStatus(_ context.Context, _ string, status domain.BatchStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, batchStatusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *fakeBatchRepo) SaveCounts(_ context.Context, _ string, counts domain.BatchCounts) error {
	if f.countsErr != nil {
		return f.countsErr
	}
	f.savedCounts = &counts
	return nil
}

type fakeQueue struct {
	published  []string
	publishErr error
}

func (f *fakeQueue) PublishBatchRequested(_ context.Context, batchID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, batchID)
	return nil
}

func (f *fakeQueue) SubscribeBatchRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeReportWriter struct {
	err error
}

func (f *fakeReportWriter) WriteBatchReport(_ context.Context, batch *domain.Batch, receipts []domain.Receipt, out io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := fmt.Fprintf(out, "report:%s:%d", batch.ID, len(receipts))
	return err
}

func newBatchFixture() (*BatchUseCase, *fakeBatchRepo, *fakeReceiptRepo, *fakeStorage, *fakeQueue) {
	batches := &fakeBatchRepo{batch: &domain.Batch{ID: "b-1", Status: domain.BatchOpen}}
	receipts := &fakeReceiptRepo{receipts: []domain.Receipt{
		{ID: "r-1", BatchID: "b-1", Extension: ".jpg", StorageKey: "b-1/r-1_a.jpg"},
		{ID: "r-2", BatchID: "b-1", Extension: ".jpg", StorageKey: "b-1/r-2_b.jpg"},
		{ID: "r-3", BatchID: "b-1", Extension: ".jpg", StorageKey: "b-1/r-3_c.jpg"},
	}}
	storage := &fakeStorage{}
	queue := &fakeQueue{}
	extractor := &fakeLineExtractor{linesByKey: map[string][]string{
		"b-1/r-1_a.jpg": {"SHELL STATION", "Total $30.00", "01/02/2024"},
		// r-2 and r-3 produce nothing, so they collide on the fallback name.
		"b-1/r-2_b.jpg": nil,
		"b-1/r-3_c.jpg": nil,
	}}
	pipeline := NewPipeline(classify.NewClassifier(nil), nil, 0.5)
	processor := NewProcessReceiptUseCase(receipts, storage, extractor, pipeline, false)
	uc := NewBatchUseCase(batches, receipts, processor, queue, &fakeReportWriter{})
	return uc, batches, receipts, storage, queue
}

func TestRunByIDProcessesInOrderAndCounts(t *testing.T) {
	uc, batches, receipts, storage, _ := newBatchFixture()

	counts, err := uc.RunByID(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("RunByID() error = %v", err)
	}

	want := domain.BatchCounts{Total: 3, Renamed: 2, CollisionResolved: 1}
	if counts != want {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
	if batches.savedCounts == nil || *batches.savedCounts != want {
		t.Fatalf("saved counts = %+v", batches.savedCounts)
	}

	if got := receipts.results["r-1"].ProposedFilename; got != "Gas - 2 January 2024 - $30.00.jpg" {
		t.Fatalf("r-1 filename = %q", got)
	}
	if got := receipts.results["r-2"].ProposedFilename; got != "Other - Unknown Date - $0.00.jpg" {
		t.Fatalf("r-2 filename = %q", got)
	}
	if got := receipts.results["r-3"].ProposedFilename; got != "Other - Unknown Date - $0.00 (1).jpg" {
		t.Fatalf("r-3 filename = %q", got)
	}

	if len(storage.renames) != 3 {
		t.Fatalf("expected 3 renames, got %d", len(storage.renames))
	}

	n := len(batches.statusCalls)
	if n < 2 || batches.statusCalls[0].status != domain.BatchProcessing || batches.statusCalls[n-1].status != domain.BatchCompleted {
		t.Fatalf("unexpected batch status sequence: %+v", batches.statusCalls)
	}
}

func TestRunByIDUnknownBatch(t *testing.T) {
	uc, _, _, _, _ := newBatchFixture()

	_, err := uc.RunByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected batch not found, got %v", err)
	}
}

func TestRunByIDReceiptFailureCountsAndContinues(t *testing.T) {
	uc, batches, _, storage, _ := newBatchFixture()
	storage.renameErrFor = map[string]error{"b-1/r-1_a.jpg": errors.New("disk gone")}

	counts, err := uc.RunByID(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("RunByID() error = %v", err)
	}
	// r-2 and r-3 still share the fallback stem, so the collision count
	// survives r-1's failure.
	want := domain.BatchCounts{Total: 3, Renamed: 1, CollisionResolved: 1, Failed: 1}
	if counts != want {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
	if batches.statusCalls[len(batches.statusCalls)-1].status != domain.BatchCompleted {
		t.Fatalf("batch must still complete: %+v", batches.statusCalls)
	}
}

func TestRequestRunQueuesAndPublishes(t *testing.T) {
	uc, batches, _, _, queue := newBatchFixture()

	batch, err := uc.RequestRun(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("RequestRun() error = %v", err)
	}
	if batch.Status != domain.BatchQueued {
		t.Fatalf("status = %s", batch.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != "b-1" {
		t.Fatalf("published = %v", queue.published)
	}
	if len(batches.statusCalls) != 1 || batches.statusCalls[0].status != domain.BatchQueued {
		t.Fatalf("status calls = %+v", batches.statusCalls)
	}
}

func TestRequestRunPublishErrorPropagates(t *testing.T) {
	uc, _, _, _, queue := newBatchFixture()
	queue.publishErr = errors.New("nats down")

	if _, err := uc.RequestRun(context.Background(), "b-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildBatchReportRendersThroughWriter(t *testing.T) {
	uc, _, _, _, _ := newBatchFixture()

	data, err := uc.BuildBatchReport(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("BuildBatchReport() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "report:b-1:3") {
		t.Fatalf("unexpected report payload: %q", data)
	}
}

func TestListByBatchRequiresKnownBatch(t *testing.T) {
	uc, _, _, _, _ := newBatchFixture()

	if _, err := uc.ListByBatch(context.Background(), "missing"); !domain.IsKind(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected batch not found, got %v", err)
	}

	receipts, err := uc.ListByBatch(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("ListByBatch() error = %v", err)
	}
	if len(receipts) != 3 {
		t.Fatalf("got %d receipts", len(receipts))
	}
}
