package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/BradRyan1/Receipt-Processor/internal/core/classify"
	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

type receiptStatusCall struct {
	id     string
	status domain.ReceiptStatus
	errMsg string
}

type fakeReceiptRepo struct {
	receipts     []domain.Receipt
	created      []domain.Receipt
	createErr    error
	getErr       error
	listErr      error
	statusErr    error
	saveErr      error
	saveErrForID map[string]error
	statusCalls  []receiptStatusCall
	results      map[string]domain.ReceiptResult
}

func (f *fakeReceiptRepo) Create(_ context.Context, r *domain.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeReceiptRepo) GetByID(_ context.Context, id string) (*domain.Receipt, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			c := f.receipts[i]
			return &c, nil
		}
	}
	return nil, domain.WrapError(domain.ErrReceiptNotFound, "fetch receipt", errors.New(id))
}

func (f *fakeReceiptRepo) ListByBatch(_ context.Context, batchID string) ([]domain.Receipt, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Receipt
	for _, r := range f.receipts {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReceiptRepo) UpdateStatus(_ context.Context, id string, status domain.ReceiptStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, receiptStatusCall{id: id, status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *fakeReceiptRepo) SaveResult(_ context.Context, id string, res domain.ReceiptResult) error {
	if err := f.saveErrForID[id]; err != nil {
		return err
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.results == nil {
		f.results = make(map[string]domain.ReceiptResult)
	}
	f.results[id] = res
	return nil
}

type renameCall struct {
	from, to string
}

type fakeStorage struct {
	saved        map[string][]byte
	saveErr      error
	openErr      error
	renames      []renameCall
	renameErr    error
	renameErrFor map[string]error
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = b
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.saved[key])), nil
}

func (f *fakeStorage) Rename(_ context.Context, oldKey, newKey string) error {
	if err := f.renameErrFor[oldKey]; err != nil {
		return err
	}
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renames = append(f.renames, renameCall{from: oldKey, to: newKey})
	return nil
}

type fakeLineExtractor struct {
	linesByKey map[string][]string
	lines      []string
	err        error
}

func (f *fakeLineExtractor) Extract(_ context.Context, r *domain.Receipt) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.linesByKey != nil {
		return f.linesByKey[r.StorageKey], nil
	}
	return f.lines, nil
}

func newProcessUC(repo *fakeReceiptRepo, storage *fakeStorage, extractor *fakeLineExtractor, skipNoData bool) *ProcessReceiptUseCase {
	pipeline := NewPipeline(classify.NewClassifier(nil), nil, 0.5)
	return NewProcessReceiptUseCase(repo, storage, extractor, pipeline, skipNoData)
}

func dinerReceipt() *domain.Receipt {
	return &domain.Receipt{
		ID:               "r-1",
		BatchID:          "b-1",
		OriginalFilename: "IMG_1234.jpg",
		Extension:        ".jpg",
		StorageKey:       "b-1/r-1_IMG_1234.jpg",
		Status:           domain.StatusUploaded,
	}
}

func TestProcessOneRenamesFromExtractedFields(t *testing.T) {
	repo := &fakeReceiptRepo{}
	storage := &fakeStorage{}
	extractor := &fakeLineExtractor{lines: []string{
		"WELCOME TO JOE'S DINER",
		"Total Due $23.50",
		"06/20/2024",
	}}
	uc := newProcessUC(repo, storage, extractor, false)

	status, err := uc.ProcessOne(context.Background(), dinerReceipt(), domain.NewCollisionRegistry())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if status != domain.StatusRenamed {
		t.Fatalf("status = %s", status)
	}

	res, ok := repo.results["r-1"]
	if !ok {
		t.Fatalf("no result saved")
	}
	if res.ProposedFilename != "Restaurant - 20 June 2024 - $23.50.jpg" {
		t.Fatalf("proposed filename = %q", res.ProposedFilename)
	}
	if res.Category != domain.CategoryRestaurant {
		t.Fatalf("category = %s", res.Category)
	}
	if res.Status != domain.StatusRenamed || res.Error != "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(storage.renames) != 1 {
		t.Fatalf("expected 1 rename, got %d", len(storage.renames))
	}
	if storage.renames[0].to != "b-1/Restaurant - 20 June 2024 - $23.50.jpg" {
		t.Fatalf("rename target = %q", storage.renames[0].to)
	}
	if res.StorageKey != storage.renames[0].to {
		t.Fatalf("result storage key = %q", res.StorageKey)
	}

	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusProcessing {
		t.Fatalf("unexpected status calls: %+v", repo.statusCalls)
	}
}

func TestProcessOneExtractionFailureStillRenames(t *testing.T) {
	repo := &fakeReceiptRepo{}
	storage := &fakeStorage{}
	extractor := &fakeLineExtractor{err: errors.New("decode failed")}
	uc := newProcessUC(repo, storage, extractor, false)

	status, err := uc.ProcessOne(context.Background(), dinerReceipt(), domain.NewCollisionRegistry())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if status != domain.StatusRenamed {
		t.Fatalf("status = %s", status)
	}

	res := repo.results["r-1"]
	if res.ProposedFilename != "Other - Unknown Date - $0.00.jpg" {
		t.Fatalf("proposed filename = %q", res.ProposedFilename)
	}
	if res.Error == "" {
		t.Fatalf("extraction failure must be recorded on the result")
	}
}

func TestProcessOneCollisionNumbering(t *testing.T) {
	repo := &fakeReceiptRepo{}
	storage := &fakeStorage{}
	extractor := &fakeLineExtractor{lines: nil}
	uc := newProcessUC(repo, storage, extractor, false)
	registry := domain.NewCollisionRegistry()

	first := dinerReceipt()
	second := dinerReceipt()
	second.ID = "r-2"
	second.StorageKey = "b-1/r-2_IMG_5678.jpg"

	if _, err := uc.ProcessOne(context.Background(), first, registry); err != nil {
		t.Fatalf("first: %v", err)
	}
	status, err := uc.ProcessOne(context.Background(), second, registry)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if status != domain.StatusCollisionResolved {
		t.Fatalf("status = %s", status)
	}
	if got := repo.results["r-2"].ProposedFilename; got != "Other - Unknown Date - $0.00 (1).jpg" {
		t.Fatalf("second filename = %q", got)
	}
}

func TestProcessOneSkipNoData(t *testing.T) {
	repo := &fakeReceiptRepo{}
	storage := &fakeStorage{}
	extractor := &fakeLineExtractor{lines: nil}
	uc := newProcessUC(repo, storage, extractor, true)

	status, err := uc.ProcessOne(context.Background(), dinerReceipt(), domain.NewCollisionRegistry())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if status != domain.StatusSkippedNoData {
		t.Fatalf("status = %s", status)
	}
	if len(storage.renames) != 0 {
		t.Fatalf("skipped receipt must not be renamed")
	}
	if res := repo.results["r-1"]; res.ProposedFilename != "" {
		t.Fatalf("skipped receipt must not get a filename, got %q", res.ProposedFilename)
	}
}

func TestProcessOneRenameFailureMarksFailed(t *testing.T) {
	repo := &fakeReceiptRepo{}
	storage := &fakeStorage{renameErr: errors.New("target exists")}
	extractor := &fakeLineExtractor{lines: nil}
	uc := newProcessUC(repo, storage, extractor, false)

	status, err := uc.ProcessOne(context.Background(), dinerReceipt(), domain.NewCollisionRegistry())
	if err == nil {
		t.Fatalf("expected error")
	}
	if status != domain.StatusFailed {
		t.Fatalf("status = %s", status)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed || last.errMsg == "" {
		t.Fatalf("expected recorded failure, got %+v", last)
	}
}

func TestProcessOneNilArgumentsRejected(t *testing.T) {
	uc := newProcessUC(&fakeReceiptRepo{}, &fakeStorage{}, &fakeLineExtractor{}, false)

	_, err := uc.ProcessOne(context.Background(), nil, domain.NewCollisionRegistry())
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = uc.ProcessOne(context.Background(), dinerReceipt(), nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
