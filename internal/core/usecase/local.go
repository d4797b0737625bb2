package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

// LocalBatchUseCase runs the pipeline over files in a local folder without
// any repository or queue. Storage is rooted at the folder, so storage keys
// are plain filenames. With apply disabled the run is a dry run: names are
// proposed but nothing on disk moves.
type LocalBatchUseCase struct {
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	pipeline   *Pipeline
	skipNoData bool
	apply      bool
}

func NewLocalBatchUseCase(
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	pipeline *Pipeline,
	skipNoData bool,
	apply bool,
) *LocalBatchUseCase {
	return &LocalBatchUseCase{
		storage:    storage,
		extractor:  extractor,
		pipeline:   pipeline,
		skipNoData: skipNoData,
		apply:      apply,
	}
}

// Run evaluates the named files in the order given. The order is the
// collision order, so callers should pass a sorted listing for
// reproducible results.
func (uc *LocalBatchUseCase) Run(ctx context.Context, filenames []string) ([]domain.Receipt, domain.BatchCounts, error) {
	registry := domain.NewCollisionRegistry()
	results := make([]domain.Receipt, 0, len(filenames))
	var counts domain.BatchCounts

	for _, filename := range filenames {
		if err := ctx.Err(); err != nil {
			return results, counts, err
		}
		receipt := uc.evaluateFile(ctx, filename, registry)
		counts.Record(receipt.Status)
		results = append(results, receipt)
	}
	return results, counts, nil
}

func (uc *LocalBatchUseCase) evaluateFile(ctx context.Context, filename string, registry *domain.CollisionRegistry) domain.Receipt {
	now := time.Now().UTC()
	receipt := domain.Receipt{
		ID:               uuid.NewString(),
		OriginalFilename: filename,
		Extension:        strings.ToLower(filepath.Ext(filename)),
		StorageKey:       filename,
		Status:           domain.StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	lines, err := uc.extractor.Extract(ctx, &receipt)
	if err != nil {
		receipt.Error = domain.WrapError(domain.ErrOcrFailure, "extract text", err).Error()
		lines = nil
	}

	extraction, text := uc.pipeline.Evaluate(ctx, lines)
	receipt.Category = extraction.Category
	receipt.Date = extraction.Date
	receipt.Amount = extraction.Amount
	receipt.TextSnippet = extract.Snippet(text, snippetMaxRunes)

	proposed, status := finalizeName(extraction, receipt.Extension, registry, uc.skipNoData)
	receipt.ProposedFilename = proposed
	receipt.Status = status

	if uc.apply && status != domain.StatusSkippedNoData && proposed != filename {
		if err := uc.storage.Rename(ctx, filename, proposed); err != nil {
			receipt.Status = domain.StatusFailed
			receipt.Error = fmt.Sprintf("rename: %v", err)
			return receipt
		}
		receipt.StorageKey = proposed
	}
	return receipt
}
