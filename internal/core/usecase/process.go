package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/extract"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

type ProcessReceiptUseCase struct {
	repo       ports.ReceiptRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	pipeline   *Pipeline
	skipNoData bool
}

func NewProcessReceiptUseCase(
	repo ports.ReceiptRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	pipeline *Pipeline,
	skipNoData bool,
) *ProcessReceiptUseCase {
	return &ProcessReceiptUseCase{
		repo:       repo,
		storage:    storage,
		extractor:  extractor,
		pipeline:   pipeline,
		skipNoData: skipNoData,
	}
}

// ProcessOne runs the full pipeline for a single receipt and persists the
// outcome. The registry must be the batch's registry and calls must happen
// in batch order. Extraction problems never fail the receipt; they degrade
// to an empty-text evaluation so every file still gets a filename.
func (uc *ProcessReceiptUseCase) ProcessOne(
	ctx context.Context,
	receipt *domain.Receipt,
	registry *domain.CollisionRegistry,
) (domain.ReceiptStatus, error) {
	if receipt == nil || registry == nil {
		return domain.StatusFailed, domain.WrapError(domain.ErrInvalidInput, "process receipt", errors.New("nil receipt or registry"))
	}

	if err := uc.markStatus(ctx, receipt.ID, domain.StatusProcessing, ""); err != nil {
		return domain.StatusFailed, fmt.Errorf("set status=processing: %w", err)
	}

	lines, extractErr := uc.extractText(ctx, receipt)
	extraction, text := uc.pipeline.Evaluate(ctx, lines)

	proposed, status := finalizeName(extraction, receipt.Extension, registry, uc.skipNoData)

	result := domain.ReceiptResult{
		Category:         extraction.Category,
		Date:             extraction.Date,
		Amount:           extraction.Amount,
		ProposedFilename: proposed,
		TextSnippet:      extract.Snippet(text, snippetMaxRunes),
		Status:           status,
	}
	if extractErr != nil {
		result.Error = extractErr.Error()
	}

	if status != domain.StatusSkippedNoData {
		newKey := fmt.Sprintf("%s/%s", receipt.BatchID, proposed)
		if err := uc.storage.Rename(ctx, receipt.StorageKey, newKey); err != nil {
			renameErr := fmt.Errorf("rename stored object: %w", err)
			if failErr := uc.markFailed(ctx, receipt.ID, renameErr); failErr != nil {
				return domain.StatusFailed, fmt.Errorf("%w; mark failed status: %v", renameErr, failErr)
			}
			return domain.StatusFailed, renameErr
		}
		result.StorageKey = newKey
	}

	if err := uc.repo.SaveResult(ctx, receipt.ID, result); err != nil {
		saveErr := fmt.Errorf("save receipt result: %w", err)
		if failErr := uc.markFailed(ctx, receipt.ID, saveErr); failErr != nil {
			return domain.StatusFailed, fmt.Errorf("%w; mark failed status: %v", saveErr, failErr)
		}
		return domain.StatusFailed, saveErr
	}

	return status, nil
}

// extractText pulls text lines out of the stored file. Failures are
// reported but not fatal: the caller proceeds with no text.
func (uc *ProcessReceiptUseCase) extractText(ctx context.Context, receipt *domain.Receipt) ([]string, error) {
	lines, err := uc.extractor.Extract(ctx, receipt)
	if err != nil {
		slog.Warn("text extraction failed, continuing with empty text",
			"receipt_id", receipt.ID,
			"filename", receipt.OriginalFilename,
			"error", err)
		return nil, domain.WrapError(domain.ErrOcrFailure, "extract text", err)
	}
	return lines, nil
}

func (uc *ProcessReceiptUseCase) markStatus(ctx context.Context, receiptID string, status domain.ReceiptStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, receiptID, status, errMessage)
}

func (uc *ProcessReceiptUseCase) markFailed(ctx context.Context, receiptID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, receiptID, domain.StatusFailed, processErr.Error())
}
