package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(ctx context.Context, batch *domain.Batch) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batches (
	id, status, total_receipts, renamed, collision_resolved, skipped_no_data, failed,
	error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		batch.ID, string(batch.Status), batch.TotalReceipts, batch.Renamed, batch.CollisionResolved,
		batch.SkippedNoData, batch.Failed, batch.Error, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, total_receipts, renamed, collision_resolved, skipped_no_data, failed,
	error_message, created_at, updated_at
FROM batches
WHERE id = $1
`, id)

	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	return &batch, nil
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE batches
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, "update batch status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *BatchRepository) SaveCounts(ctx context.Context, id string, counts domain.BatchCounts) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE batches
SET total_receipts = $2, renamed = $3, collision_resolved = $4, skipped_no_data = $5,
	failed = $6, updated_at = $7
WHERE id = $1
`, id, counts.Total, counts.Renamed, counts.CollisionResolved, counts.SkippedNoData,
		counts.Failed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save batch counts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save batch counts rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, "save batch counts", fmt.Errorf("id=%s", id))
	}
	return nil
}

func scanBatch(row rowScanner) (domain.Batch, error) {
	var batch domain.Batch
	var status string
	err := row.Scan(
		&batch.ID,
		&status,
		&batch.TotalReceipts,
		&batch.Renamed,
		&batch.CollisionResolved,
		&batch.SkippedNoData,
		&batch.Failed,
		&batch.Error,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)
	if err != nil {
		return domain.Batch{}, err
	}
	batch.Status = domain.BatchStatus(status)
	return batch, nil
}
