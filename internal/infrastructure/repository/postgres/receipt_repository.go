package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ReceiptRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total_receipts INTEGER NOT NULL DEFAULT 0,
	renamed INTEGER NOT NULL DEFAULT 0,
	collision_resolved INTEGER NOT NULL DEFAULT 0,
	skipped_no_data INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES batches(id),
	original_filename TEXT NOT NULL,
	extension TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	receipt_date DATE,
	amount_cents BIGINT,
	proposed_filename TEXT NOT NULL DEFAULT '',
	text_snippet TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_batch_id ON receipts(batch_id);
CREATE INDEX IF NOT EXISTS idx_receipts_status ON receipts(status);
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO receipts (
	id, batch_id, original_filename, extension, mime_type, storage_key,
	category, receipt_date, amount_cents, proposed_filename, text_snippet,
	status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		receipt.ID, receipt.BatchID, receipt.OriginalFilename, receipt.Extension, receipt.MimeType,
		receipt.StorageKey, string(receipt.Category), dateValue(receipt.Date), centsValue(receipt.Amount),
		receipt.ProposedFilename, receipt.TextSnippet, string(receipt.Status), receipt.Error,
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*domain.Receipt, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, batch_id, original_filename, extension, mime_type, storage_key,
	category, receipt_date, amount_cents, proposed_filename, text_snippet,
	status, error_message, created_at, updated_at
FROM receipts
WHERE id = $1
`, id)

	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReceiptNotFound, "get receipt", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan receipt: %w", err)
	}
	return &receipt, nil
}

// ListByBatch returns the batch's receipts ordered by upload time. The id
// tiebreak keeps the order stable when timestamps collide, which collision
// numbering depends on.
func (r *ReceiptRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, batch_id, original_filename, extension, mime_type, storage_key,
	category, receipt_date, amount_cents, proposed_filename, text_snippet,
	status, error_message, created_at, updated_at
FROM receipts
WHERE batch_id = $1
ORDER BY created_at, id
`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Receipt, 0)
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return out, nil
}

func (r *ReceiptRepository) UpdateStatus(ctx context.Context, id string, status domain.ReceiptStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE receipts
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update receipt status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update receipt status rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrReceiptNotFound, "update receipt status", fmt.Errorf("id=%s", id))
	}
	return nil
}

// SaveResult persists one processing outcome. The storage key only changes
// when the pipeline actually moved the object; skipped receipts keep theirs.
func (r *ReceiptRepository) SaveResult(ctx context.Context, id string, res domain.ReceiptResult) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE receipts
SET category = $2, receipt_date = $3, amount_cents = $4, proposed_filename = $5,
	text_snippet = $6, status = $7, error_message = $8,
	storage_key = COALESCE(NULLIF($9, ''), storage_key), updated_at = $10
WHERE id = $1
`, id, string(res.Category), dateValue(res.Date), centsValue(res.Amount), res.ProposedFilename,
		res.TextSnippet, string(res.Status), res.Error, res.StorageKey, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save receipt result: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save receipt result rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrReceiptNotFound, "save receipt result", fmt.Errorf("id=%s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReceipt(row rowScanner) (domain.Receipt, error) {
	var (
		receipt domain.Receipt
		status  string
		cat     string
		day     sql.NullTime
		cents   sql.NullInt64
	)
	err := row.Scan(
		&receipt.ID,
		&receipt.BatchID,
		&receipt.OriginalFilename,
		&receipt.Extension,
		&receipt.MimeType,
		&receipt.StorageKey,
		&cat,
		&day,
		&cents,
		&receipt.ProposedFilename,
		&receipt.TextSnippet,
		&status,
		&receipt.Error,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if err != nil {
		return domain.Receipt{}, err
	}

	receipt.Category = domain.Category(cat)
	receipt.Status = domain.ReceiptStatus(status)
	if day.Valid {
		d, ok := domain.NewDate(day.Time.Year(), day.Time.Month(), day.Time.Day())
		if !ok {
			return domain.Receipt{}, fmt.Errorf("stored receipt date %v is not a valid calendar day", day.Time)
		}
		receipt.Date = &d
	}
	if cents.Valid {
		a := domain.AmountFromCents(cents.Int64)
		receipt.Amount = &a
	}
	return receipt, nil
}

func dateValue(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func centsValue(a *domain.Amount) any {
	if a == nil {
		return nil
	}
	return a.Cents()
}
