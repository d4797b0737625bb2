package domain

import "time"

type BatchStatus string

const (
	BatchOpen       BatchStatus = "open"
	BatchQueued     BatchStatus = "queued"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

type Batch struct {
	ID                string      `json:"id"`
	Status            BatchStatus `json:"status"`
	TotalReceipts     int         `json:"total_receipts"`
	Renamed           int         `json:"renamed"`
	CollisionResolved int         `json:"collision_resolved"`
	SkippedNoData     int         `json:"skipped_no_data"`
	Failed            int         `json:"failed"`
	Error             string      `json:"error,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// BatchCounts is the per-outcome tally of one processing run.
type BatchCounts struct {
	Total             int `json:"total"`
	Renamed           int `json:"renamed"`
	CollisionResolved int `json:"collision_resolved"`
	SkippedNoData     int `json:"skipped_no_data"`
	Failed            int `json:"failed"`
}

// Record adds one receipt outcome to the tally.
func (c *BatchCounts) Record(status ReceiptStatus) {
	c.Total++
	switch status {
	case StatusRenamed:
		c.Renamed++
	case StatusCollisionResolved:
		c.CollisionResolved++
	case StatusSkippedNoData:
		c.SkippedNoData++
	case StatusFailed:
		c.Failed++
	}
}
