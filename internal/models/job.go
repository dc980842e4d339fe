package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportJob struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`   // "csv-import" | "json-import"
	Status        string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	FilePath      string     `json:"-"`
	RowsProcessed *int       `json:"rows_processed"`
	RowsSkipped   *int       `json:"rows_skipped"`
	ErrorCode     *string    `json:"error_code"`
	ErrorMessage  *string    `json:"error_message"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// ImportStatusEvent is published on Redis pub/sub and relayed to dashboard
// clients over the websocket hub.
type ImportStatusEvent struct {
	JobID         uuid.UUID `json:"job_id"`
	Status        string    `json:"status"`
	RowsProcessed int       `json:"rows_processed,omitempty"`
	RowsSkipped   int       `json:"rows_skipped,omitempty"`
	ErrorCode     string    `json:"error_code,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}
