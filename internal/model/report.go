package model

import (
	"encoding/json"
	"time"
)

// ReportStatus tracks the lifecycle of a background store report.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Report is a store statistics report generated by the background worker.
// Callers poll it by ID until it leaves the pending state.
type Report struct {
	ID          string          `json:"id"`
	StoreID     int64           `json:"store_id"`
	Status      ReportStatus    `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
