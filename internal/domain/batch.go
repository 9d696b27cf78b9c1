package domain

import "time"

// BatchError records a single page failure during orchestration.
type BatchError struct {
	Page    int    `json:"page"`
	Message string `json:"message"`
}

// BatchReport summarizes one full-analysis run. A non-empty Errors slice
// means the derived voice profile was NOT committed; tier recomputation for
// successfully processed pages still stands because tier writes are
// idempotent per snapshot.
type BatchReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Processed  int          `json:"processed"`
	Skipped    int          `json:"skipped"`
	Errors     []BatchError `json:"errors,omitempty"`
	Committed  bool         `json:"committed"`
}
