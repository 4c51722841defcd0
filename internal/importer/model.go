package importer

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Run summarizes one import over a set of root directories.
type Run struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"` // "running", "completed", "canceled"
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TotalDirs        int        `json:"total_dirs"`
	DirsProcessed    int        `json:"dirs_processed"`
	RecordsPersisted int        `json:"records_persisted"`
	RecordsFailed    int        `json:"records_failed"`
	DirErrors        []string   `json:"dir_errors,omitempty"`
	Progress         float64    `json:"progress"` // 0..1, non-decreasing
	Message          string     `json:"message"`
}
