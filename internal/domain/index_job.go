package domain

import (
	"fmt"
	"time"
)

// IndexJobStatus represents the status of a community reindex job.
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob represents a queued (re)index of one community. Jobs are created
// when a synchronous index attempt fails with a retryable error.
type IndexJob struct {
	ID          string
	Community   string
	Status      IndexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ValidateIndexJob validates an IndexJob instance.
func ValidateIndexJob(j *IndexJob) error {
	if j == nil {
		return fmt.Errorf("index job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("index job ID is required")
	}
	if j.Community == "" {
		return fmt.Errorf("index job Community is required")
	}
	if !isValidIndexJobStatus(j.Status) {
		return fmt.Errorf("index job Status is invalid: %s", j.Status)
	}
	if j.Retries < 0 {
		return fmt.Errorf("index job Retries cannot be negative")
	}
	return nil
}

func isValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing,
		IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
