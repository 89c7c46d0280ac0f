// Package jobtrack tracks background upload-processing jobs. It is the only
// shared mutable structure between the HTTP layer and the ingestion workers:
// the orchestrator creates a record, exactly one worker advances it, and any
// number of pollers read it.
package jobtrack

import (
	"errors"
	"time"

	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

// Status is the job lifecycle state.
// queued -> processing -> {completed, failed}; queued -> completed is
// allowed for trivially small inputs. Terminal records never change again.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("job not found")

// Record is the status/result structure tracked per background job.
// Result is set only on completion, Error only on failure.
type Record struct {
	JobID    string                `json:"job_id"`
	Status   Status                `json:"status"`
	Progress int                   `json:"progress"`
	Message  string                `json:"message"`
	Filename string                `json:"filename,omitempty"`
	UserID   string                `json:"-"`
	Result   *models.ProcessResult `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Terminal reports whether the record reached a final state.
func (r *Record) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
