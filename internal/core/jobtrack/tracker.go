package jobtrack

import (
	"context"
	"sync"
	"time"

	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

// Tracker is an in-process job store with bounded retention. All access goes
// through its methods; Get hands out value copies so pollers never observe a
// half-written record. Terminal records are evicted once they are older than
// the retention window.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*Record
	retention time.Duration
	now       func() time.Time
}

// New creates a Tracker. Records are kept for the given retention after they
// reach a terminal state; call Start to run the eviction sweep.
func New(retention time.Duration) *Tracker {
	return &Tracker{
		jobs:      make(map[string]*Record),
		retention: retention,
		now:       time.Now,
	}
}

// Start runs the eviction janitor until ctx is cancelled.
func (t *Tracker) Start(ctx context.Context, sweepEvery time.Duration) {
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Sweep()
			}
		}
	}()
}

// Create registers a new queued record and returns a copy of it.
func (t *Tracker) Create(jobID, userID, filename string) Record {
	now := t.now()
	rec := &Record{
		JobID:     jobID,
		Status:    StatusQueued,
		Progress:  0,
		Message:   "Queued for processing",
		Filename:  filename,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[jobID] = rec
	t.mu.Unlock()
	return *rec
}

// Get returns a copy of the record, or ErrNotFound for unknown/expired ids.
func (t *Tracker) Get(jobID string) (Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.jobs[jobID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *rec, nil
}

// MarkProcessing publishes a progress milestone. Progress is clamped so it
// never regresses, and updates against a terminal record are dropped.
func (t *Tracker) MarkProcessing(jobID string, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok || rec.Terminal() {
		return
	}
	rec.Status = StatusProcessing
	if progress > rec.Progress {
		rec.Progress = progress
	}
	rec.Message = message
	rec.UpdatedAt = t.now()
}

// Complete moves the record to its terminal completed state. The result is
// treated as immutable from here on.
func (t *Tracker) Complete(jobID string, result *models.ProcessResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok || rec.Terminal() {
		return
	}
	rec.Status = StatusCompleted
	rec.Progress = 100
	rec.Message = "Full processing complete"
	rec.Result = result
	rec.UpdatedAt = t.now()
}

// Fail moves the record to its terminal failed state.
func (t *Tracker) Fail(jobID, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[jobID]
	if !ok || rec.Terminal() {
		return
	}
	rec.Status = StatusFailed
	rec.Message = "Processing failed: " + errMsg
	rec.Error = errMsg
	rec.UpdatedAt = t.now()
}

// Sweep drops terminal records older than the retention window.
func (t *Tracker) Sweep() {
	cutoff := t.now().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, rec := range t.jobs {
		if rec.Terminal() && rec.UpdatedAt.Before(cutoff) {
			delete(t.jobs, id)
		}
	}
}

// Len reports the number of tracked records.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}
