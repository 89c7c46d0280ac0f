package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/fileparse"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/ingestion_engine"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/preview"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

var (
	// ErrUnsupportedType rejects extensions outside csv/xlsx/xls/pdf/docx/doc.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge rejects uploads over the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// QuickUploadResult is the immediate response of the async upload path. The
// caller polls Status with JobID for the rest.
type QuickUploadResult struct {
	Filename string           `json:"filename"`
	Preview  *preview.Preview `json:"preview"`
	JobID    string           `json:"job_id"`
	Status   string           `json:"status"`
	Message  string           `json:"message"`
}

// SyncUploadResult is the response of the legacy blocking upload path, which
// only returns once full processing is done.
type SyncUploadResult struct {
	Filename         string                   `json:"filename"`
	FileType         string                   `json:"file_type"`
	Preview          *preview.Preview         `json:"preview"`
	Columns          []string                 `json:"columns,omitempty"`
	Message          string                   `json:"message"`
	ExecutiveSummary *models.ExecutiveSummary `json:"executive_summary,omitempty"`
}

// UploadService orchestrates uploads: validate, extract a preview, persist
// to object storage, then either hand off to the background pipeline
// (QuickUpload) or run it inline (Upload).
type UploadService struct {
	obj       core.ObjectClient
	processor ingestion_engine.Ingestor
	tracker   *jobtrack.Tracker
	previews  *preview.Extractor
	bucket    string
	maxBytes  int64
	log       *logrus.Entry
}

func NewUploadService(obj core.ObjectClient, processor ingestion_engine.Ingestor, tracker *jobtrack.Tracker, previews *preview.Extractor, bucket string, maxBytes int64, log *logrus.Entry) *UploadService {
	return &UploadService{
		obj:       obj,
		processor: processor,
		tracker:   tracker,
		previews:  previews,
		bucket:    bucket,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// QuickUpload validates and stores the file, returns a preview immediately,
// and schedules background processing under a fresh job id.
func (s *UploadService) QuickUpload(ctx context.Context, userID, filename string, data []byte) (*QuickUploadResult, error) {
	task, pv, err := s.prepare(ctx, userID, filename, data)
	if err != nil {
		return nil, err
	}

	rec := s.tracker.Create(task.JobID, userID, task.Filename)
	s.processor.Enqueue(*task)

	s.log.WithFields(logrus.Fields{
		"job_id":   rec.JobID,
		"filename": task.Filename,
		"user_id":  userID,
	}).Info("upload accepted, processing scheduled")

	return &QuickUploadResult{
		Filename: task.Filename,
		Preview:  pv,
		JobID:    rec.JobID,
		Status:   "preview_ready",
		Message:  "Preview ready. Full processing started in background.",
	}, nil
}

// Upload is the legacy blocking path: same validation and storage, but the
// pipeline runs inline and the full result is returned. If processing fails
// the stored object is removed so storage does not accumulate orphans.
func (s *UploadService) Upload(ctx context.Context, userID, filename string, data []byte) (*SyncUploadResult, error) {
	task, pv, err := s.prepare(ctx, userID, filename, data)
	if err != nil {
		return nil, err
	}

	s.tracker.Create(task.JobID, userID, task.Filename)
	if err := s.processor.ProcessOne(ctx, *task); err != nil {
		if delErr := s.obj.DeleteFile(ctx, s.bucket, task.Key); delErr != nil {
			s.log.WithField("key", task.Key).WithError(delErr).Warn("orphan cleanup failed")
		}
		return nil, fmt.Errorf("processing %s: %w", task.Filename, err)
	}

	rec, err := s.tracker.Get(task.JobID)
	if err != nil {
		return nil, err
	}

	out := &SyncUploadResult{
		Filename: task.Filename,
		FileType: task.FileType,
		Preview:  pv,
		Columns:  pv.Columns,
		Message:  "File processed successfully",
	}
	if rec.Result != nil {
		out.ExecutiveSummary = rec.Result.ExecutiveSummary
	}
	return out, nil
}

// Status returns the current job record; jobtrack.ErrNotFound for unknown or
// evicted jobs.
func (s *UploadService) Status(jobID string) (jobtrack.Record, error) {
	return s.tracker.Get(jobID)
}

// prepare runs the shared front half of both upload paths: validation,
// preview extraction, and object storage. Preview extraction cannot fail the
// upload; a storage failure does.
func (s *UploadService) prepare(ctx context.Context, userID, filename string, data []byte) (*ingestion_engine.Task, *preview.Preview, error) {
	if !fileparse.Supported(filename) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fileparse.Ext(filename))
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}

	safe := SanitizeFilename(filename)
	pv := s.previews.Extract(ctx, safe, data)

	jobID := uuid.NewString()
	key := fmt.Sprintf("uploads/%s/%s_%s", userID, jobID, safe)
	contentType := contentTypeFor(safe)

	url, err := s.obj.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("store upload: %w", err)
	}

	return &ingestion_engine.Task{
		JobID:       jobID,
		UserID:      userID,
		Filename:    safe,
		FileType:    fileparse.Ext(safe),
		Bucket:      s.bucket,
		Key:         key,
		StorageURL:  url,
		ContentType: contentType,
	}, pv, nil
}

func contentTypeFor(filename string) string {
	switch fileparse.Ext(filename) {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "xls":
		return "application/vnd.ms-excel"
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "doc":
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}

// SanitizeFilename strips path components and shell-hostile characters from a
// client-supplied filename so it is safe as part of a storage key.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)

	// Keep only the basename regardless of separator style.
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name = b.String()
	name = strings.ReplaceAll(name, "..", "")
	name = strings.TrimLeft(name, ".")

	if len(name) > 200 {
		ext := fileparse.Ext(name)
		name = name[:200]
		if ext != "" && !strings.HasSuffix(name, "."+ext) {
			name = name + "." + ext
		}
	}
	if name == "" {
		name = "upload"
	}
	return name
}
