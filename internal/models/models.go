package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FileUpload is the durable record of a fully processed upload.
// It is written by the background processor on completion and read by the
// upload-history listing endpoint.
type FileUpload struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Filename    string    `db:"filename" json:"filename"`
	FileType    string    `db:"file_type" json:"file_type"` // csv | xlsx | xls | pdf | docx | doc
	StorageURL  string    `db:"storage_url" json:"storage_url"`
	SummaryJSON string    `db:"summary_json" json:"summary_json,omitempty"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Briefing holds a generated artifact (executive summary, meeting prep)
// keyed by user.
type Briefing struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	BriefingType string    `db:"briefing_type" json:"briefing_type"` // "executive_summary"
	ContentJSON  string    `db:"content_json" json:"content_json"`
	FileID       string    `db:"file_id" json:"file_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FileChunk is one embedded text chunk of an uploaded file.
type FileChunk struct {
	ID         string    `db:"id" json:"id"`
	FileID     string    `db:"file_id" json:"file_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Position   int       `db:"position" json:"position"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"-"` // pgvector column
	TokenCount int       `db:"token_count" json:"token_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ExecutiveSummary is the derived artifact produced at the end of the
// ingestion pipeline: a one-line headline plus 1-5 ordered bullets.
type ExecutiveSummary struct {
	Headline string   `json:"headline"`
	Bullets  []string `json:"bullets"`
}

// ProcessResult is attached to a completed job record.
type ProcessResult struct {
	Filename         string            `json:"filename"`
	TotalChunks      int               `json:"total_chunks"`
	VectorsStored    int               `json:"vectors_stored"`
	ExecutiveSummary *ExecutiveSummary `json:"executive_summary,omitempty"`
}
