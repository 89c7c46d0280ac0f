package ingestion_engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
)

// IngestConfig tunes the background pipeline.
//
// TargetTokens:   approximate tokens per document chunk.
// OverlapTokens:  token overlap between consecutive chunks for context bleed.
// BatchSize:      how many chunks to embed in one provider call.
// MaxChunks:      hard cap on chunks per upload (keeps processing bounded).
// ChunkCharLimit: per-chunk content cap in characters.
// JobTimeout:     watchdog budget per job; expiry forces a failed terminal
//                 state so pollers never spin forever.
type IngestConfig struct {
	TargetTokens   int
	OverlapTokens  int
	BatchSize      int
	MaxChunks      int
	ChunkCharLimit int
	JobTimeout     time.Duration
}

// DefaultIngestConfig mirrors the production tuning.
func DefaultIngestConfig(jobTimeout time.Duration) *IngestConfig {
	return &IngestConfig{
		TargetTokens:   500,
		OverlapTokens:  50,
		BatchSize:      16,
		MaxChunks:      50,
		ChunkCharLimit: 2000,
		JobTimeout:     jobTimeout,
	}
}

// Task is the unit of work handed from the upload orchestrator to the
// worker pool. Once enqueued, the pool owns it.
type Task struct {
	JobID       string
	UserID      string
	Filename    string
	FileType    string
	Bucket      string
	Key         string
	StorageURL  string
	ContentType string
}

// chunk is the internal representation passed through the pipeline.
type chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// Processor runs full ingestion for uploaded files: fetch from object
// storage, parse, chunk, embed, index, summarize, and publish progress to
// the job tracker.
type Processor struct {
	db       core.DbClient
	obj      core.ObjectClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	tracker  *jobtrack.Tracker
	cfg      *IngestConfig
	log      *logrus.Entry
	jobs     chan Task
}

// Ingestor is what the upload orchestrator sees.
type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(task Task)
	ProcessOne(ctx context.Context, task Task) error
}
