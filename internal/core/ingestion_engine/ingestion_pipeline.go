package ingestion_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/fileparse"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

// embedConcurrency bounds parallel embedding calls per job.
const embedConcurrency = 2

// NewProcessor constructs the processor with a bounded job queue (64).
func NewProcessor(db core.DbClient, obj core.ObjectClient, emb core.EmbeddingProvider, llm core.LLMProvider, tracker *jobtrack.Tracker, cfg *IngestConfig, log *logrus.Entry) *Processor {
	return &Processor{
		db: db, obj: obj, embedder: emb, llm: llm, tracker: tracker,
		cfg:  cfg,
		log:  log,
		jobs: make(chan Task, 64),
	}
}

// Start runs worker goroutines reading from the jobs channel. Each worker
// drives tasks to a terminal job status; errors are recorded on the job
// record, never propagated.
func (p *Processor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			log := p.log.WithField("worker", w)
			for {
				select {
				case <-ctx.Done():
					log.Info("ingestion worker shutting down")
					return
				case task := <-p.jobs:
					if err := p.ProcessOne(ctx, task); err != nil {
						log.WithField("job_id", task.JobID).WithError(err).Error("processing failed")
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a task for ingestion. If the queue is full, this call
// blocks until space frees up.
func (p *Processor) Enqueue(task Task) {
	p.jobs <- task
}

// ProcessOne runs the full pipeline for a single upload and always leaves
// the job record in a terminal state. The returned error mirrors what was
// recorded on the record.
func (p *Processor) ProcessOne(ctx context.Context, task Task) error {
	// Watchdog: external calls can hang, the poller must not.
	wctx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	err := p.run(wctx, task)
	if err != nil {
		p.tracker.Fail(task.JobID, err.Error())
	}
	return err
}

func (p *Processor) run(ctx context.Context, task Task) error {
	p.tracker.MarkProcessing(task.JobID, 20, "Preview ready. Processing full file...")

	data, err := p.obj.GetFile(ctx, task.Bucket, task.Key)
	if err != nil {
		return fmt.Errorf("fetch stored file: %w", err)
	}

	p.tracker.MarkProcessing(task.JobID, 40, "Creating optimized chunks...")

	chunks, sample, err := p.buildChunks(task, data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", task.Filename, err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("parse %s: no content to ingest", task.Filename)
	}

	p.tracker.MarkProcessing(task.JobID, 60, fmt.Sprintf("Generating embeddings for %d chunks...", len(chunks)))

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	p.tracker.MarkProcessing(task.JobID, 80, "Storing vectors in database...")

	fileID := uuid.NewString()
	rows := make([]models.FileChunk, len(chunks))
	for i, ch := range chunks {
		rows[i] = models.FileChunk{
			ID:         uuid.NewString(),
			FileID:     fileID,
			UserID:     task.UserID,
			Position:   ch.Pos,
			Content:    ch.Text,
			Embedding:  vectors[i],
			TokenCount: ch.TokenCnt,
		}
	}
	if err := p.db.InsertFileChunks(ctx, rows); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	// Summary generation is best-effort: the upload still completes when
	// the LLM is unavailable.
	summary, err := GenerateExecutiveSummary(ctx, p.llm, task.Filename, sample)
	if err != nil {
		p.log.WithField("job_id", task.JobID).WithError(err).Warn("summary generation failed")
		summary = nil
	}

	summaryJSON := ""
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			summaryJSON = string(b)
		}
	}

	upload := &models.FileUpload{
		ID:          fileID,
		UserID:      task.UserID,
		Filename:    task.Filename,
		FileType:    task.FileType,
		StorageURL:  task.StorageURL,
		SummaryJSON: summaryJSON,
	}
	if err := p.db.CreateFileUpload(ctx, upload); err != nil {
		return fmt.Errorf("record upload: %w", err)
	}

	if summary != nil {
		briefing := &models.Briefing{
			ID:           uuid.NewString(),
			UserID:       task.UserID,
			BriefingType: "executive_summary",
			ContentJSON:  summaryJSON,
			FileID:       fileID,
		}
		if err := p.db.CreateBriefing(ctx, briefing); err != nil {
			p.log.WithField("job_id", task.JobID).WithError(err).Warn("briefing write failed")
		}
	}

	p.tracker.Complete(task.JobID, &models.ProcessResult{
		Filename:         task.Filename,
		TotalChunks:      len(chunks),
		VectorsStored:    len(rows),
		ExecutiveSummary: summary,
	})

	p.log.WithFields(logrus.Fields{
		"job_id":   task.JobID,
		"filename": task.Filename,
		"chunks":   len(chunks),
	}).Info("upload processing complete")
	return nil
}

// buildChunks turns the raw file into pipeline chunks plus a small content
// sample used for summary generation. Tabular files chunk row-by-row;
// documents go through text extraction and the token chunker.
func (p *Processor) buildChunks(task Task, data []byte) ([]chunk, []string, error) {
	if fileparse.DetectKind(task.Filename) == fileparse.KindTabular {
		table, err := fileparse.ParseTabular(task.Filename, data, p.cfg.MaxChunks)
		if err != nil {
			return nil, nil, err
		}
		var chunks []chunk
		for i, row := range table.Rows {
			text := clip(fileparse.RenderRow(table.Columns, row), p.cfg.ChunkCharLimit)
			chunks = append(chunks, chunk{Pos: i, Text: text, TokenCnt: approxTokens(text)})
		}
		return chunks, sampleTexts(chunks, 10), nil
	}

	text, err := fileparse.ExtractText(task.Filename, data)
	if err != nil {
		return nil, nil, err
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	chunks := chunkLines(lines, p.cfg.TargetTokens, p.cfg.OverlapTokens)
	if len(chunks) > p.cfg.MaxChunks {
		chunks = chunks[:p.cfg.MaxChunks]
	}
	for i := range chunks {
		chunks[i].Text = clip(chunks[i].Text, p.cfg.ChunkCharLimit)
	}
	return chunks, sampleTexts(chunks, 10), nil
}

// embedChunks embeds chunk text in batches, a bounded number of batches in
// flight, preserving chunk order in the output.
func (p *Processor) embedChunks(ctx context.Context, chunks []chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start, end := start, end

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Text
			}
			vecs, err := p.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(texts))
			}
			for i := range vecs {
				vectors[start+i] = vecs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func sampleTexts(chunks []chunk, n int) []string {
	if len(chunks) < n {
		n = len(chunks)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = chunks[i].Text
	}
	return out
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

var _ Ingestor = (*Processor)(nil)
