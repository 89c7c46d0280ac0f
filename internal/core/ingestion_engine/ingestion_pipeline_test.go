package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

type fakeDB struct {
	mu        sync.Mutex
	chunks    []models.FileChunk
	uploads   []models.FileUpload
	briefings []models.Briefing
}

func (f *fakeDB) CreateUser(context.Context, *models.User) error { return nil }
func (f *fakeDB) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("not found")
}
func (f *fakeDB) CreateFileUpload(_ context.Context, u *models.FileUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, *u)
	return nil
}
func (f *fakeDB) ListFileUploadsByUser(context.Context, string) ([]models.FileUpload, error) {
	return nil, nil
}
func (f *fakeDB) CreateBriefing(_ context.Context, b *models.Briefing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.briefings = append(f.briefings, *b)
	return nil
}
func (f *fakeDB) ListBriefingsByUser(context.Context, string, string, int) ([]models.Briefing, error) {
	return nil, nil
}
func (f *fakeDB) InsertFileChunks(_ context.Context, chunks []models.FileChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunks...)
	return nil
}
func (f *fakeDB) SearchFileChunks(context.Context, string, []float32, int) ([]models.FileChunk, error) {
	return nil, nil
}
func (f *fakeDB) Close() error { return nil }

type fakeObject struct {
	mu      sync.Mutex
	files   map[string][]byte
	getErr  error
	deleted []string
}

func newFakeObject() *fakeObject {
	return &fakeObject{files: map[string][]byte{}}
}

func (f *fakeObject) UploadFile(_ context.Context, _, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return "https://bucket.s3.amazonaws.com/" + key, nil
}
func (f *fakeObject) GetFile(_ context.Context, _, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}
func (f *fakeObject) DeleteFile(_ context.Context, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeLLM struct {
	resp     string
	err      error
	lastUser string
}

func (f *fakeLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.resp, nil
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func csvData(rows int) []byte {
	var b strings.Builder
	b.WriteString("region,revenue\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "west,%d\n", i*100)
	}
	return []byte(b.String())
}

type pipelineEnv struct {
	db      *fakeDB
	obj     *fakeObject
	emb     *fakeEmbedder
	llm     *fakeLLM
	tracker *jobtrack.Tracker
	proc    *Processor
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	env := &pipelineEnv{
		db:      &fakeDB{},
		obj:     newFakeObject(),
		emb:     &fakeEmbedder{},
		llm:     &fakeLLM{resp: `{"headline":"Strong quarter","bullets":["b1","b2","b3"]}`},
		tracker: jobtrack.New(time.Hour),
	}
	env.proc = NewProcessor(env.db, env.obj, env.emb, env.llm, env.tracker,
		DefaultIngestConfig(30*time.Second), testLog())
	return env
}

func (e *pipelineEnv) enqueueCSV(t *testing.T, jobID string, rows int) Task {
	t.Helper()
	key := "uploads/u1/" + jobID + "_sales.csv"
	_, err := e.obj.UploadFile(context.Background(), "b", key, csvData(rows), "text/csv")
	require.NoError(t, err)

	e.tracker.Create(jobID, "u1", "sales.csv")
	return Task{
		JobID: jobID, UserID: "u1", Filename: "sales.csv", FileType: "csv",
		Bucket: "b", Key: key, StorageURL: "https://bucket.s3.amazonaws.com/" + key,
	}
}

func TestProcessOneCompletesJob(t *testing.T) {
	env := newPipelineEnv(t)
	task := env.enqueueCSV(t, "job-1", 5)

	require.NoError(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusCompleted, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 5, rec.Result.TotalChunks)
	assert.Equal(t, 5, rec.Result.VectorsStored)
	require.NotNil(t, rec.Result.ExecutiveSummary)
	assert.Equal(t, "Strong quarter", rec.Result.ExecutiveSummary.Headline)
	assert.Len(t, rec.Result.ExecutiveSummary.Bullets, 3)

	require.Len(t, env.db.chunks, 5)
	for i, ch := range env.db.chunks {
		assert.Equal(t, i, ch.Position)
		assert.Equal(t, "u1", ch.UserID)
		assert.Equal(t, env.db.chunks[0].FileID, ch.FileID)
		assert.Len(t, ch.Embedding, 3)
		assert.Contains(t, ch.Content, "region: west")
	}

	require.Len(t, env.db.uploads, 1)
	assert.Equal(t, "sales.csv", env.db.uploads[0].Filename)
	assert.Equal(t, env.db.chunks[0].FileID, env.db.uploads[0].ID)
	assert.NotEmpty(t, env.db.uploads[0].SummaryJSON)

	require.Len(t, env.db.briefings, 1)
	assert.Equal(t, "executive_summary", env.db.briefings[0].BriefingType)
}

func TestProcessOneCapsChunks(t *testing.T) {
	env := newPipelineEnv(t)
	task := env.enqueueCSV(t, "job-1", 200)

	require.NoError(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, 50, rec.Result.TotalChunks)
	assert.Len(t, env.db.chunks, 50)
}

func TestProcessOneEmbeddingFailureFailsJob(t *testing.T) {
	env := newPipelineEnv(t)
	env.emb.err = errors.New("provider unavailable")
	task := env.enqueueCSV(t, "job-1", 5)

	require.Error(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "embed")
	assert.Empty(t, env.db.chunks)
	assert.Empty(t, env.db.uploads)
}

func TestProcessOneFetchFailureFailsJob(t *testing.T) {
	env := newPipelineEnv(t)
	env.obj.getErr = errors.New("connection reset")
	task := env.enqueueCSV(t, "job-1", 5)

	require.Error(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusFailed, rec.Status)
	assert.Contains(t, rec.Message, "Processing failed:")
}

func TestProcessOneSummaryFailureStillCompletes(t *testing.T) {
	env := newPipelineEnv(t)
	env.llm.err = errors.New("rate limited")
	task := env.enqueueCSV(t, "job-1", 5)

	require.NoError(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusCompleted, rec.Status)
	assert.Nil(t, rec.Result.ExecutiveSummary)
	assert.Len(t, env.db.uploads, 1)
	assert.Empty(t, env.db.uploads[0].SummaryJSON)
	assert.Empty(t, env.db.briefings)
}

func TestProcessOneUnreadableDocumentFailsJob(t *testing.T) {
	env := newPipelineEnv(t)
	key := "uploads/u1/job-1_memo.docx"
	_, err := env.obj.UploadFile(context.Background(), "b", key, []byte("not a real docx"), "")
	require.NoError(t, err)
	env.tracker.Create("job-1", "u1", "memo.docx")

	task := Task{JobID: "job-1", UserID: "u1", Filename: "memo.docx", FileType: "docx", Bucket: "b", Key: key}
	require.Error(t, env.proc.ProcessOne(context.Background(), task))

	rec, err := env.tracker.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusFailed, rec.Status)
}

func TestWorkerPoolDrivesEnqueuedTasks(t *testing.T) {
	env := newPipelineEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.proc.Start(ctx, 2)

	tasks := []Task{
		env.enqueueCSV(t, "job-1", 5),
		env.enqueueCSV(t, "job-2", 8),
	}
	for _, task := range tasks {
		env.proc.Enqueue(task)
	}

	deadline := time.After(5 * time.Second)
	for _, id := range []string{"job-1", "job-2"} {
		for {
			rec, err := env.tracker.Get(id)
			require.NoError(t, err)
			if rec.Terminal() {
				assert.Equal(t, jobtrack.StatusCompleted, rec.Status)
				break
			}
			select {
			case <-deadline:
				t.Fatalf("job %s never reached a terminal state", id)
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}
