package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SomaanRauniyar/datainsight-pro/internal/core/ingestion_engine"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/preview"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

type fakeObject struct {
	mu        sync.Mutex
	files     map[string][]byte
	uploadErr error
	deleted   []string
}

func newFakeObject() *fakeObject {
	return &fakeObject{files: map[string][]byte{}}
}

func (f *fakeObject) UploadFile(_ context.Context, _, key string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (f *fakeObject) GetFile(_ context.Context, _, key string) ([]byte, error) {
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

type fakeIngestor struct {
	mu         sync.Mutex
	enqueued   []ingestion_engine.Task
	processErr error
	onProcess  func(task ingestion_engine.Task)
}

func (f *fakeIngestor) Start(context.Context, int) {}

func (f *fakeIngestor) Enqueue(task ingestion_engine.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, task)
}

func (f *fakeIngestor) ProcessOne(_ context.Context, task ingestion_engine.Task) error {
	if f.processErr != nil {
		return f.processErr
	}
	if f.onProcess != nil {
		f.onProcess(task)
	}
	return nil
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type serviceEnv struct {
	obj      *fakeObject
	ingestor *fakeIngestor
	tracker  *jobtrack.Tracker
	svc      *UploadService
}

func newServiceEnv(maxBytes int64) *serviceEnv {
	env := &serviceEnv{
		obj:      newFakeObject(),
		ingestor: &fakeIngestor{},
		tracker:  jobtrack.New(time.Hour),
	}
	previews := preview.NewExtractor(5*time.Second, testLog())
	env.svc = NewUploadService(env.obj, env.ingestor, env.tracker, previews,
		"test-bucket", maxBytes, testLog())
	return env
}

const smallCSV = "region,revenue\nwest,100\neast,200\n"

func TestQuickUploadSchedulesJob(t *testing.T) {
	env := newServiceEnv(1 << 20)

	res, err := env.svc.QuickUpload(context.Background(), "u1", "sales.csv", []byte(smallCSV))
	require.NoError(t, err)

	assert.Equal(t, "sales.csv", res.Filename)
	assert.Equal(t, "preview_ready", res.Status)
	assert.NotEmpty(t, res.JobID)
	require.NotNil(t, res.Preview)
	assert.Equal(t, "table", res.Preview.Type)
	assert.Equal(t, 2, res.Preview.TotalRows)

	rec, err := env.tracker.Get(res.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobtrack.StatusQueued, rec.Status)

	require.Len(t, env.ingestor.enqueued, 1)
	task := env.ingestor.enqueued[0]
	assert.Equal(t, res.JobID, task.JobID)
	assert.Equal(t, "u1", task.UserID)
	assert.True(t, strings.HasPrefix(task.Key, "uploads/u1/"), task.Key)
	assert.Contains(t, env.obj.files, task.Key)
}

func TestQuickUploadRejectsUnsupportedType(t *testing.T) {
	env := newServiceEnv(1 << 20)

	_, err := env.svc.QuickUpload(context.Background(), "u1", "archive.zip", []byte("zip"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, env.tracker.Len())
	assert.Empty(t, env.ingestor.enqueued)
	assert.Empty(t, env.obj.files)
}

func TestQuickUploadRejectsOversizedFile(t *testing.T) {
	env := newServiceEnv(10)

	_, err := env.svc.QuickUpload(context.Background(), "u1", "big.csv", []byte(smallCSV))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Zero(t, env.tracker.Len())
}

func TestQuickUploadStorageFailure(t *testing.T) {
	env := newServiceEnv(1 << 20)
	env.obj.uploadErr = errors.New("s3 down")

	_, err := env.svc.QuickUpload(context.Background(), "u1", "sales.csv", []byte(smallCSV))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, env.tracker.Len())
	assert.Empty(t, env.ingestor.enqueued)
}

func TestQuickUploadPreviewFailureStillSchedules(t *testing.T) {
	env := newServiceEnv(1 << 20)

	// Malformed csv: preview degrades, processing is still attempted.
	res, err := env.svc.QuickUpload(context.Background(), "u1", "bad.csv", []byte("a,b\n\"broken\n"))
	require.NoError(t, err)

	require.NotNil(t, res.Preview)
	assert.Equal(t, "table", res.Preview.Type)
	assert.Empty(t, res.Preview.Data)
	assert.NotEmpty(t, res.JobID)
	assert.Len(t, env.ingestor.enqueued, 1)
}

func TestSyncUploadReturnsFullResult(t *testing.T) {
	env := newServiceEnv(1 << 20)
	env.ingestor.onProcess = func(task ingestion_engine.Task) {
		env.tracker.Complete(task.JobID, &models.ProcessResult{
			Filename:    task.Filename,
			TotalChunks: 2,
			ExecutiveSummary: &models.ExecutiveSummary{
				Headline: "Two regions",
				Bullets:  []string{"west leads", "east grows", "totals stable"},
			},
		})
	}

	res, err := env.svc.Upload(context.Background(), "u1", "sales.csv", []byte(smallCSV))
	require.NoError(t, err)

	assert.Equal(t, "sales.csv", res.Filename)
	assert.Equal(t, "csv", res.FileType)
	assert.Equal(t, []string{"region", "revenue"}, res.Columns)
	require.NotNil(t, res.ExecutiveSummary)
	assert.Equal(t, "Two regions", res.ExecutiveSummary.Headline)
}

func TestSyncUploadFailureCleansUpObject(t *testing.T) {
	env := newServiceEnv(1 << 20)
	env.ingestor.processErr = errors.New("embed: provider unavailable")

	_, err := env.svc.Upload(context.Background(), "u1", "sales.csv", []byte(smallCSV))
	require.Error(t, err)

	require.Len(t, env.obj.deleted, 1)
	assert.True(t, strings.HasPrefix(env.obj.deleted[0], "uploads/u1/"))
}

func TestStatusUnknownJob(t *testing.T) {
	env := newServiceEnv(1 << 20)

	_, err := env.svc.Status("missing")
	assert.ErrorIs(t, err, jobtrack.ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.csv", "report.csv"},
		{"../../etc/passwd", "passwd"},
		{`..\..\evil.xlsx`, "evil.xlsx"},
		{"a:b*c?.pdf", "a_b_c_.pdf"},
		{".hidden.csv", "hidden.csv"},
		{"we..ird.csv", "weird.csv"},
		{"", "upload"},
		{"dir/sub/file name.docx", "file name.docx"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), tc.in)
	}
}
