package core

import (
	"context"

	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateFileUpload(ctx context.Context, upload *models.FileUpload) error
	ListFileUploadsByUser(ctx context.Context, userID string) ([]models.FileUpload, error)

	CreateBriefing(ctx context.Context, briefing *models.Briefing) error
	ListBriefingsByUser(ctx context.Context, userID, briefingType string, limit int) ([]models.Briefing, error)

	InsertFileChunks(ctx context.Context, chunks []models.FileChunk) error
	SearchFileChunks(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.FileChunk, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}

// EmbeddingProvider turns text into vectors.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates text from a system + user prompt.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
