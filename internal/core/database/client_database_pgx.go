package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SomaanRauniyar/datainsight-pro/internal/config"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.FirstName, user.Email, user.PasswordHash)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) CreateFileUpload(ctx context.Context, up *models.FileUpload) error {
	if up == nil {
		return errors.New("nil file upload")
	}
	const q = `
		INSERT INTO file_uploads (id, user_id, filename, file_type, storage_url, summary_json, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	_, err := c.db.ExecContext(ctx, q,
		up.ID, up.UserID, up.Filename, up.FileType, up.StorageURL, up.SummaryJSON)
	return err
}

func (c *DatabaseClient) ListFileUploadsByUser(ctx context.Context, userID string) ([]models.FileUpload, error) {
	const q = `
		SELECT id, user_id, filename, file_type, storage_url, summary_json, uploaded_at
		FROM file_uploads
		WHERE user_id = $1
		ORDER BY uploaded_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FileUpload
	for rows.Next() {
		var f models.FileUpload
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Filename, &f.FileType, &f.StorageURL, &f.SummaryJSON, &f.UploadedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateBriefing(ctx context.Context, b *models.Briefing) error {
	if b == nil {
		return errors.New("nil briefing")
	}
	const q = `
		INSERT INTO briefings (id, user_id, briefing_type, content_json, file_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), now())
	`
	_, err := c.db.ExecContext(ctx, q, b.ID, b.UserID, b.BriefingType, b.ContentJSON, b.FileID)
	return err
}

func (c *DatabaseClient) ListBriefingsByUser(ctx context.Context, userID, briefingType string, limit int) ([]models.Briefing, error) {
	const q = `
		SELECT id, user_id, briefing_type, content_json, COALESCE(file_id, ''), created_at
		FROM briefings
		WHERE user_id = $1 AND ($2 = '' OR briefing_type = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, userID, briefingType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Briefing
	for rows.Next() {
		var b models.Briefing
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.BriefingType, &b.ContentJSON, &b.FileID, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertFileChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertFileChunks(ctx context.Context, chunks []models.FileChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO file_chunks
			(id, file_id, user_id, position, content, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.FileID, ch.UserID, ch.Position, ch.Content, vec, ch.TokenCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchFileChunks finds top-k similar chunks across a user's files for a
// query embedding.
func (c *DatabaseClient) SearchFileChunks(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.FileChunk, error) {
	const q = `
		SELECT id, file_id, user_id, position, content, embedding, token_count
		FROM file_chunks
		WHERE user_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, userID, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FileChunk
	for rows.Next() {
		var (
			ch  models.FileChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.FileID, &ch.UserID, &ch.Position, &ch.Content, &emb, &ch.TokenCount); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}
