package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SomaanRauniyar/datainsight-pro/internal/config"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	db "github.com/SomaanRauniyar/datainsight-pro/internal/core/database"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/ingestion_engine"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/llm"
	objectclient "github.com/SomaanRauniyar/datainsight-pro/internal/core/object-client"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/preview"
	"github.com/SomaanRauniyar/datainsight-pro/internal/services"
)

// App holds the wired application graph.
type App struct {
	DBClient  core.DbClient
	Tracker   *jobtrack.Tracker
	Processor *ingestion_engine.Processor
	Server    *Server

	cfg *config.Config
	log *logrus.Entry
}

func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init: %w", err)
	}
	log.Info("object storage initialized and ready")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.GeminiAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}

	groq := llm.NewGroqLLM(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)

	tracker := jobtrack.New(cfg.JobRetention)
	previews := preview.NewExtractor(cfg.PreviewTimeout, log.WithField("component", "preview"))

	processor := ingestion_engine.NewProcessor(
		dbClient, objClient, embedder, groq, tracker,
		ingestion_engine.DefaultIngestConfig(cfg.JobTimeout),
		log.WithField("component", "ingestion"),
	)

	uploads := services.NewUploadService(
		objClient, processor, tracker, previews,
		cfg.BucketName, cfg.MaxUploadBytes,
		log.WithField("component", "uploads"),
	)

	server := NewServer(cfg, dbClient, uploads, embedder, groq, log)

	return &App{
		DBClient:  dbClient,
		Tracker:   tracker,
		Processor: processor,
		Server:    server,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Start launches the background machinery: the job tracker janitor and the
// ingestion worker pool. The HTTP server is started separately by main.
func (a *App) Start(ctx context.Context) {
	a.Tracker.Start(ctx, a.cfg.JobSweepEvery)
	a.Processor.Start(ctx, a.cfg.IngestWorkers)
	a.log.WithField("workers", a.cfg.IngestWorkers).Info("background processing started")
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
