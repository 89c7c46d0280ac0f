package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/SomaanRauniyar/datainsight-pro/internal/api/handlers"
	appMiddleware "github.com/SomaanRauniyar/datainsight-pro/internal/api/middlewares"
	"github.com/SomaanRauniyar/datainsight-pro/internal/config"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
	"github.com/SomaanRauniyar/datainsight-pro/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logrus.Entry
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, uploads *services.UploadService, emb core.EmbeddingProvider, llm core.LLMProvider, log *logrus.Entry) *Server {
	authHandler := handlers.NewAuthHandler(db, cfg.JwtSecret, log.WithField("handler", "auth"))
	uploadHandler := handlers.NewUploadHandler(uploads, cfg.MaxUploadBytes, log.WithField("handler", "upload"))
	queryHandler := handlers.NewQueryHandler(db, emb, llm, log.WithField("handler", "query"))
	briefingHandler := handlers.NewBriefingHandler(db, log.WithField("handler", "briefing"))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JwtSecret))
			protected.Post("/upload/quick", uploadHandler.QuickUpload)
			protected.Get("/upload/status/{job_id}", uploadHandler.Status)
			protected.Post("/upload", uploadHandler.Upload)
			protected.Post("/query", queryHandler.Query)
			protected.Get("/uploads", briefingHandler.ListUploads)
			protected.Get("/briefings", briefingHandler.ListBriefings)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
