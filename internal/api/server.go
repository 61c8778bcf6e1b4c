package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/specchunk/internal/config"
	"github.com/dgallion1/specchunk/internal/pipeline"
	"github.com/dgallion1/specchunk/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Catalog is the read and delete side of the document store.
type Catalog interface {
	GetDocument(ctx context.Context, docID string) (*store.Document, error)
	ListDocuments(ctx context.Context, activeOnly bool) ([]store.Document, error)
	Chunks(ctx context.Context, docID string) ([]store.StoredChunk, error)
	DeleteDocument(ctx context.Context, docID string) error
	Stats(ctx context.Context) (store.Stats, error)
}

// ExportRemover drops a document's exported copy.
type ExportRemover interface {
	DeleteDocument(ctx context.Context, docID string) error
}

// Server is the HTTP API server for specchunk.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	catalog      Catalog
	exports      ExportRemover
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. exports may be nil.
func NewServer(orch *pipeline.Orchestrator, catalog Catalog, exports ExportRemover, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		catalog:      catalog,
		exports:      exports,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/chunks", s.handleListChunks)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
