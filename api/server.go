package api

import (
	"context"
	"fmt"
	"net/http"

	"fabula/narrative"
	"fabula/storage"

	"go.uber.org/zap"
)

// Processor runs the ingestion pipeline for one document.
type Processor interface {
	ProcessDocument(ctx context.Context, documentID string) error
}

// Storyteller rewrites a chunk's text for a reader's interests. The call is
// total: it always yields a story.
type Storyteller interface {
	Transform(ctx context.Context, text string, interests []string) narrative.Story
}

// Server is the caller-facing glue around the pipeline: upload, read, and
// per-chunk story endpoints.
type Server struct {
	docs        storage.DocumentRepository
	chunks      storage.ChunkRepository
	pipeline    Processor
	storyteller Storyteller
	dataDir     string
	port        int
	logger      *zap.Logger
}

func NewServer(
	docs storage.DocumentRepository,
	chunks storage.ChunkRepository,
	pipeline Processor,
	storyteller Storyteller,
	dataDir string,
	port int,
	logger *zap.Logger,
) *Server {
	return &Server{
		docs:        docs,
		chunks:      chunks,
		pipeline:    pipeline,
		storyteller: storyteller,
		dataDir:     dataDir,
		port:        port,
		logger:      logger,
	}
}

// Handler builds the route table. Split from Start so tests can drive the
// mux directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/documents", s.UploadDocument)
	mux.HandleFunc("GET /api/documents/{id}", s.GetDocument)
	mux.HandleFunc("GET /api/documents/{id}/chunks", s.ListChunks)
	mux.HandleFunc("POST /api/documents/{id}/chunks/{index}/story", s.ChunkStory)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.Int("port", s.port))
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), s.Handler())
}
