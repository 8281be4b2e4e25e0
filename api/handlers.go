package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fabula/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadBytes caps uploaded files at 50 MiB. Larger files are rejected
// here, before the pipeline ever sees them.
const MaxUploadBytes = 50 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type storyRequest struct {
	Interests []string `json:"interests"`
	// Accepted for API compatibility; prompt construction does not use it.
	ReadingLevel string `json:"reading_level"`
}

type storyResponse struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Story      string `json:"story"`
	Source     string `json:"source"`
}

// UploadDocument accepts a multipart PDF upload, stores the file, creates
// the pending document, and processes it synchronously. A processing
// failure leaves the document failed and surfaces as a 500.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+4096)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if err := validateUpload(header.Filename, header.Size); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	docID := uuid.NewString()
	path := filepath.Join(s.dataDir, docID+".pdf")
	if err := s.saveFile(file, path); err != nil {
		s.logger.Error("failed to store uploaded file", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	doc := &storage.Document{
		ID:               docID,
		UserID:           r.Header.Get("X-User-ID"),
		Title:            title,
		OriginalFilename: header.Filename,
		FilePath:         path,
		FileSize:         header.Size,
		Status:           storage.StatusPending,
		CreatedAt:        time.Now(),
	}
	if err := s.docs.Create(r.Context(), doc); err != nil {
		s.logger.Error("failed to create document", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create document")
		return
	}

	if err := s.pipeline.ProcessDocument(r.Context(), docID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to process PDF")
		return
	}

	processed, err := s.docs.Get(r.Context(), docID)
	if err != nil {
		s.logger.Error("failed to reload document", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	s.writeJSON(w, http.StatusCreated, processed)
}

func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("failed to load document", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) ListChunks(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	if _, err := s.docs.Get(r.Context(), documentID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("failed to load document", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	chunks, err := s.chunks.ListByDocument(r.Context(), documentID)
	if err != nil {
		s.logger.Error("failed to list chunks", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list chunks")
		return
	}
	if chunks == nil {
		chunks = []*storage.ContentChunk{}
	}

	s.writeJSON(w, http.StatusOK, chunks)
}

// ChunkStory transforms one chunk into reader-facing prose. The transformer
// is total, so this endpoint only fails when the chunk itself is missing.
func (s *Server) ChunkStory(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid chunk index")
		return
	}

	var req storyRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	chunk, err := s.chunks.Get(r.Context(), documentID, index)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "chunk not found")
			return
		}
		s.logger.Error("failed to load chunk", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load chunk")
		return
	}

	story := s.storyteller.Transform(r.Context(), chunk.Content, req.Interests)

	s.writeJSON(w, http.StatusOK, storyResponse{
		DocumentID: documentID,
		ChunkIndex: index,
		Story:      story.Text,
		Source:     string(story.Source),
	})
}

func validateUpload(filename string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return errors.New("only PDF files are allowed")
	}
	if size > MaxUploadBytes {
		return fmt.Errorf("file size must be under %d bytes", int64(MaxUploadBytes))
	}
	return nil
}

func (s *Server) saveFile(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
