package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document or chunk does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Status is the processing state of a Document. Exactly one holds at a time.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is an uploaded file tracked through the ingestion pipeline.
// Pages and ProcessedAt are only meaningful once processing has started;
// ProcessedAt is set exactly once, on the transition into completed.
type Document struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Title            string     `json:"title"`
	OriginalFilename string     `json:"original_filename"`
	FilePath         string     `json:"file_path"`
	FileSize         int64      `json:"file_size"`
	Status           Status     `json:"status"`
	Pages            int        `json:"pages"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ContentType classifies what a chunk holds. Only text is produced today;
// image and table extractors would add their own values.
type ContentType string

const ContentTypeText ContentType = "text"

// ContentChunk is one addressable reading unit of a document. ChunkIndex is
// dense and document-global, assigned once at creation; it defines reading
// order and is never reassigned.
type ContentChunk struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	ChunkIndex  int            `json:"chunk_index"`
	ContentType ContentType    `json:"content_type"`
	Content     string         `json:"content"`
	ReadingTime int            `json:"reading_time"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
}

// ChunkRepository persists a document's chunks. A failed document may retain
// the chunks stored before the failure; that set is a lower bound, not a
// complete one. Completeness is only implied by the document being completed.
type ChunkRepository interface {
	PutChunks(ctx context.Context, documentID string, chunks []*ContentChunk) error
	ListByDocument(ctx context.Context, documentID string) ([]*ContentChunk, error)
	Get(ctx context.Context, documentID string, chunkIndex int) (*ContentChunk, error)
}
