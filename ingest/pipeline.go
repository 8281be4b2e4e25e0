package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fabula/chunking"
	"fabula/extractor"
	"fabula/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyProcessing is returned when a processing attempt is
	// already in flight for the document.
	ErrAlreadyProcessing = errors.New("document is already being processed")

	// ErrInvalidStatus is returned when the document is not in a
	// processable status. Pending documents are processable; failed ones
	// too, so an external resubmission can retry without recreating the
	// record. Completed documents are never reprocessed.
	ErrInvalidStatus = errors.New("document is not in a processable status")
)

// Pipeline drives one document through extraction and chunking, owning
// every status transition on the way. Processing is synchronous and
// single-attempt: no internal retries, no partial resumption.
type Pipeline struct {
	extractor extractor.PageExtractor
	chunker   *chunking.Chunker
	docs      storage.DocumentRepository
	chunks    storage.ChunkRepository
	locks     *lockRegistry
	logger    *zap.Logger
}

func NewPipeline(
	ext extractor.PageExtractor,
	chunker *chunking.Chunker,
	docs storage.DocumentRepository,
	chunks storage.ChunkRepository,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: ext,
		chunker:   chunker,
		docs:      docs,
		chunks:    chunks,
		locks:     newLockRegistry(),
		logger:    logger,
	}
}

// ProcessDocument runs the ingestion state machine for one document:
// pending|failed -> processing -> completed|failed. The processing status
// is persisted before any expensive work so concurrent observers never see
// a stale pending. On failure the document is marked failed and the cause
// is returned to the caller; chunks persisted before the failure are
// retained as a lower bound.
func (p *Pipeline) ProcessDocument(ctx context.Context, documentID string) error {
	if !p.locks.acquire(documentID) {
		return ErrAlreadyProcessing
	}
	defer p.locks.release(documentID)

	doc, err := p.docs.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	switch doc.Status {
	case storage.StatusPending, storage.StatusFailed:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, doc.Status)
	}

	doc.Status = storage.StatusProcessing
	if err := p.docs.Update(ctx, doc); err != nil {
		return fmt.Errorf("mark document processing: %w", err)
	}

	ext, err := p.extractor.ExtractPages(doc.FilePath)
	if err != nil {
		return p.fail(ctx, doc, fmt.Errorf("extract pages: %w", err))
	}

	doc.Pages = ext.PageCount
	if err := p.docs.Update(ctx, doc); err != nil {
		return p.fail(ctx, doc, fmt.Errorf("persist page count: %w", err))
	}

	chunks := p.chunker.ChunkPages(ext.Pages)
	records := make([]*storage.ContentChunk, len(chunks))
	now := time.Now()
	for i, ch := range chunks {
		records[i] = &storage.ContentChunk{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			ChunkIndex:  ch.Index,
			ContentType: storage.ContentTypeText,
			Content:     ch.Content,
			ReadingTime: ch.ReadingTime,
			Metadata: map[string]any{
				"page_number": ch.PageNumber,
				"word_count":  ch.WordCount,
				"char_count":  ch.CharCount,
			},
			CreatedAt: now,
		}
	}

	if err := p.chunks.PutChunks(ctx, doc.ID, records); err != nil {
		return p.fail(ctx, doc, fmt.Errorf("persist chunks: %w", err))
	}

	// Reload before completing so concurrent metadata updates made while
	// extraction ran are not overwritten.
	fresh, err := p.docs.Get(ctx, doc.ID)
	if err != nil {
		return p.fail(ctx, doc, fmt.Errorf("reload document: %w", err))
	}

	processedAt := time.Now()
	fresh.Status = storage.StatusCompleted
	fresh.ProcessedAt = &processedAt
	if err := p.docs.Update(ctx, fresh); err != nil {
		return p.fail(ctx, doc, fmt.Errorf("mark document completed: %w", err))
	}

	p.logger.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.Int("pages", ext.PageCount),
		zap.Int("chunks", len(records)))

	return nil
}

// fail flips the document to failed and propagates the cause. A store
// failure while recording the status is logged, not returned; the original
// cause is what the caller needs to see.
func (p *Pipeline) fail(ctx context.Context, doc *storage.Document, cause error) error {
	doc.Status = storage.StatusFailed
	if err := p.docs.Update(ctx, doc); err != nil {
		p.logger.Error("failed to mark document failed",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	}

	p.logger.Error("document processing failed",
		zap.String("document_id", doc.ID),
		zap.Error(cause))

	return cause
}
