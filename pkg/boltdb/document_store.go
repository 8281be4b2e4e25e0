package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fabula/storage"

	bolt "go.etcd.io/bbolt"
)

// DocumentStore persists Document records keyed by id.
type DocumentStore struct {
	db *bolt.DB
}

func NewDocumentStore(c *Client) *DocumentStore {
	return &DocumentStore{db: c.db}
}

func (s *DocumentStore) Create(ctx context.Context, doc *storage.Document) error {
	return s.put(doc)
}

func (s *DocumentStore) Update(ctx context.Context, doc *storage.Document) error {
	return s.put(doc)
}

func (s *DocumentStore) put(doc *storage.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(doc.ID), data)
	})
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*storage.Document, error) {
	var doc storage.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(documentsBucket).Get([]byte(id))
		if v == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(v, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ChunkStore persists ContentChunk records keyed by (document id,
// chunk index). Keys are "docID/%08d" so a prefix scan yields a document's
// chunks in index order.
type ChunkStore struct {
	db *bolt.DB
}

func NewChunkStore(c *Client) *ChunkStore {
	return &ChunkStore{db: c.db}
}

func chunkKey(documentID string, chunkIndex int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", documentID, chunkIndex))
}

// PutChunks writes the whole set in a single transaction: either every
// chunk of the batch is durable or none is.
func (s *ChunkStore) PutChunks(ctx context.Context, documentID string, chunks []*storage.ContentChunk) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		for _, chunk := range chunks {
			data, err := json.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("failed to encode chunk %d: %w", chunk.ChunkIndex, err)
			}
			if err := b.Put(chunkKey(documentID, chunk.ChunkIndex), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ChunkStore) ListByDocument(ctx context.Context, documentID string) ([]*storage.ContentChunk, error) {
	var chunks []*storage.ContentChunk
	prefix := []byte(documentID + "/")

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(chunksBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var chunk storage.ContentChunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return fmt.Errorf("failed to decode chunk %s: %w", k, err)
			}
			chunks = append(chunks, &chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *ChunkStore) Get(ctx context.Context, documentID string, chunkIndex int) (*storage.ContentChunk, error) {
	var chunk storage.ContentChunk
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chunksBucket).Get(chunkKey(documentID, chunkIndex))
		if v == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(v, &chunk)
	})
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

var (
	_ storage.DocumentRepository = (*DocumentStore)(nil)
	_ storage.ChunkRepository    = (*ChunkStore)(nil)
)
