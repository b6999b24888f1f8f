// Package chromem implements the record store on chromem-go, a pure Go
// embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"log"
	"os"

	chromemgo "github.com/philippgille/chromem-go"
	"github.com/google/uuid"

	"github.com/becomeliminal/recall-go-sdk/memory"
)

// DefaultCollection is the collection name for personal-memory records.
const DefaultCollection = "personal_memory"

// Config configures the store.
type Config struct {
	// Path is the snapshot file Persist writes and New restores from.
	// Empty means ephemeral: the store lives and dies with the process.
	Path string

	// Collection overrides DefaultCollection.
	Collection string

	// Compress gzips the snapshot.
	Compress bool
}

// Store wraps a chromem-go collection. The engine owns write serialization;
// the store itself assumes a single writer.
type Store struct {
	db       *chromemgo.DB
	col      *chromemgo.Collection
	embedder memory.Embedder
	path     string
	compress bool
}

// New opens the store, restoring the snapshot at cfg.Path when one exists.
// A missing snapshot is the explicit empty-store state, not an error.
func New(cfg Config, embedder memory.Embedder) (*Store, error) {
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}

	db := chromemgo.NewDB()

	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err == nil {
			if err := db.ImportFromFile(cfg.Path, ""); err != nil {
				return nil, fmt.Errorf("restore store from %s: %w", cfg.Path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat store snapshot: %w", err)
		}
	}

	// Embeddings are always supplied by us, so no embedding func is wired.
	col, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	s := &Store{
		db:       db,
		col:      col,
		embedder: embedder,
		path:     cfg.Path,
		compress: cfg.Compress,
	}

	if n := s.Count(); n > 0 {
		log.Printf("[CHROMEM] Restored %d records from %s", n, cfg.Path)
	} else {
		log.Printf("[CHROMEM] Starting with empty store")
	}
	return s, nil
}

// Add embeds and indexes new records, assigning each a fresh id.
func (s *Store) Add(ctx context.Context, records []memory.Record) ([]string, error) {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		embedding, err := s.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return ids, fmt.Errorf("embed record: %w", err)
		}

		id := uuid.NewString()
		doc := chromemgo.Document{
			ID:        id,
			Content:   rec.Text,
			Embedding: embedding,
			Metadata:  cloneMetadata(rec.Metadata),
		}
		if err := s.col.AddDocument(ctx, doc); err != nil {
			return ids, fmt.Errorf("add document: %w", err)
		}
		ids = append(ids, id)
	}

	log.Printf("[CHROMEM] Added %d records", len(ids))
	return ids, nil
}

// SimilaritySearch returns up to k records, most similar first. An empty
// store yields an empty result, never an error.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]memory.Record, error) {
	count := s.Count()
	if count == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}
	if k > count {
		// chromem rejects nResults larger than the collection
		k = count
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	records := make([]memory.Record, 0, len(results))
	for _, res := range results {
		records = append(records, memory.Record{
			ID:       res.ID,
			Text:     res.Content,
			Metadata: res.Metadata,
		})
	}
	return records, nil
}

// Update re-embeds and replaces the text of an existing record in place.
// The record keeps its id and metadata.
func (s *Store) Update(ctx context.Context, id, newText string) error {
	doc, err := s.col.GetByID(ctx, id)
	if err != nil {
		return memory.ErrNotFound
	}

	embedding, err := s.embedder.Embed(ctx, newText)
	if err != nil {
		return fmt.Errorf("embed updated record: %w", err)
	}

	// chromem has no in-place update; replace under the same id.
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("replace record %s: %w", id, err)
	}
	if err := s.col.AddDocument(ctx, chromemgo.Document{
		ID:        id,
		Content:   newText,
		Embedding: embedding,
		Metadata:  doc.Metadata,
	}); err != nil {
		return fmt.Errorf("replace record %s: %w", id, err)
	}

	log.Printf("[CHROMEM] Updated record %s", id)
	return nil
}

// Remove deletes a record permanently.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.col.GetByID(ctx, id); err != nil {
		return memory.ErrNotFound
	}
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	log.Printf("[CHROMEM] Removed record %s", id)
	return nil
}

// Persist writes the snapshot file. Ephemeral stores (no path) persist
// nothing and report success.
func (s *Store) Persist(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	if err := s.db.ExportToFile(s.path, s.compress, ""); err != nil {
		return &memory.PersistError{Err: err}
	}
	log.Printf("[CHROMEM] Persisted %d records to %s", s.Count(), s.path)
	return nil
}

// Count reports the number of stored records.
func (s *Store) Count() int {
	return s.col.Count()
}

// Close releases resources. chromem keeps everything in process memory, so
// there is nothing to tear down.
func (s *Store) Close() error {
	return nil
}

func cloneMetadata(md map[string]string) map[string]string {
	if len(md) == 0 {
		return nil
	}
	clone := make(map[string]string, len(md))
	for k, v := range md {
		clone[k] = v
	}
	return clone
}
