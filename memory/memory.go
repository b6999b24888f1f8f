package memory

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update and Remove when the record id is absent.
var ErrNotFound = errors.New("memory: record not found")

// PersistError reports a failed flush of pending changes. A turn that hits
// one must be reported as failed, never as a silent no-op.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("memory: persist failed: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Record is one stored unit of personal-fact text plus its index identifier.
// The id is assigned by the store and stable across updates; text is the
// only field this system mutates; metadata is opaque pass-through.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Store is the vector-indexed persistence layer for records.
// Implementations: chromem (embedded, the SDK default).
//
// An empty store is a state, not an error: SimilaritySearch on it returns an
// empty slice. All mutations must be followed by Persist before the caller's
// turn is considered complete. Store implementations do not serialize
// writers; the engine does.
type Store interface {
	// Add indexes new records and returns their assigned ids, in order.
	Add(ctx context.Context, records []Record) ([]string, error)

	// SimilaritySearch returns up to k records, most similar first.
	SimilaritySearch(ctx context.Context, query string, k int) ([]Record, error)

	// Update replaces the text (and embedding) of an existing record,
	// keeping its id. Returns ErrNotFound if the id is absent.
	Update(ctx context.Context, id, newText string) error

	// Remove deletes a record permanently. Returns ErrNotFound if the id
	// is absent.
	Remove(ctx context.Context, id string) error

	// Persist durably flushes pending changes.
	Persist(ctx context.Context) error

	// Count reports the number of stored records.
	Count() int

	// Close releases resources.
	Close() error
}

// Embedder converts text to a fixed-length vector. It is an implementation
// detail of the store; nothing above the store calls it directly.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
