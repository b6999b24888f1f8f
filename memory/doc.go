// Package memory provides the vector-indexed store for personal-memory
// records.
//
// Architecture:
//   - Store: vector storage backend (chromem-go for the local SDK)
//   - Embedder: text-to-vector conversion (Ollama or ONNX locally, mock in
//     tests), optionally wrapped by the ristretto cache decorator
//   - Chunker: splits ingested documents into overlapping chunks, each of
//     which becomes its own record
//
// Records are created on save (one per chunk), read on retrieval, and
// replaced in place or removed on update/delete. The store owns all
// records; callers never cache them across turns. Durability is explicit:
// a mutation is only complete once Persist has flushed it.
package memory
