// Package vectorindex implements the flat, exhaustive cosine-similarity
// vector engine: CRUD over embedding vectors, chunked streaming ingest
// with overlap, and worker-pool parallel query.
package vectorindex

import "context"

// VectorEntry is one embedded chunk. Length is the precomputed Euclidean
// norm of Vector, used to accelerate cosine similarity at query time; it
// is invariant for the entry's lifetime.
type VectorEntry struct {
	Vector   []float64         `json:"vector"`
	Hash     string            `json:"hash"`
	Metadata map[string]string `json:"metadata"`
	Length   float64           `json:"length"`
}

// Embedder maps a text string to a fixed-dimension real vector. Returning
// a nil vector with a nil error is treated identically to returning an
// error: the caller must be able to detect embedding failure either way.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// TextStore persists the text shard addressed by each VectorEntry's
// hash. The in-memory index and the text shard are written and removed
// together, never one without the other.
type TextStore interface {
	WriteText(ctx context.Context, hash, text string) error
	ReadText(ctx context.Context, hash string) (string, error)
	DeleteText(ctx context.Context, hash string) error
}

// Result is one scored entry from Query.
type Result struct {
	Hash       string
	Metadata   map[string]string
	Similarity float64
	Text       string // populated only when QueryOptions.WithText is set
}

// QueryOptions configures one Query call.
type QueryOptions struct {
	TopK          int
	MinDistance   float64
	FilterFn      func(metadata map[string]string) bool
	FilterAfter   bool // defer FilterFn until after scoring
	WithText      bool
	Multithreaded bool
}
