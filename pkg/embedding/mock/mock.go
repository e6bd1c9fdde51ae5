// Package mock implements a deterministic vectorindex.Embedder for tests
// and local development: the same text always maps to the same vector,
// without calling any external API.
package mock

import (
	"context"
	"hash/fnv"
)

// Embedder produces a fixed-dimension vector deterministically derived
// from the input text's hash, so ingest/query tests are repeatable
// without a real embedding model.
type Embedder struct {
	dimensions int
	simulateErrors bool
}

func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 32
	}
	return &Embedder{dimensions: dimensions}
}

// WithSimulateErrors makes Embed always return a nil vector, for
// exercising the caller's embedding-failure rollback path.
func (e *Embedder) WithSimulateErrors(enable bool) *Embedder {
	e.simulateErrors = enable
	return e
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.simulateErrors {
		return nil, nil
	}
	vec := make([]float64, e.dimensions)
	h := fnv.New64a()
	for i := 0; i < e.dimensions; i++ {
		h.Reset()
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		sum := h.Sum64()
		// Map into [-1, 1] so cosine similarity behaves sensibly.
		vec[i] = float64(sum%2000)/1000.0 - 1.0
	}
	return vec, nil
}
