package vectorindex

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithTextStore(store TextStore) Option {
	return func(e *Engine) { e.store = store }
}

func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is one tenant's flat, exhaustive vector index.
type Engine struct {
	key tenant.Key

	mu    sync.RWMutex
	index map[string]*VectorEntry // hash -> entry
	dim   int                     // vector dimension, fixed after the first entry
	dirty bool

	store  TextStore
	logger hclog.Logger
}

func New(key tenant.Key, opts ...Option) *Engine {
	e := &Engine{
		key:    key,
		index:  make(map[string]*VectorEntry),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

func (e *Engine) ClearDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = false
}

func (e *Engine) MarkDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = true
}

func hashVector(vector []float64) string {
	h := sha1.New()
	for _, v := range vector {
		fmt.Fprintf(h, "%x", math.Float64bits(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func euclideanLength(vector []float64) float64 {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Create adds vector (or the result of embedding text when vector is
// nil) under metadata. If an entry with the same hash already exists the
// call is a no-op. The text shard is persisted before the in-memory
// entry is added; on failure nothing is added.
func (e *Engine) Create(ctx context.Context, vector []float64, metadata map[string]string, text string, embed Embedder) (string, error) {
	if vector == nil {
		if embed == nil {
			return "", rerr.NewValidationError("vector", "no vector supplied and no embedder configured")
		}
		embedded, err := embed.Embed(ctx, text)
		if err != nil {
			return "", rerr.NewEmbeddingError(err)
		}
		if embedded == nil {
			return "", rerr.NewEmbeddingError(fmt.Errorf("embedder returned nil vector"))
		}
		vector = embedded
	}
	if len(vector) == 0 {
		return "", rerr.NewValidationError("vector", "empty vector")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dim == 0 {
		e.dim = len(vector)
	} else if len(vector) != e.dim {
		return "", rerr.NewValidationError("vector", fmt.Sprintf("dimension mismatch: tenant uses %d, got %d", e.dim, len(vector)))
	}

	hash := hashVector(vector)
	if _, exists := e.index[hash]; exists {
		return hash, nil
	}

	if e.store != nil {
		if err := e.store.WriteText(ctx, hash, text); err != nil {
			return "", rerr.NewIOError("write", hash, err)
		}
	}

	e.index[hash] = &VectorEntry{
		Vector:   vector,
		Hash:     hash,
		Metadata: metadata,
		Length:   euclideanLength(vector),
	}
	e.dirty = true
	return hash, nil
}

// Read looks up an entry by its exact hash.
func (e *Engine) Read(ctx context.Context, hash string, withText bool) (*VectorEntry, string, error) {
	e.mu.RLock()
	entry, ok := e.index[hash]
	e.mu.RUnlock()
	if !ok {
		return nil, "", rerr.NewNotFoundError("vector", hash)
	}
	if !withText || e.store == nil {
		return entry, "", nil
	}
	text, err := e.store.ReadText(ctx, hash)
	if err != nil {
		return entry, "", rerr.NewIOError("read", hash, err)
	}
	return entry, text, nil
}

// Delete removes the entry and its text shard.
func (e *Engine) Delete(ctx context.Context, hash string) error {
	e.mu.Lock()
	_, ok := e.index[hash]
	if !ok {
		e.mu.Unlock()
		return rerr.NewNotFoundError("vector", hash)
	}
	delete(e.index, hash)
	e.dirty = true
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.DeleteText(ctx, hash); err != nil {
			return rerr.NewIOError("delete", hash, err)
		}
	}
	return nil
}

// Update replaces the entry at hash with newMetadata/newText, optionally
// re-embedding newText into a new vector. On any failure — including the
// embedder returning nil — the original entry is restored untouched.
func (e *Engine) Update(ctx context.Context, hash string, newMetadata map[string]string, newText string, embed Embedder) (string, error) {
	e.mu.Lock()
	old, ok := e.index[hash]
	if !ok {
		e.mu.Unlock()
		return "", rerr.NewNotFoundError("vector", hash)
	}
	snapshot := *old
	e.mu.Unlock()

	newVector := snapshot.Vector
	if embed != nil {
		embedded, err := embed.Embed(ctx, newText)
		if err != nil {
			return "", rerr.NewEmbeddingError(err)
		}
		if embedded == nil {
			return "", rerr.NewEmbeddingError(fmt.Errorf("embedder returned nil vector"))
		}
		newVector = embedded
	}
	newHash := hashVector(newVector)

	if e.store != nil {
		if err := e.store.WriteText(ctx, newHash, newText); err != nil {
			return "", rerr.NewIOError("write", newHash, err)
		}
	}

	e.mu.Lock()
	e.index[newHash] = &VectorEntry{
		Vector:   newVector,
		Hash:     newHash,
		Metadata: newMetadata,
		Length:   euclideanLength(newVector),
	}
	if newHash != hash {
		delete(e.index, hash)
	}
	e.dirty = true
	e.mu.Unlock()

	if newHash != hash && e.store != nil {
		if err := e.store.DeleteText(ctx, hash); err != nil {
			e.logger.Warn("failed to remove superseded text shard", "hash", hash, "error", err)
		}
	}
	return newHash, nil
}

// cosineSimilarity computes v1·v2 / (len1×len2) using precomputed
// lengths. Dimension mismatch is fatal.
func cosineSimilarity(v1, v2 []float64, len1, len2 float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, rerr.NewValidationError("vector", "dimension mismatch")
	}
	if len1 == 0 || len2 == 0 {
		return 0, nil
	}
	var dot float64
	for i := range v1 {
		dot += v1[i] * v2[i]
	}
	return dot / (len1 * len2), nil
}
