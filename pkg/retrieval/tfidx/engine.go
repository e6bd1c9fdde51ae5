package tfidx

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
)

// Config holds a tenant shard's per-instance configuration.
type Config struct {
	DocIDKey       string
	LangIDKey      string
	NoStemming     bool
	Distributed    bool
	ClusterTimeout time.Duration
	StopWords      map[string][]string
}

// DefaultConfig returns the configuration a new tenant shard starts with.
func DefaultConfig() Config {
	return Config{
		DocIDKey:       "docid",
		LangIDKey:      "langid",
		ClusterTimeout: 5 * time.Second,
	}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClusterQuerier wires the engine to a ClusterBus adapter so
// Query can merge peer postings and Delete/Update can broadcast misses.
func WithClusterQuerier(q ClusterQuerier) Option {
	return func(e *Engine) { e.cluster = q }
}

// WithLogger overrides the default discard logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is one tenant's local TF-IDF shard: the inverted index, the
// document store, and the configuration that governs tokenization and
// scoring. It is owned exclusively by its process for mutation; readers
// elsewhere in the cluster reach it only through ClusterQuerier.
type Engine struct {
	key tenant.Key
	cfg Config

	mu       sync.RWMutex
	docs     map[string]*TfIdfDocument // docid -> document
	iindex   map[string]*WordPosting   // word -> posting
	docWords map[string][]string       // docid -> distinct words it contributed (for delete/update)
	dirty    bool

	tok     *tokenizer.Tokenizer
	cluster ClusterQuerier
	logger  hclog.Logger
}

// New constructs an empty Engine for key, using tok to normalize ingested
// text and query strings.
func New(key tenant.Key, cfg Config, tok *tokenizer.Tokenizer, opts ...Option) *Engine {
	e := &Engine{
		key:      key,
		cfg:      cfg,
		docs:     make(map[string]*TfIdfDocument),
		iindex:   make(map[string]*WordPosting),
		docWords: make(map[string][]string),
		tok:      tok,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dirty reports whether the shard has unsaved mutations.
func (e *Engine) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// ClearDirty resets the dirty flag; called by the persistence adapter
// under the same lock that takes its snapshot.
func (e *Engine) ClearDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = false
}

// MarkDirty restores the dirty flag; called by the persistence adapter
// when a save attempt fails, so the next autosave tick retries.
func (e *Engine) MarkDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirty = true
}

// DocCount implements tokenizer.IndexSnapshot.
func (e *Engine) DocCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// DocFrequency implements tokenizer.IndexSnapshot.
func (e *Engine) DocFrequency(word string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wp, ok := e.iindex[word]
	if !ok {
		return 0
	}
	return len(wp.Docs)
}

// Vocabulary implements tokenizer.IndexSnapshot.
func (e *Engine) Vocabulary() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.iindex))
	for w := range e.iindex {
		out = append(out, w)
	}
	return out
}

// Create ingests documentText under metadata, tokenizing with lang (or
// auto-detecting it when empty). If the docid already exists locally the
// call is a no-op (idempotent re-ingest — callers delete first to
// replace). Token accounting is staged and only committed once
// tokenization succeeds in full, so a failure never leaves partial
// postings behind.
func (e *Engine) Create(ctx context.Context, documentText string, metadata map[string]string, lang string) (map[string]string, error) {
	if err := validateIngestMetadata(metadata, e.cfg.DocIDKey); err != nil {
		return nil, err
	}
	docid := metadata[e.cfg.DocIDKey]

	if e.exists(docid) {
		e.logger.Debug("create: already ingested, skipping", "docid", docid)
		return metadata, nil
	}

	result := e.tok.Tokenize(documentText, lang, e)
	metadata[e.cfg.LangIDKey] = result.Language

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.docs[docid]; exists {
		return metadata, nil
	}

	counts := make(map[string]int, len(result.Tokens))
	for _, word := range result.Tokens {
		counts[word]++
	}
	words := make([]string, 0, len(counts))
	for word, n := range counts {
		wp, ok := e.iindex[word]
		if !ok {
			wp = &WordPosting{Word: word, Docs: make(map[string]int)}
			e.iindex[word] = wp
		}
		wp.Docs[docid] = n
		words = append(words, word)
	}

	e.docs[docid] = &TfIdfDocument{
		Metadata:     metadata,
		Length:       len(result.Tokens),
		DateCreated:  time.Now(),
		DateModified: time.Now(),
	}
	e.docWords[docid] = words
	e.dirty = true
	return metadata, nil
}

func (e *Engine) exists(docid string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.docs[docid]
	return ok
}

// Delete removes metadata's docid from the doc store and every posting
// it contributed to. If the docid is not found locally and local is
// false, the delete is broadcast via the ClusterBus for peers to apply.
func (e *Engine) Delete(ctx context.Context, metadata map[string]string, local bool) error {
	docid := metadata[e.cfg.DocIDKey]

	e.mu.Lock()
	_, ok := e.docs[docid]
	if !ok {
		e.mu.Unlock()
		if !local && e.cluster != nil {
			if err := e.cluster.BroadcastDelete(ctx, e.key.String(), metadata); err != nil {
				e.logger.Warn("broadcast delete failed", "docid", docid, "error", err)
			}
		}
		return rerr.NewNotFoundError("document", docid)
	}

	for _, word := range e.docWords[docid] {
		wp, ok := e.iindex[word]
		if !ok {
			continue
		}
		delete(wp.Docs, docid)
		if len(wp.Docs) == 0 {
			delete(e.iindex, word)
		}
	}
	delete(e.docWords, docid)
	delete(e.docs, docid)
	e.dirty = true
	e.mu.Unlock()

	return nil
}

// Update rekeys a document from oldMetadata's docid to newMetadata's
// docid and rewrites its metadata and posting keys in place. It does not
// retokenize: content changes are an uningest-then-ingest, not an
// Update — Update exists for metadata-only transitions such as rename.
func (e *Engine) Update(ctx context.Context, oldMetadata, newMetadata map[string]string, local bool) error {
	oldDocID := oldMetadata[e.cfg.DocIDKey]
	newDocID := newMetadata[e.cfg.DocIDKey]

	e.mu.Lock()
	doc, ok := e.docs[oldDocID]
	if !ok {
		e.mu.Unlock()
		if !local && e.cluster != nil {
			if err := e.cluster.BroadcastUpdate(ctx, e.key.String(), oldMetadata, newMetadata); err != nil {
				e.logger.Warn("broadcast update failed", "docid", oldDocID, "error", err)
			}
		}
		return rerr.NewNotFoundError("document", oldDocID)
	}

	doc.Metadata = newMetadata
	doc.DateModified = time.Now()
	delete(e.docs, oldDocID)
	e.docs[newDocID] = doc

	words := e.docWords[oldDocID]
	delete(e.docWords, oldDocID)
	e.docWords[newDocID] = words
	for _, word := range words {
		wp, ok := e.iindex[word]
		if !ok {
			continue
		}
		count := wp.Docs[oldDocID]
		delete(wp.Docs, oldDocID)
		wp.Docs[newDocID] = count
	}
	e.dirty = true
	e.mu.Unlock()

	return nil
}
