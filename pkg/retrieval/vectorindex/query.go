package vectorindex

import (
	"context"
	"sort"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// Query runs a six-step scoring pipeline: pre-filter (unless deferred),
// score every remaining entry, sort descending, drop below MinDistance,
// post-filter if deferred, optionally attach text.
func (e *Engine) Query(ctx context.Context, target []float64, opts QueryOptions) ([]Result, error) {
	targetLen := euclideanLength(target)

	e.mu.RLock()
	entries := make([]*VectorEntry, 0, len(e.index))
	for _, entry := range e.index {
		if !opts.FilterAfter && opts.FilterFn != nil && !opts.FilterFn(entry.Metadata) {
			continue
		}
		entries = append(entries, entry)
	}
	e.mu.RUnlock()

	score := func(entry *VectorEntry) (Result, bool) {
		sim, err := cosineSimilarity(target, entry.Vector, targetLen, entry.Length)
		if err != nil {
			return Result{}, false
		}
		return Result{Hash: entry.Hash, Metadata: entry.Metadata, Similarity: sim}, true
	}

	var results []Result
	if opts.Multithreaded {
		results = ParallelProcess(entries, 0, score)
	} else {
		for _, entry := range entries {
			if r, ok := score(entry); ok {
				results = append(results, r)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })

	filtered := results[:0]
	for _, r := range results {
		if r.Similarity < opts.MinDistance {
			continue
		}
		if opts.FilterAfter && opts.FilterFn != nil && !opts.FilterFn(r.Metadata) {
			continue
		}
		filtered = append(filtered, r)
	}
	results = filtered

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	if opts.WithText && e.store != nil {
		for i := range results {
			text, err := e.store.ReadText(ctx, results[i].Hash)
			if err != nil {
				return nil, rerr.NewIOError("read", results[i].Hash, err)
			}
			results[i].Text = text
		}
	}

	return results, nil
}

// FindByMetadata lists every entry's hash and metadata matching filterFn,
// without scoring against a query vector. Callers handling file deletion
// or rename use this to locate affected vectors by metadata.fullpath
// rather than by similarity.
func (e *Engine) FindByMetadata(filterFn func(metadata map[string]string) bool) []VectorEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []VectorEntry
	for _, entry := range e.index {
		if filterFn == nil || filterFn(entry.Metadata) {
			out = append(out, *entry)
		}
	}
	return out
}
