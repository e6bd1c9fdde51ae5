// Package hybrid binds the TF-IDF and vector engines: the keyword engine
// picks candidate documents; only vectors belonging to those documents
// are then ranked semantically. Generalized from an independent-
// weighted-blend hybrid search into a "TF-IDF gates the candidate set"
// pipeline.
package hybrid

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

// Shard pairs one appId's TF-IDF and vector engines, as resolved by the
// caller from (userId, org, appId).
type Shard struct {
	AppID  string
	TFIDF  *tfidx.Engine
	Vector *vectorindex.Engine
}

// Options configures one hybrid Search call.
type Options struct {
	TopKTFIDF          int
	CutoffScoreTFIDF   float64
	Autocorrect        bool
	TFIDFAdjustment    tfidx.LengthAdjustment
	IgnoreCoord        bool
	MaxCoordBoost      float64
	NoIDF              bool
	TopKVectors        int
	MinDistanceVectors float64
	Lang               string
	// Resort, if set, overrides the default descending-similarity sort
	// applied before slicing to TopKVectors.
	Resort func([]ScoredResult) []ScoredResult
}

// ScoredResult is one hybrid hit: the vector similarity plus the
// TF-IDF scoring fields re-infused from the candidate document it
// belongs to.
type ScoredResult struct {
	DocID      string
	Text       string
	Metadata   map[string]string
	Similarity float64
	tfidx.ScoredDoc
}

// Orchestrator runs the two-stage search across one or more shards.
type Orchestrator struct {
	embed  vectorindex.Embedder
	logger hclog.Logger
}

func New(embed vectorindex.Embedder, logger hclog.Logger) *Orchestrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Orchestrator{embed: embed, logger: logger}
}

// Search runs the keyword-gate-then-semantic-rank pipeline across
// shards; resolving appIds to Shard pairs is the caller's responsibility.
func (o *Orchestrator) Search(ctx context.Context, shards []Shard, query string, opts Options) ([]ScoredResult, error) {
	candidatesByDoc := make(map[string]tfidx.ScoredDoc)
	for _, shard := range shards {
		docs, err := shard.TFIDF.Query(ctx, query, tfidx.QueryOptions{
			TopK:          opts.TopKTFIDF,
			CutoffScore:   opts.CutoffScoreTFIDF,
			Adjustment:    opts.TFIDFAdjustment,
			IgnoreCoord:   opts.IgnoreCoord,
			MaxCoordBoost: opts.MaxCoordBoost,
			NoIDF:         opts.NoIDF,
			Lang:          opts.Lang,
			Autocorrect:   opts.Autocorrect,
		})
		if err != nil {
			o.logger.Warn("tfidf query failed for shard, skipping", "app_id", shard.AppID, "error", err)
			continue
		}
		for _, doc := range docs {
			docid := doc.Metadata["docid"]
			if existing, ok := candidatesByDoc[docid]; !ok || doc.Score > existing.Score {
				candidatesByDoc[docid] = doc
			}
		}
	}

	candidates := make([]tfidx.ScoredDoc, 0, len(candidatesByDoc))
	for _, doc := range candidatesByDoc {
		candidates = append(candidates, doc)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].TFScore > candidates[j].TFScore })
	if opts.TopKTFIDF > 0 && len(candidates) > opts.TopKTFIDF {
		candidates = candidates[:opts.TopKTFIDF]
	}

	candidateSet := make(map[string]struct{}, len(candidates))
	for _, doc := range candidates {
		candidateSet[doc.Metadata["docid"]] = struct{}{}
	}

	if o.embed == nil {
		return nil, rerr.NewValidationError("embed", "no embedder configured")
	}
	queryVector, err := o.embed.Embed(ctx, query)
	if err != nil {
		return nil, rerr.NewEmbeddingError(err)
	}
	if queryVector == nil {
		return nil, rerr.NewEmbeddingError(fmt.Errorf("embedder returned nil vector for query"))
	}

	var merged []ScoredResult
	for _, shard := range shards {
		hits, err := shard.Vector.Query(ctx, queryVector, vectorindex.QueryOptions{
			TopK:        opts.TopKVectors,
			MinDistance: opts.MinDistanceVectors,
			WithText:    true,
			FilterFn: func(metadata map[string]string) bool {
				_, ok := candidateSet[metadata["docid"]]
				return ok
			},
		})
		if err != nil {
			o.logger.Warn("vector query failed for shard, skipping", "app_id", shard.AppID, "error", err)
			continue
		}
		for _, hit := range hits {
			docid := hit.Metadata["docid"]
			result := ScoredResult{
				DocID:      docid,
				Text:       hit.Text,
				Metadata:   hit.Metadata,
				Similarity: hit.Similarity,
			}
			if doc, ok := candidatesByDoc[docid]; ok {
				result.ScoredDoc = doc
			}
			merged = append(merged, result)
		}
	}

	if opts.Resort != nil {
		merged = opts.Resort(merged)
	} else {
		sort.Slice(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })
	}

	if opts.TopKVectors > 0 && len(merged) > opts.TopKVectors {
		merged = merged[:opts.TopKVectors]
	}
	return merged, nil
}
