package tfidx

import (
	"context"
	"math"
	"sort"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// Query runs the ten-step TF-IDF/BM25 scoring pipeline: tokenize,
// merge postings, count candidate docs, score, penalize short docs,
// boost term coordination, cut off low scorers, and sort.
func (e *Engine) Query(ctx context.Context, query string, opts QueryOptions) ([]ScoredDoc, error) {
	result := e.tok.Tokenize(query, opts.Lang, e)
	words := result.Tokens
	if opts.Autocorrect {
		// spell-correction is folded into Tokenize via the tokenizer's
		// own WithSpellCorrect option; nothing further to do here.
	}
	totalQueryTokens := len(words)
	if totalQueryTokens == 0 {
		return nil, nil
	}

	local := e.localPostings(words)
	peer, peerErr := e.peerPostings(ctx, words)
	if peerErr != nil {
		e.logger.Warn("cluster postings query failed, continuing local-only", "error", peerErr)
	}

	merged := mergePostings(local, peer.Postings)
	distinctDocs := e.distinctDocIDCount(peer.AllDocs)
	df := documentFrequencies(merged)
	candidates := candidateDocIDs(merged)

	e.mu.RLock()
	avgLen := e.averageLocalLength()
	scored := make([]ScoredDoc, 0, len(candidates))
	for docid := range candidates {
		doc, ok := e.docs[docid]
		if !ok {
			continue // no local record to score or return metadata for
		}
		if !opts.FilterLast && opts.FilterFn != nil && !opts.FilterFn(doc.Metadata) {
			continue
		}

		var score float64
		found := 0
		for _, word := range words {
			count, ok := merged[word][docid]
			if !ok || count == 0 {
				continue
			}
			found++
			tfRaw := float64(count) / float64(doc.Length)
			tf := tfRaw * lengthAdjustment(opts.Adjustment, avgLen, doc.Length)
			idf := 1.0
			if !opts.NoIDF {
				idf = 1 + math.Log10(float64(distinctDocs)/(float64(df[word])+1))
			}
			score += tf * idf
		}
		if found == 0 {
			continue
		}

		tfScore := score
		coordScore := 1.0
		if !opts.IgnoreCoord {
			boost := opts.MaxCoordBoost
			if boost == 0 {
				boost = defaultMaxCoordBoost
			}
			coordScore = 1 + boost*(float64(found)/float64(totalQueryTokens))
		}
		score *= coordScore

		if opts.FilterLast && opts.FilterFn != nil && !opts.FilterFn(doc.Metadata) {
			continue
		}

		scored = append(scored, ScoredDoc{
			Metadata:          doc.Metadata,
			Score:             score,
			CoordScore:        coordScore,
			TFScore:           tfScore,
			TFIDFScore:        score / coordScore,
			QueryTokensFound:  found,
			TotalQueryTokens:  totalQueryTokens,
			HighestQueryScore: score,
		})
	}
	e.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > 0 {
		maxScore := scored[0].Score
		filtered := scored[:0]
		for _, sd := range scored {
			if maxScore > 0 {
				sd.CutoffScaledScore = sd.Score / maxScore
			}
			if sd.CutoffScaledScore >= opts.CutoffScore {
				filtered = append(filtered, sd)
			}
		}
		scored = filtered
	}

	if opts.TopK > 0 && len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	return scored, nil
}

// LocalPostings returns the local per-docid counts for each of words, for
// a peer node answering a VerbQueryPostings request on this shard.
func (e *Engine) LocalPostings(words []string) map[string]map[string]int {
	return e.localPostings(words)
}

// LocalDocIDs returns every docid present in this local shard, for a peer
// node answering the |D| portion of a VerbQueryPostings request.
func (e *Engine) LocalDocIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.docs))
	for d := range e.docs {
		out = append(out, d)
	}
	return out
}

func (e *Engine) localPostings(words []string) map[string]map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]map[string]int, len(words))
	for _, w := range words {
		wp, ok := e.iindex[w]
		if !ok {
			continue
		}
		docs := make(map[string]int, len(wp.Docs))
		for d, n := range wp.Docs {
			docs[d] = n
		}
		out[w] = docs
	}
	return out
}

func (e *Engine) peerPostings(ctx context.Context, words []string) (PeerPostings, error) {
	if !e.cfg.Distributed || e.cluster == nil {
		return PeerPostings{}, nil
	}
	peer, err := e.cluster.QueryPostings(ctx, e.key.String(), words, e.cfg.ClusterTimeout)
	if err != nil {
		return PeerPostings{}, rerr.NewClusterTimeout(e.key.String(), e.cfg.ClusterTimeout.String())
	}
	return peer, nil
}

// mergePostings unions per-docid counts across local and peer postings;
// a docid present locally is never overwritten by a peer's count for the
// same word (local wins).
func mergePostings(local, peer map[string]map[string]int) map[string]map[string]int {
	merged := make(map[string]map[string]int, len(local))
	for w, docs := range local {
		m := make(map[string]int, len(docs))
		for d, n := range docs {
			m[d] = n
		}
		merged[w] = m
	}
	for w, docs := range peer {
		m, ok := merged[w]
		if !ok {
			m = make(map[string]int, len(docs))
			merged[w] = m
		}
		for d, n := range docs {
			if _, localHasDoc := m[d]; localHasDoc {
				continue // local wins
			}
			m[d] = n
		}
	}
	return merged
}

func documentFrequencies(merged map[string]map[string]int) map[string]int {
	df := make(map[string]int, len(merged))
	for w, docs := range merged {
		df[w] = len(docs)
	}
	return df
}

func candidateDocIDs(merged map[string]map[string]int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, docs := range merged {
		for d := range docs {
			out[d] = struct{}{}
		}
	}
	return out
}

// distinctDocIDCount computes |D|: the count of
// distinct docids across the cluster, which is the union of the local
// doc store and whatever peer set the ClusterBus returned.
func (e *Engine) distinctDocIDCount(peerDocs map[string]struct{}) int {
	all := make(map[string]struct{}, len(e.docs)+len(peerDocs))
	e.mu.RLock()
	for d := range e.docs {
		all[d] = struct{}{}
	}
	e.mu.RUnlock()
	for d := range peerDocs {
		all[d] = struct{}{}
	}
	if len(all) == 0 {
		return 1 // avoid log10(0/...) — an empty cluster has no candidates anyway
	}
	return len(all)
}

// averageLocalLength returns the mean TfIdfDocument.Length across the
// local shard. Caller must hold at least a read lock.
func (e *Engine) averageLocalLength() float64 {
	if len(e.docs) == 0 {
		return 1
	}
	var total int
	for _, d := range e.docs {
		total += d.Length
	}
	return float64(total) / float64(len(e.docs))
}
