package tfidx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	tok := tokenizer.New(tokenizer.WithStopWords(map[string][]string{
		"en": {"the", "over"},
	}))
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	return New(key, DefaultConfig(), tok)
}

func TestCreate_QuickFoxScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Create(ctx, "The quick brown fox jumps over the lazy dog", map[string]string{"docid": "d1"}, "en")
	require.NoError(t, err)

	results, err := e.Query(ctx, "quick fox", QueryOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].QueryTokensFound)
	assert.Equal(t, 2, results[0].TotalQueryTokens)
	assert.InDelta(t, 1.10, results[0].CoordScore, 1e-9)
}

func TestCreate_IsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	meta := map[string]string{"docid": "d1"}
	_, err := e.Create(ctx, "alpha beta gamma", meta, "en")
	require.NoError(t, err)
	lenBefore := e.docs["d1"].Length

	_, err = e.Create(ctx, "completely different text entirely", meta, "en")
	require.NoError(t, err)
	assert.Equal(t, lenBefore, e.docs["d1"].Length, "re-ingest of an existing docid must be a no-op")
}

func TestCreate_RequiresDocID(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Create(context.Background(), "some text", map[string]string{}, "en")
	assert.Error(t, err)
}

func TestDelete_RemovesFromPostingsAndDocStore(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	meta := map[string]string{"docid": "d1"}
	_, err := e.Create(ctx, "alpha beta", meta, "en")
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, meta, true))

	results, err := e.Query(ctx, "alpha", QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, e.docWords["d1"])
}

func TestDelete_IdempotentWhenLocal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	meta := map[string]string{"docid": "d1"}
	_, err := e.Create(ctx, "alpha beta", meta, "en")
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, meta, true))
	err = e.Delete(ctx, meta, true)
	assert.Error(t, err) // second delete finds nothing locally
}

func TestUpdate_RekeysDocumentAndPostings(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	oldMeta := map[string]string{"docid": "d1", "cmspath": "/a.txt"}
	_, err := e.Create(ctx, "alpha beta", oldMeta, "en")
	require.NoError(t, err)

	newMeta := map[string]string{"docid": "d1", "cmspath": "/b.txt"}
	require.NoError(t, e.Update(ctx, oldMeta, newMeta, true))

	results, err := e.Query(ctx, "alpha", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/b.txt", results[0].Metadata["cmspath"])
}

func TestQuery_BM25FavorsShorterDocument(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Create(ctx, "alpha one two three", map[string]string{"docid": "short"}, "en")
	require.NoError(t, err)

	longText := "alpha"
	for i := 0; i < 400; i++ {
		longText += " filler"
	}
	_, err = e.Create(ctx, longText, map[string]string{"docid": "long"}, "en")
	require.NoError(t, err)

	results, err := e.Query(ctx, "alpha", QueryOptions{Adjustment: AdjustmentBM25})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "short", results[0].Metadata["docid"])
}

func TestQuery_TopKLimitsResults(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	for _, id := range []string{"d1", "d2", "d3"} {
		_, err := e.Create(ctx, "alpha shared text", map[string]string{"docid": id}, "en")
		require.NoError(t, err)
	}
	results, err := e.Query(ctx, "alpha", QueryOptions{TopK: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestMergePostings_LocalWinsOnOverlap(t *testing.T) {
	local := map[string]map[string]int{"alpha": {"d1": 5}}
	peer := map[string]map[string]int{"alpha": {"d1": 99, "d2": 3}}
	merged := mergePostings(local, peer)
	assert.Equal(t, 5, merged["alpha"]["d1"])
	assert.Equal(t, 3, merged["alpha"]["d2"])
}
