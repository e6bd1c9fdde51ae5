package vectorindex

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
)

type memTextStore struct {
	mu   sync.Mutex
	text map[string]string
}

func newMemTextStore() *memTextStore { return &memTextStore{text: map[string]string{}} }

func (m *memTextStore) WriteText(ctx context.Context, hash, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text[hash] = text
	return nil
}

func (m *memTextStore) ReadText(ctx context.Context, hash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.text[hash]
	if !ok {
		return "", errors.New("not found")
	}
	return t, nil
}

func (m *memTextStore) DeleteText(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.text, hash)
	return nil
}

type constEmbedder struct{ vec []float64 }

func (c constEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return c.vec, nil
}

type nilEmbedder struct{}

func (nilEmbedder) Embed(ctx context.Context, text string) ([]float64, error) { return nil, nil }

func newTestEngine() *Engine {
	return New(tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}, WithTextStore(newMemTextStore()))
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float64{1, 2, 3}
	l := euclideanLength(v)
	sim, err := cosineSimilarity(v, v, l, l)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCreate_IsIdempotentByHash(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	h1, err := e.Create(ctx, []float64{1, 0, 0}, map[string]string{"docid": "d1"}, "hello", nil)
	require.NoError(t, err)
	h2, err := e.Create(ctx, []float64{1, 0, 0}, map[string]string{"docid": "d1"}, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, e.index, 1)
}

func TestCreate_RejectsDimensionMismatch(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	_, err := e.Create(ctx, []float64{1, 0, 0}, map[string]string{}, "a", nil)
	require.NoError(t, err)
	_, err = e.Create(ctx, []float64{1, 0}, map[string]string{}, "b", nil)
	assert.Error(t, err)
}

func TestDeleteRemovesEntryAndTextShard(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hash, err := e.Create(ctx, []float64{1, 2, 3}, map[string]string{}, "hello", nil)
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, hash))
	_, _, err = e.Read(ctx, hash, true)
	assert.Error(t, err)
}

func TestUpdate_RestoresOriginalOnNilEmbedding(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	hash, err := e.Create(ctx, []float64{1, 2, 3}, map[string]string{"v": "1"}, "original", nil)
	require.NoError(t, err)

	_, err = e.Update(ctx, hash, map[string]string{"v": "2"}, "changed", nilEmbedder{})
	assert.Error(t, err)

	entry, text, err := e.Read(ctx, hash, true)
	require.NoError(t, err)
	assert.Equal(t, "1", entry.Metadata["v"])
	assert.Equal(t, "original", text)
}

func TestQuery_MinDistanceFiltersLowSimilarity(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	_, err := e.Create(ctx, []float64{1, 0}, map[string]string{"id": "a"}, "a", nil)
	require.NoError(t, err)
	_, err = e.Create(ctx, []float64{0, 1}, map[string]string{"id": "b"}, "b", nil)
	require.NoError(t, err)

	results, err := e.Query(ctx, []float64{1, 0}, QueryOptions{MinDistance: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Metadata["id"])
}

func TestQuery_TopKAndWithText(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := e.Create(ctx, []float64{1, float64(i)}, map[string]string{}, "text", nil)
		require.NoError(t, err)
	}
	results, err := e.Query(ctx, []float64{1, 0}, QueryOptions{TopK: 2, WithText: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "text", results[0].Text)
}

func TestIngest_ProducesOverlappingChunksOnSeparatorBoundaries(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	doc := "a b c d e f g h i j. k l m"
	hashes, tail, err := e.Ingest(ctx, map[string]string{"docid": "d1"}, doc, 10, []string{".", " "}, 3, constEmbedder{vec: []float64{1, 0}}, false)
	require.NoError(t, err)
	assert.Empty(t, tail)
	assert.NotEmpty(t, hashes)
}

func TestIngest_RollsBackOnFailure(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	_, _, err := e.Ingest(ctx, map[string]string{}, "a b c d e f g h i j k l m n o", 5, []string{" "}, 1, nilEmbedder{}, false)
	assert.Error(t, err)
	assert.Empty(t, e.index)
}

func TestIngestStream_StitchesTailAcrossReads(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	r := &chunkedReader{chunks: []string{"hello wor", "ld this i", "s a test."}}
	hashes, err := e.IngestStream(ctx, map[string]string{}, r, 8, []string{" "}, 2, constEmbedder{vec: []float64{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, hashes)
}

type chunkedReader struct {
	chunks []string
	idx    int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.idx >= len(c.chunks) {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[c.idx])
	c.idx++
	return n, nil
}
