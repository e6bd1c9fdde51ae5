package persistence_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embeddingmock "github.com/jrepp/retrieval-core/pkg/embedding/mock"
	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
	"github.com/jrepp/retrieval-core/pkg/retrieval/persistence"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

func TestSaveLoad_RoundTripsTFIDFAndVector(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	root := "/data"

	tok := tokenizer.New()
	tfidfEngine := tfidx.New(key, tfidx.DefaultConfig(), tok)
	vectorEngine := vectorindex.New(key, vectorindex.WithTextStore(persistence.NewFSTextStore(fs, root, key.String())))
	embedder := embeddingmock.New(8)

	_, err := tfidfEngine.Create(ctx, "alpha beta gamma delta", map[string]string{"docid": "d1"}, "en")
	require.NoError(t, err)

	vec, err := embedder.Embed(ctx, "alpha beta gamma delta")
	require.NoError(t, err)
	_, err = vectorEngine.Create(ctx, vec, map[string]string{"docid": "d1"}, "alpha beta gamma delta", nil)
	require.NoError(t, err)

	original := &coordinator.TenantIndex{TFIDF: tfidfEngine, Vector: vectorEngine}
	require.NoError(t, persistence.Save(fs, root, key, original))
	assert.False(t, tfidfEngine.Dirty())
	assert.False(t, vectorEngine.Dirty())

	restored, err := persistence.Load(fs, root, key, tfidx.DefaultConfig(), tok)
	require.NoError(t, err)

	assert.Equal(t, 1, restored.TFIDF.DocCount())
	results, err := restored.TFIDF.Query(ctx, "alpha gamma", tfidx.QueryOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].Metadata["docid"])

	vectors := restored.Vector.FindByMetadata(nil)
	require.Len(t, vectors, 1)
	assert.Equal(t, "d1", vectors[0].Metadata["docid"])
}

func TestLoad_MissingTenantReturnsEmptyIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	key := tenant.Key{UserID: "nobody", Org: "acme", AppID: "docs"}
	tok := tokenizer.New()

	restored, err := persistence.Load(fs, "/data", key, tfidx.DefaultConfig(), tok)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.TFIDF.DocCount())
	assert.Empty(t, restored.Vector.FindByMetadata(nil))
}

func TestSave_ClearsDirtyFlag(t *testing.T) {
	fs := afero.NewMemMapFs()
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	root := "/data"

	tok := tokenizer.New()
	tfidfEngine := tfidx.New(key, tfidx.DefaultConfig(), tok)
	vectorEngine := vectorindex.New(key)

	_, err := tfidfEngine.Create(context.Background(), "one two three", map[string]string{"docid": "d1"}, "en")
	require.NoError(t, err)
	require.True(t, tfidfEngine.Dirty())

	index := &coordinator.TenantIndex{TFIDF: tfidfEngine, Vector: vectorEngine}
	require.NoError(t, persistence.Save(fs, root, key, index))
	assert.False(t, tfidfEngine.Dirty())
}
