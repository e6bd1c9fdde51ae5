package coordinator_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embeddingmock "github.com/jrepp/retrieval-core/pkg/embedding/mock"
	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

type fakeReadCloser struct {
	*bytes.Reader
}

func (f fakeReadCloser) Close() error { return nil }

type fakeDrive struct {
	files map[string]string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: make(map[string]string)}
}

func (d *fakeDrive) GetRootRelative(ctx context.Context, path string) (string, error) { return path, nil }
func (d *fakeDrive) GetFullPath(ctx context.Context, cmsPath string) (string, error)  { return cmsPath, nil }

func (d *fakeDrive) GetReadStream(ctx context.Context, path string) (coordinator.ReadCloser, error) {
	text, ok := d.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return fakeReadCloser{bytes.NewReader([]byte(text))}, nil
}

func (d *fakeDrive) WriteFile(ctx context.Context, path string, data []byte) error {
	d.files[path] = string(data)
	return nil
}

func newTestIndex(t *testing.T, key tenant.Key) *coordinator.TenantIndex {
	t.Helper()
	tok := tokenizer.New()
	return &coordinator.TenantIndex{
		TFIDF:  tfidx.New(key, tfidx.DefaultConfig(), tok),
		Vector: vectorindex.New(key),
	}
}

func TestCoordinator_HandleCreated_IngestsBothEngines(t *testing.T) {
	ctx := context.Background()
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	drive := newFakeDrive()
	drive.files["/drive/doc1.txt"] = "alpha beta gamma delta"

	idx := newTestIndex(t, key)
	embedder := embeddingmock.New(8)
	c := coordinator.New(drive, embedder, coordinator.DefaultIndexingConfig())
	c.Register(key.String(), idx)

	err := c.Handle(ctx, coordinator.FileEvent{
		Type:      coordinator.FileCreated,
		TenantKey: key.String(),
		CMSPath:   "doc1.txt",
		FullPath:  "/drive/doc1.txt",
		DocID:     "doc1",
		Language:  "en",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.TFIDF.DocCount())
	vectors := idx.Vector.FindByMetadata(nil)
	assert.NotEmpty(t, vectors)
}

func TestCoordinator_HandleDeleted_RemovesFromBothEngines(t *testing.T) {
	ctx := context.Background()
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	drive := newFakeDrive()
	drive.files["/drive/doc1.txt"] = "alpha beta gamma delta"

	idx := newTestIndex(t, key)
	embedder := embeddingmock.New(8)
	c := coordinator.New(drive, embedder, coordinator.DefaultIndexingConfig())
	c.Register(key.String(), idx)

	ev := coordinator.FileEvent{
		Type:      coordinator.FileCreated,
		TenantKey: key.String(),
		CMSPath:   "doc1.txt",
		FullPath:  "/drive/doc1.txt",
		DocID:     "doc1",
		Language:  "en",
	}
	require.NoError(t, c.Handle(ctx, ev))

	ev.Type = coordinator.FileDeleted
	require.NoError(t, c.Handle(ctx, ev))

	assert.Equal(t, 0, idx.TFIDF.DocCount())
	assert.Empty(t, idx.Vector.FindByMetadata(nil))
}

func TestCoordinator_HandleRenamed_ShiftsPathsInBothEngines(t *testing.T) {
	ctx := context.Background()
	key := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	drive := newFakeDrive()
	drive.files["/drive/old.txt"] = "alpha beta gamma delta"

	idx := newTestIndex(t, key)
	embedder := embeddingmock.New(8)
	c := coordinator.New(drive, embedder, coordinator.DefaultIndexingConfig())
	c.Register(key.String(), idx)

	require.NoError(t, c.Handle(ctx, coordinator.FileEvent{
		Type:      coordinator.FileCreated,
		TenantKey: key.String(),
		CMSPath:   "old.txt",
		FullPath:  "/drive/old.txt",
		DocID:     "doc1",
		Language:  "en",
	}))

	require.NoError(t, c.Handle(ctx, coordinator.FileEvent{
		Type:        coordinator.FileRenamed,
		TenantKey:   key.String(),
		CMSPath:     "new.txt",
		FullPath:    "/drive/new.txt",
		OldCMSPath:  "old.txt",
		OldFullPath: "/drive/old.txt",
		DocID:       "doc1",
		Language:    "en",
	}))

	results, err := idx.TFIDF.Query(ctx, "alpha", tfidx.QueryOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new.txt", results[0].Metadata["cmspath"])
	assert.Equal(t, "/drive/new.txt", results[0].Metadata["fullpath"])

	for _, v := range idx.Vector.FindByMetadata(nil) {
		assert.Equal(t, "new.txt", v.Metadata["cmspath"])
		assert.Equal(t, "/drive/new.txt", v.Metadata["fullpath"])
	}
}

func TestCoordinator_Handle_UnknownTenantIsNotFound(t *testing.T) {
	ctx := context.Background()
	drive := newFakeDrive()
	embedder := embeddingmock.New(8)
	c := coordinator.New(drive, embedder, coordinator.DefaultIndexingConfig())

	err := c.Handle(ctx, coordinator.FileEvent{Type: coordinator.FileCreated, TenantKey: "missing"})
	assert.Error(t, err)
}
