package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/retrieval-core/internal/cmd/base"
	"github.com/jrepp/retrieval-core/internal/config"
)

func TestCommand_Run_IndexesTenantDriveRoot(t *testing.T) {
	driveRoot := t.TempDir()
	dataRoot := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(driveRoot, "a.txt"), []byte("apples and oranges"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(driveRoot, "b.txt"), []byte("oranges and pears"), 0o644))

	cfg := &config.Config{
		Root:       dataRoot,
		Embedding:  &config.EmbeddingConfig{Provider: "mock"},
		ClusterBus: &config.ClusterBusConfig{Provider: "inmem"},
		Indexing:   &config.IndexingConfig{ChunkSize: 500, Separators: []string{" "}, Overlap: 0},
		Tenants: []config.TenantConfig{
			{UserID: "u1", Org: "acme", AppID: "docs", DriveRoot: driveRoot},
		},
	}

	cmd := &Command{Command: &base.Command{UI: cli.NewMockUi(), Log: hclog.NewNullLogger()}}
	require.NoError(t, cmd.run(context.Background(), cfg))

	tenantDir := filepath.Join(dataRoot, "u1_acme_docs")
	assert.DirExists(t, filepath.Join(tenantDir, "tfidfdb"))
	assert.DirExists(t, filepath.Join(tenantDir, "vectordb"))
	assert.FileExists(t, filepath.Join(tenantDir, "vectordb", "dbindex.json"))
}

func TestCommand_Run_UnsupportedEmbeddingProviderFails(t *testing.T) {
	cfg := &config.Config{
		Root:       t.TempDir(),
		Embedding:  &config.EmbeddingConfig{Provider: "nonexistent"},
		ClusterBus: &config.ClusterBusConfig{Provider: "inmem"},
		Indexing:   &config.IndexingConfig{},
	}

	cmd := &Command{Command: &base.Command{UI: cli.NewMockUi(), Log: hclog.NewNullLogger()}}
	err := cmd.run(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported embedding provider")
}
