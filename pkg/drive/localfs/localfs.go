// Package localfs implements coordinator.Drive over a local directory
// tree, the simplest of the storage backends this codebase supports
// (grounded on the local workspace adapter's provider-over-filesystem
// shape, trimmed to the four methods the coordinator actually calls).
package localfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

var _ coordinator.Drive = (*Drive)(nil)

// Drive roots every path under Root; CMS paths are always relative to it.
type Drive struct {
	Root string
}

func New(root string) *Drive {
	return &Drive{Root: root}
}

func (d *Drive) GetRootRelative(ctx context.Context, path string) (string, error) {
	rel, err := filepath.Rel(d.Root, path)
	if err != nil {
		return "", rerr.NewIOError("relpath", path, err)
	}
	return rel, nil
}

func (d *Drive) GetFullPath(ctx context.Context, cmsPath string) (string, error) {
	return filepath.Join(d.Root, cmsPath), nil
}

func (d *Drive) GetReadStream(ctx context.Context, path string) (coordinator.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rerr.NewIOError("open", path, err)
	}
	return f, nil
}

func (d *Drive) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rerr.NewIOError("mkdir", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return rerr.NewIOError("write", path, err)
	}
	return nil
}
