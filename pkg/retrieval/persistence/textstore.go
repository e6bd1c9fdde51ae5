package persistence

import (
	"context"

	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// FSTextStore persists one text_<hash>.txt shard per vector entry under
// a tenant's vectordb directory, implementing vectorindex.TextStore on
// top of an afero.Fs.
type FSTextStore struct {
	fs  afero.Fs
	dir string
}

func NewFSTextStore(fs afero.Fs, root, tenantKey string) *FSTextStore {
	return &FSTextStore{fs: fs, dir: vectorRoot(root, tenantKey)}
}

func (s *FSTextStore) WriteText(ctx context.Context, hash, text string) error {
	if err := ensureDir(s.fs, s.dir); err != nil {
		return err
	}
	return writeFileAtomic(s.fs, textFilePath(s.dir, hash), []byte(text))
}

func (s *FSTextStore) ReadText(ctx context.Context, hash string) (string, error) {
	path := textFilePath(s.dir, hash)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", rerr.NewIOError("read", path, err)
	}
	return string(data), nil
}

func (s *FSTextStore) DeleteText(ctx context.Context, hash string) error {
	path := textFilePath(s.dir, hash)
	if err := s.fs.Remove(path); err != nil {
		return rerr.NewIOError("remove", path, err)
	}
	return nil
}
