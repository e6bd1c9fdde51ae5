package persistence

import (
	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// writeFileAtomic writes data to path by first writing to a sibling
// temp file and renaming it into place, so a crash mid-write never
// leaves a half-written file for the next load to trip over (spec
// §4.7: "atomic per-file write").
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return rerr.NewIOError("write", tmp, err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return rerr.NewIOError("rename", path, err)
	}
	return nil
}

func ensureDir(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return rerr.NewIOError("mkdir", path, err)
	}
	return nil
}
