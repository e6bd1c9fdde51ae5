package persistence

import (
	"encoding/json"

	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

// SaveVector writes engine's index object under
// <root>/<tenantKey>/vectordb/dbindex.json. Text shards are written
// incrementally by FSTextStore as entries are created, not here.
func SaveVector(fs afero.Fs, root, tenantKey string, engine *vectorindex.Engine) error {
	dir := vectorRoot(root, tenantKey)
	if err := ensureDir(fs, dir); err != nil {
		return err
	}

	entries := engine.SnapshotIndex()
	indexJSON, err := json.Marshal(entries)
	if err != nil {
		engine.MarkDirty()
		return rerr.NewIOError("encode", joinPath(dir, dbindexFile), err)
	}
	if err := writeFileAtomic(fs, joinPath(dir, dbindexFile), indexJSON); err != nil {
		engine.MarkDirty()
		return err
	}

	engine.ClearDirty()
	return nil
}

// LoadVector rebuilds a tenant's vector engine from dbindex.json. Text
// shards are not read back into memory; they stay addressable through
// the FSTextStore handed to vectorindex.New.
func LoadVector(fs afero.Fs, root, tenantKey string, key tenant.Key, store *FSTextStore) (*vectorindex.Engine, error) {
	dir := vectorRoot(root, tenantKey)
	engine := vectorindex.New(key, vectorindex.WithTextStore(store))

	path := joinPath(dir, dbindexFile)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, rerr.NewIOError("stat", path, err)
	}
	if !exists {
		return engine, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, rerr.NewIOError("read", path, err)
	}

	var entries map[string]vectorindex.VectorEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, rerr.NewIOError("decode", path, err)
	}

	engine.Restore(entries)
	return engine, nil
}
