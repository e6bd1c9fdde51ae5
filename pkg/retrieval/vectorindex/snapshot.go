package vectorindex

// SnapshotIndex returns a copy of every entry in the index, for the
// persistence adapter's `dbindex.json` write. Vector and Metadata
// slices/maps are shared, not deep-copied; callers must treat them as
// read-only.
func (e *Engine) SnapshotIndex() map[string]VectorEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]VectorEntry, len(e.index))
	for hash, entry := range e.index {
		out[hash] = *entry
	}
	return out
}

// Restore replaces the engine's in-memory index with entries loaded from
// disk. Only safe to call on a freshly constructed Engine, before any
// concurrent readers or writers observe it.
func (e *Engine) Restore(entries map[string]VectorEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = make(map[string]*VectorEntry, len(entries))
	for hash, entry := range entries {
		v := entry
		e.index[hash] = &v
		if e.dim == 0 && len(v.Vector) > 0 {
			e.dim = len(v.Vector)
		}
	}
	e.dirty = false
}
