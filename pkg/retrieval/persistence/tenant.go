package persistence

import (
	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
)

// Save snapshots both of a tenant's engines to disk under root, using
// the key's canonical directory name.
func Save(fs afero.Fs, root string, key tenant.Key, index *coordinator.TenantIndex) error {
	tenantKey := key.String()
	if err := SaveTFIDF(fs, root, tenantKey, index.TFIDF); err != nil {
		return err
	}
	return SaveVector(fs, root, tenantKey, index.Vector)
}

// Load rebuilds a tenant's engine pair from whatever SaveTFIDF/SaveVector
// previously wrote under root; a tenant never indexed before loads as an
// empty pair rather than failing.
func Load(fs afero.Fs, root string, key tenant.Key, cfg tfidx.Config, tok *tokenizer.Tokenizer) (*coordinator.TenantIndex, error) {
	tenantKey := key.String()
	tfidfEngine, err := LoadTFIDF(fs, root, tenantKey, key, cfg, tok)
	if err != nil {
		return nil, err
	}
	store := NewFSTextStore(fs, root, tenantKey)
	vectorEngine, err := LoadVector(fs, root, tenantKey, key, store)
	if err != nil {
		return nil, err
	}
	return &coordinator.TenantIndex{TFIDF: tfidfEngine, Vector: vectorEngine}, nil
}
