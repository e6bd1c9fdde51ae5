// Package persistence implements the filesystem adapter: atomic
// snapshot/restore of a tenant's TF-IDF and vector engines under an
// afero.Fs, using an NDJSON-plus-per-doc layout for TF-IDF and a
// single-JSON-plus-per-hash layout for the vector index. Tests run
// against afero.NewMemMapFs(); a production instance passes
// afero.NewOsFs().
package persistence

import "path/filepath"

const (
	tfidfDir   = "tfidfdb"
	vectorDir  = "vectordb"
	iindexFile = "iindex"
	vocabFile  = "vocabulary"
	dbindexFile = "dbindex.json"
)

func tenantRoot(root, tenantKey string) string {
	return filepath.Join(root, tenantKey)
}

func tfidfRoot(root, tenantKey string) string {
	return filepath.Join(tenantRoot(root, tenantKey), tfidfDir)
}

func vectorRoot(root, tenantKey string) string {
	return filepath.Join(tenantRoot(root, tenantKey), vectorDir)
}

func docFilePath(tfidfRoot, docHash string) string {
	return filepath.Join(tfidfRoot, docHash)
}

func textFilePath(vectorRoot, hash string) string {
	return filepath.Join(vectorRoot, "text_"+hash+".txt")
}
