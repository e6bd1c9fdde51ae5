package persistence

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/spf13/afero"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
)

func docHash(docid string) string {
	sum := sha1.Sum([]byte(docid))
	return hex.EncodeToString(sum[:])
}

// SaveTFIDF writes engine's postings, vocabulary, and per-document files
// under <root>/<tenantKey>/tfidfdb/. It clears the dirty flag on
// success and restores it on failure, so an autosave timer retries.
func SaveTFIDF(fs afero.Fs, root, tenantKey string, engine *tfidx.Engine) error {
	dir := tfidfRoot(root, tenantKey)
	if err := ensureDir(fs, dir); err != nil {
		return err
	}

	postings := engine.SnapshotPostings()
	sort.Slice(postings, func(i, j int) bool { return postings[i].Word < postings[j].Word })

	var ndjson bytes.Buffer
	enc := json.NewEncoder(&ndjson)
	vocabulary := make([]string, 0, len(postings))
	for _, wp := range postings {
		if err := enc.Encode(wp); err != nil {
			engine.MarkDirty()
			return rerr.NewIOError("encode", dir+"/"+iindexFile, err)
		}
		vocabulary = append(vocabulary, wp.Word)
	}
	if err := writeFileAtomic(fs, joinPath(dir, iindexFile), ndjson.Bytes()); err != nil {
		engine.MarkDirty()
		return err
	}

	vocabJSON, err := json.Marshal(vocabulary)
	if err != nil {
		engine.MarkDirty()
		return rerr.NewIOError("encode", dir+"/"+vocabFile, err)
	}
	if err := writeFileAtomic(fs, joinPath(dir, vocabFile), vocabJSON); err != nil {
		engine.MarkDirty()
		return err
	}

	docs := engine.SnapshotDocuments()
	for docid, doc := range docs {
		docJSON, err := json.Marshal(doc)
		if err != nil {
			engine.MarkDirty()
			return rerr.NewIOError("encode", docid, err)
		}
		if err := writeFileAtomic(fs, docFilePath(dir, docHash(docid)), docJSON); err != nil {
			engine.MarkDirty()
			return err
		}
	}

	engine.ClearDirty()
	return nil
}

// LoadTFIDF rebuilds a tenant's TF-IDF engine from the files SaveTFIDF
// wrote. docids are recovered from each document file's own Metadata,
// not from the docHash filename (the hash is one-way).
func LoadTFIDF(fs afero.Fs, root, tenantKey string, key tenant.Key, cfg tfidx.Config, tok *tokenizer.Tokenizer) (*tfidx.Engine, error) {
	dir := tfidfRoot(root, tenantKey)
	engine := tfidx.New(key, cfg, tok)

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, rerr.NewIOError("stat", dir, err)
	}
	if !exists {
		return engine, nil
	}

	postings, err := loadPostings(fs, dir)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, rerr.NewIOError("readdir", dir, err)
	}
	docs := make(map[string]tfidx.TfIdfDocument)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == iindexFile || name == vocabFile {
			continue
		}
		data, err := afero.ReadFile(fs, joinPath(dir, name))
		if err != nil {
			return nil, rerr.NewIOError("read", name, err)
		}
		var doc tfidx.TfIdfDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, rerr.NewIOError("decode", name, err)
		}
		docs[doc.Metadata[cfg.DocIDKey]] = doc
	}

	engine.Restore(postings, docs)
	return engine, nil
}

func loadPostings(fs afero.Fs, dir string) ([]tfidx.WordPosting, error) {
	path := joinPath(dir, iindexFile)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, rerr.NewIOError("stat", path, err)
	}
	if !exists {
		return nil, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, rerr.NewIOError("open", path, err)
	}
	defer f.Close()

	var postings []tfidx.WordPosting
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var wp tfidx.WordPosting
		if err := json.Unmarshal(line, &wp); err != nil {
			return nil, rerr.NewIOError("decode", path, err)
		}
		postings = append(postings, wp)
	}
	if err := scanner.Err(); err != nil {
		return nil, rerr.NewIOError("scan", path, err)
	}
	return postings, nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
