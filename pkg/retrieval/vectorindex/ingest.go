package vectorindex

import (
	"context"
	"fmt"
	"io"
)

type chunkBound struct{ start, end int }

// findSeparatorCut searches backward from "from" (exclusive) down to
// "limit" for the nearest position where the document ends in one of
// the configured separators.
func findSeparatorCut(document string, from, limit int, separators []string) (int, bool) {
	for cut := from; cut > limit; cut-- {
		for _, sep := range separators {
			if sep == "" {
				continue
			}
			if cut-len(sep) >= limit && document[cut-len(sep):cut] == sep {
				return cut, true
			}
		}
	}
	return 0, false
}

// chunkBounds computes the [start,end) byte ranges Ingest will slice the
// document into. Each subsequent chunk starts overlap bytes before the
// previous chunk's end, so adjacent chunks share that many bytes.
func chunkBounds(document string, chunkSize int, separators []string, overlap int) []chunkBound {
	var bounds []chunkBound
	n := len(document)
	start := 0
	for start < n {
		end := start + chunkSize
		if end >= n {
			end = n
		} else if cut, ok := findSeparatorCut(document, end, start, separators); ok {
			end = cut
		}
		bounds = append(bounds, chunkBound{start, end})
		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end // overlap >= chunk length: avoid an infinite loop
		}
		start = next
	}
	return bounds
}

// Ingest splits document into chunks and embeds each as a VectorEntry.
// If returnTail is true, the final chunk (which may be incomplete if
// more bytes are still arriving) is returned as tail rather than
// ingested, for the caller to prepend to the next buffer — see
// IngestStream. On any failure, every vector created during this call is
// rolled back.
func (e *Engine) Ingest(ctx context.Context, metadata map[string]string, document string, chunkSize int, separators []string, overlap int, embed Embedder, returnTail bool) (hashes []string, tail string, err error) {
	bounds := chunkBounds(document, chunkSize, separators, overlap)
	if returnTail && len(bounds) > 0 {
		last := bounds[len(bounds)-1]
		tail = document[last.start:]
		bounds = bounds[:len(bounds)-1]
	}

	created := make([]string, 0, len(bounds))
	for i, b := range bounds {
		chunkMeta := make(map[string]string, len(metadata)+1)
		for k, v := range metadata {
			chunkMeta[k] = v
		}
		chunkMeta["chunk_index"] = fmt.Sprintf("%d", i)

		hash, createErr := e.Create(ctx, nil, chunkMeta, document[b.start:b.end], embed)
		if createErr != nil {
			for _, h := range created {
				_ = e.Delete(ctx, h)
			}
			return nil, "", createErr
		}
		created = append(created, hash)
	}
	return created, tail, nil
}

// IngestStream reads readStream to completion, buffering until at least
// chunkSize bytes are available before calling Ingest with
// returnTail=true, and prepending the returned tail to the next buffer.
// The final remainder is ingested without a tail.
func (e *Engine) IngestStream(ctx context.Context, metadata map[string]string, readStream io.Reader, chunkSize int, separators []string, overlap int, embed Embedder) ([]string, error) {
	var all []string
	var buf []byte
	readBuf := make([]byte, 4096)

	for {
		n, readErr := readStream.Read(readBuf)
		if n > 0 {
			buf = append(buf, readBuf[:n]...)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
		if len(buf) < chunkSize {
			continue
		}

		hashes, tail, err := e.Ingest(ctx, metadata, string(buf), chunkSize, separators, overlap, embed, true)
		if err != nil {
			return nil, err
		}
		all = append(all, hashes...)
		buf = []byte(tail)
	}

	if len(buf) > 0 {
		hashes, _, err := e.Ingest(ctx, metadata, string(buf), chunkSize, separators, overlap, embed, false)
		if err != nil {
			return nil, err
		}
		all = append(all, hashes...)
	}
	return all, nil
}
