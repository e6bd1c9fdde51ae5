package tfidx

import (
	"context"
	"time"
)

// PeerPostings is the merged cross-node view ClusterQuerier returns for a
// set of query words: per-word docid→count postings and the distinct
// docid count known to the cluster, used to compute |D| in Query step 3.
type PeerPostings struct {
	Postings map[string]map[string]int // word -> docid -> count
	AllDocs  map[string]struct{}       // distinct docids known cluster-wide
}

// ClusterQuerier is the narrow slice of the ClusterBus the TF-IDF
// engine needs to merge postings across peers for query, and to
// broadcast deletes/updates that miss locally. An Engine with a nil
// ClusterQuerier behaves as a single, non-distributed shard.
type ClusterQuerier interface {
	QueryPostings(ctx context.Context, tenant string, words []string, timeout time.Duration) (PeerPostings, error)
	BroadcastDelete(ctx context.Context, tenant string, metadata map[string]string) error
	BroadcastUpdate(ctx context.Context, tenant string, oldMetadata, newMetadata map[string]string) error
}
