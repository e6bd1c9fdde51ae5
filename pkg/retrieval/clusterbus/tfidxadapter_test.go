package clusterbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus"
	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus/inmem"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tenant"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tokenizer"
)

func TestTFIDFAdapter_QueryPostingsMergesPeerReplies(t *testing.T) {
	bus := inmem.New()
	ctx := context.Background()

	peerKey := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	peerEngine := tfidx.New(peerKey, tfidx.DefaultConfig(), tokenizer.New())
	_, err := peerEngine.Create(ctx, "alpha beta gamma", map[string]string{"docid": "peer-doc"}, "en")
	require.NoError(t, err)

	require.NoError(t, clusterbus.RegisterPeerHandlers(ctx, bus, func(key string) *tfidx.Engine {
		if key == peerKey.String() {
			return peerEngine
		}
		return nil
	}))

	adapter := clusterbus.NewTFIDFAdapter(bus)
	peer, err := adapter.QueryPostings(ctx, peerKey.String(), []string{"alpha"}, time.Second)
	require.NoError(t, err)
	assert.Contains(t, peer.Postings, "alpha")
	assert.Contains(t, peer.Postings["alpha"], "peer-doc")
	assert.Contains(t, peer.AllDocs, "peer-doc")
}

func TestTFIDFAdapter_BroadcastDeleteAppliesOnPeer(t *testing.T) {
	bus := inmem.New()
	ctx := context.Background()

	peerKey := tenant.Key{UserID: "u1", Org: "acme", AppID: "docs"}
	peerEngine := tfidx.New(peerKey, tfidx.DefaultConfig(), tokenizer.New())
	meta := map[string]string{"docid": "peer-doc"}
	_, err := peerEngine.Create(ctx, "alpha beta", meta, "en")
	require.NoError(t, err)

	require.NoError(t, clusterbus.RegisterPeerHandlers(ctx, bus, func(key string) *tfidx.Engine {
		if key == peerKey.String() {
			return peerEngine
		}
		return nil
	}))

	adapter := clusterbus.NewTFIDFAdapter(bus)
	require.NoError(t, adapter.BroadcastDelete(ctx, peerKey.String(), meta))

	results, err := peerEngine.Query(ctx, "alpha", tfidx.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
