package clusterbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
)

// queryPostingsRequest/Reply and the delete/update payloads are the wire
// shapes carried in Envelope.Payload for the three tfidx RPC verbs.
type queryPostingsRequest struct {
	Words []string `json:"words"`
}

type queryPostingsReply struct {
	Postings map[string]map[string]int `json:"postings"`
	DocIDs   []string                   `json:"docids"`
}

type deleteRequest struct {
	Metadata map[string]string `json:"metadata"`
}

type updateRequest struct {
	OldMetadata map[string]string `json:"old_metadata"`
	NewMetadata map[string]string `json:"new_metadata"`
}

// TFIDFAdapter implements tfidx.ClusterQuerier on top of a Bus, replacing
// the source's "call any function by name" dispatch with the closed
// VerbQueryPostings/VerbApplyDelete/VerbApplyUpdate enum.
type TFIDFAdapter struct {
	bus Bus
}

func NewTFIDFAdapter(bus Bus) *TFIDFAdapter {
	return &TFIDFAdapter{bus: bus}
}

func (a *TFIDFAdapter) QueryPostings(ctx context.Context, tenant string, words []string, timeout time.Duration) (tfidx.PeerPostings, error) {
	payload, err := json.Marshal(queryPostingsRequest{Words: words})
	if err != nil {
		return tfidx.PeerPostings{}, err
	}

	replies, err := a.bus.Request(ctx, TopicFunctionCall, Envelope{
		Verb:    VerbQueryPostings,
		Tenant:  tenant,
		Payload: payload,
	}, timeout, RequestOptions{})
	if err != nil {
		return tfidx.PeerPostings{}, err
	}

	merged := tfidx.PeerPostings{
		Postings: make(map[string]map[string]int),
		AllDocs:  make(map[string]struct{}),
	}
	for _, reply := range replies {
		var r queryPostingsReply
		if err := json.Unmarshal(reply.Payload, &r); err != nil {
			continue // a malformed peer reply degrades, it does not abort the merge
		}
		for word, docs := range r.Postings {
			dst, ok := merged.Postings[word]
			if !ok {
				dst = make(map[string]int)
				merged.Postings[word] = dst
			}
			for docid, count := range docs {
				dst[docid] = count
			}
		}
		for _, docid := range r.DocIDs {
			merged.AllDocs[docid] = struct{}{}
		}
	}
	return merged, nil
}

func (a *TFIDFAdapter) BroadcastDelete(ctx context.Context, tenant string, metadata map[string]string) error {
	payload, err := json.Marshal(deleteRequest{Metadata: metadata})
	if err != nil {
		return err
	}
	return a.bus.Publish(ctx, TopicRemoveDoc, Envelope{
		Verb:    VerbApplyDelete,
		Tenant:  tenant,
		Payload: payload,
	}, PublishOptions{ExternalOnly: true})
}

func (a *TFIDFAdapter) BroadcastUpdate(ctx context.Context, tenant string, oldMetadata, newMetadata map[string]string) error {
	payload, err := json.Marshal(updateRequest{OldMetadata: oldMetadata, NewMetadata: newMetadata})
	if err != nil {
		return err
	}
	return a.bus.Publish(ctx, TopicUpdateDoc, Envelope{
		Verb:    VerbApplyUpdate,
		Tenant:  tenant,
		Payload: payload,
	}, PublishOptions{ExternalOnly: true})
}

// RegisterPeerHandlers subscribes engineFor's tenant shards to answer
// VerbQueryPostings/VerbApplyDelete/VerbApplyUpdate requests from peers.
// lookup resolves a tenant key string to the local *tfidx.Engine serving
// it, or nil if this node does not hold that tenant.
func RegisterPeerHandlers(ctx context.Context, bus Bus, lookup func(tenantKey string) *tfidx.Engine) error {
	if _, err := bus.Subscribe(ctx, TopicFunctionCall, func(ctx context.Context, msg Envelope) ([]byte, error) {
		if msg.Verb != VerbQueryPostings {
			return nil, nil
		}
		engine := lookup(msg.Tenant)
		if engine == nil {
			return nil, nil
		}
		var req queryPostingsRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, err
		}
		reply := queryPostingsReply{
			Postings: engine.LocalPostings(req.Words),
			DocIDs:   engine.LocalDocIDs(),
		}
		return json.Marshal(reply)
	}); err != nil {
		return err
	}

	if _, err := bus.Subscribe(ctx, TopicRemoveDoc, func(ctx context.Context, msg Envelope) ([]byte, error) {
		engine := lookup(msg.Tenant)
		if engine == nil {
			return nil, nil
		}
		var req deleteRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, err
		}
		_ = engine.Delete(ctx, req.Metadata, true)
		return nil, nil
	}); err != nil {
		return err
	}

	_, err := bus.Subscribe(ctx, TopicUpdateDoc, func(ctx context.Context, msg Envelope) ([]byte, error) {
		engine := lookup(msg.Tenant)
		if engine == nil {
			return nil, nil
		}
		var req updateRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, err
		}
		_ = engine.Update(ctx, req.OldMetadata, req.NewMetadata, true)
		return nil, nil
	})
	return err
}
