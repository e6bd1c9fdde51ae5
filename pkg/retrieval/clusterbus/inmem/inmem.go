// Package inmem implements an in-process clusterbus.Bus for single-node
// deployments and tests: every publish/request is delivered synchronously
// to handlers registered on the same Bus instance.
package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus"
	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

type subscription struct {
	id      int
	handler clusterbus.Handler
}

// Bus is a clusterbus.Bus backed by in-process maps. It never crosses a
// process boundary, so the subscribers registered on it are the only
// simulated peers an ExternalOnly publish can reach; they still receive
// it, since skipping delivery would make broadcast deletes/updates
// unobservable. Redelivering to a subscriber that happens to be the
// local engine itself is safe: Delete/Update are no-ops when the docid
// is not found there.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]subscription
	nextSubID int
	closed    bool
}

func New() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

func (b *Bus) Publish(ctx context.Context, topic string, msg clusterbus.Envelope, opts clusterbus.PublishOptions) error {
	b.mu.RLock()
	handlers := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, sub := range handlers {
		if _, err := sub.handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string, handler clusterbus.Handler) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, sub := range subs {
			if sub.id == id {
				b.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		return nil
	}, nil
}

func (b *Bus) Request(ctx context.Context, topic string, msg clusterbus.Envelope, timeout time.Duration, opts clusterbus.RequestOptions) ([]clusterbus.Envelope, error) {
	b.mu.RLock()
	handlers := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	replies := make([]clusterbus.Envelope, 0, len(handlers))
	for _, sub := range handlers {
		select {
		case <-ctx.Done():
			return replies, rerr.NewClusterTimeout(topic, timeout.String())
		default:
		}
		reply, err := sub.handler(ctx, msg)
		if err != nil {
			continue // a single peer's failure degrades, it does not abort the fan-out
		}
		replies = append(replies, clusterbus.Envelope{Verb: msg.Verb, Tenant: msg.Tenant, Payload: reply})
		if opts.FirstReplyOnly {
			break
		}
		if opts.ExpectedReplies > 0 && len(replies) >= opts.ExpectedReplies {
			break
		}
	}
	return replies, nil
}

func (b *Bus) Reply(ctx context.Context, topic string, msg clusterbus.Envelope) error {
	return b.Publish(ctx, topic, msg, clusterbus.PublishOptions{})
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("inmem bus already closed")
	}
	b.closed = true
	b.subs = nil
	return nil
}
