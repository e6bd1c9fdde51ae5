// Package redpanda implements clusterbus.Bus over a Kafka-API-compatible
// broker using franz-go: producer acks, gzip compression, and retry
// backoff on publish.
package redpanda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/jrepp/retrieval-core/pkg/retrieval/clusterbus"
	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
)

// Config configures the broker connection.
type Config struct {
	Brokers  []string
	ClientID string
	GroupID  string
}

const headerVerb = "verb"
const headerTenant = "tenant"
const headerCorrelation = "correlation-id"

// Bus is a clusterbus.Bus backed by a franz-go client.
type Bus struct {
	cfg    Config
	client *kgo.Client
	logger hclog.Logger

	mu        sync.Mutex
	cancels   []context.CancelFunc
	waiters   map[string]chan clusterbus.Envelope
	replySubs map[string]bool
}

// New dials the broker with gzip compression, all-ISR acks, and
// client-side retries.
func New(cfg Config, logger hclog.Logger) (*Bus, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ProducerBatchCompression(kgo.GzipCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("clusterbus/redpanda: dial: %w", err)
	}
	return &Bus{
		cfg:       cfg,
		client:    client,
		logger:    logger,
		waiters:   make(map[string]chan clusterbus.Envelope),
		replySubs: make(map[string]bool),
	}, nil
}

func envelopeToRecord(topic string, msg clusterbus.Envelope) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Value: msg.Payload,
		Headers: []kgo.RecordHeader{
			{Key: headerVerb, Value: []byte(msg.Verb)},
			{Key: headerTenant, Value: []byte(msg.Tenant)},
			{Key: headerCorrelation, Value: []byte(msg.CorrelationID)},
		},
	}
}

func recordToEnvelope(r *kgo.Record) clusterbus.Envelope {
	env := clusterbus.Envelope{Payload: r.Value}
	for _, h := range r.Headers {
		switch h.Key {
		case headerVerb:
			env.Verb = clusterbus.Verb(h.Value)
		case headerTenant:
			env.Tenant = string(h.Value)
		case headerCorrelation:
			env.CorrelationID = string(h.Value)
		}
	}
	return env
}

// Publish produces msg to topic, retrying transient broker errors with
// exponential backoff.
func (b *Bus) Publish(ctx context.Context, topic string, msg clusterbus.Envelope, _ clusterbus.PublishOptions) error {
	record := envelopeToRecord(topic, msg)

	op := func() error {
		results := b.client.ProduceSync(ctx, record)
		return results.FirstErr()
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(op, policy)
}

// Subscribe starts a dedicated consumer goroutine for topic. Each
// delivered record is decoded into an Envelope and handed to handler;
// handler errors are logged, not propagated, since a single-subscriber
// failure must not stall the consumer loop.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler clusterbus.Handler) (func() error, error) {
	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.cfg.Brokers...),
		kgo.ConsumerGroup(b.cfg.GroupID),
		kgo.ConsumeTopics(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("clusterbus/redpanda: subscribe %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer consumer.Close()
		for {
			fetches := consumer.PollFetches(subCtx)
			if subCtx.Err() != nil {
				return
			}
			fetches.EachError(func(_ string, _ int32, err error) {
				b.logger.Warn("clusterbus/redpanda: fetch error", "topic", topic, "error", err)
			})
			fetches.EachRecord(func(r *kgo.Record) {
				env := recordToEnvelope(r)
				if _, err := handler(subCtx, env); err != nil {
					b.logger.Warn("clusterbus/redpanda: handler error", "topic", topic, "error", err)
				}
			})
		}
	}()

	b.mu.Lock()
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	return func() error {
		cancel()
		return nil
	}, nil
}

// Request publishes msg to topic and blocks for replies on topic+".reply"
// correlated by msg.CorrelationID, bounded by timeout.
func (b *Bus) Request(ctx context.Context, topic string, msg clusterbus.Envelope, timeout time.Duration, opts clusterbus.RequestOptions) ([]clusterbus.Envelope, error) {
	if msg.CorrelationID == "" {
		msg.CorrelationID = fmt.Sprintf("%s-%d", topic, time.Now().UnixNano())
	}
	replyTopic := topic + ".reply"
	waitCh := make(chan clusterbus.Envelope, 16)

	b.mu.Lock()
	b.waiters[msg.CorrelationID] = waitCh
	needsSub := !b.replySubs[replyTopic]
	b.replySubs[replyTopic] = true
	b.mu.Unlock()

	if needsSub {
		if _, err := b.Subscribe(context.Background(), replyTopic, b.routeReply); err != nil {
			return nil, err
		}
	}
	defer func() {
		b.mu.Lock()
		delete(b.waiters, msg.CorrelationID)
		b.mu.Unlock()
	}()

	if err := b.Publish(ctx, topic, msg, clusterbus.PublishOptions{}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var replies []clusterbus.Envelope
	for {
		select {
		case <-ctx.Done():
			if len(replies) == 0 {
				return nil, rerr.NewClusterTimeout(topic, timeout.String())
			}
			return replies, nil
		case env := <-waitCh:
			replies = append(replies, env)
			if opts.FirstReplyOnly {
				return replies, nil
			}
			if opts.ExpectedReplies > 0 && len(replies) >= opts.ExpectedReplies {
				return replies, nil
			}
		}
	}
}

func (b *Bus) routeReply(_ context.Context, env clusterbus.Envelope) ([]byte, error) {
	b.mu.Lock()
	ch, ok := b.waiters[env.CorrelationID]
	b.mu.Unlock()
	if ok {
		select {
		case ch <- env:
		default:
		}
	}
	return nil, nil
}

// Reply publishes msg to topic+".reply", preserving CorrelationID so the
// requester's Request call can route it.
func (b *Bus) Reply(ctx context.Context, topic string, msg clusterbus.Envelope) error {
	return b.Publish(ctx, topic+".reply", msg, clusterbus.PublishOptions{})
}

func (b *Bus) Close() error {
	b.mu.Lock()
	for _, cancel := range b.cancels {
		cancel()
	}
	b.mu.Unlock()
	b.client.Close()
	return nil
}
