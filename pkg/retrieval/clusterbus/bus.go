// Package clusterbus defines the typed publish/subscribe and
// request/reply transport between process replicas. Cross-node calls
// dispatch through Verb, a closed enum of RPC operations with typed
// payloads, rather than by string-named function lookup.
package clusterbus

import (
	"context"
	"time"
)

// Verb enumerates the cross-node operations the TF-IDF engine needs.
// Adding a new cross-node capability means adding a Verb, not a new
// stringly-typed function name.
type Verb string

const (
	VerbQueryPostings Verb = "QueryPostings"
	VerbApplyDelete   Verb = "ApplyDelete"
	VerbApplyUpdate   Verb = "ApplyUpdate"
)

// Envelope is one message exchanged over the bus. Tenant carries the
// tenant key string the receiving peer uses to look up the right
// TenantIndex before executing Verb against Payload. CreationData is not
// set by the adapters in this package, and the redpanda Bus does not
// transmit it.
type Envelope struct {
	Verb         Verb
	Tenant       string
	CreationData []byte
	Payload      []byte
	CorrelationID string
}

// PublishOptions configures Publish.
type PublishOptions struct {
	// ExternalOnly marks a publish as a cross-node broadcast rather than
	// a local event: the caller has already applied the change locally
	// and only wants peers to pick it up. Broker-backed Bus
	// implementations ignore it, since producing to a topic never
	// replays into the producer's own call stack. The in-process Bus
	// still delivers it to its subscribers, since those subscriptions
	// are standing in for the peers that would otherwise receive it.
	ExternalOnly bool
}

// RequestOptions configures Request.
type RequestOptions struct {
	FirstReplyOnly  bool
	ExpectedReplies int // resolve as soon as this many replies arrive, if > 0
}

// Handler processes one inbound Envelope and optionally returns a reply
// payload.
type Handler func(ctx context.Context, msg Envelope) (reply []byte, err error)

// Bus is the narrow transport surface every adapter implements.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Envelope, opts PublishOptions) error
	Subscribe(ctx context.Context, topic string, handler Handler) (unsubscribe func() error, err error)
	Request(ctx context.Context, topic string, msg Envelope, timeout time.Duration, opts RequestOptions) ([]Envelope, error)
	Reply(ctx context.Context, topic string, msg Envelope) error
	Close() error
}

// Well-known topics.
const (
	TopicFunctionCall = "tfidf.functioncall"
	TopicRemoveDoc    = "tfidf.rmdoc"
	TopicUpdateDoc    = "tfidf.updatedoc"
	TopicFileProgress = "aidb.file.progress"
)
