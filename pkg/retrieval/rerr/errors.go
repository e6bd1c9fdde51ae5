// Package rerr defines the error kinds surfaced by the retrieval core.
//
// Callers should use errors.As against these types rather than matching on
// error strings; every constructor wraps an optional underlying cause with
// %w so the chain survives fmt.Errorf wrapping further up the stack.
package rerr

import "fmt"

// ValidationError reports missing or malformed input: required metadata,
// vector dimension mismatch, an empty vector.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// QuotaError reports that a tenant is over its usage budget.
type QuotaError struct {
	TenantKey string
	Limit     int64
	Used      int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: used %d of %d", e.TenantKey, e.Used, e.Limit)
}

func NewQuotaError(tenantKey string, used, limit int64) error {
	return &QuotaError{TenantKey: tenantKey, Used: used, Limit: limit}
}

// NotFoundError reports a delete/update/read against a missing entry. It is
// non-fatal to callers: it may legitimately trigger a cluster broadcast.
type NotFoundError struct {
	Kind string // "document", "vector", "posting"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IOError reports a disk snapshot/restore failure. The in-memory source of
// truth is retained; callers should preserve their dirty flag so the next
// autosave tick retries.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// ClusterTimeout reports an RPC expiry against the cluster bus. Callers
// degrade to a local-only view rather than fail the whole operation.
type ClusterTimeout struct {
	Topic   string
	Timeout string
}

func (e *ClusterTimeout) Error() string {
	return fmt.Sprintf("cluster rpc timeout on %s after %s", e.Topic, e.Timeout)
}

func NewClusterTimeout(topic, timeout string) error {
	return &ClusterTimeout{Topic: topic, Timeout: timeout}
}

// EmbeddingError reports that the embedding callback returned an error or a
// nil vector. Ingest aborts for the shard; query aborts for that request.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func NewEmbeddingError(err error) error {
	return &EmbeddingError{Err: err}
}

// IndexInconsistent reports a partial delete/update cascade. It is logged;
// the caller may schedule a full rebuild, but none is triggered automatically.
type IndexInconsistent struct {
	TenantKey string
	Reason    string
	Causes    []error
}

func (e *IndexInconsistent) Error() string {
	return fmt.Sprintf("index inconsistent for %s: %s (%d causes)", e.TenantKey, e.Reason, len(e.Causes))
}

func NewIndexInconsistent(tenantKey, reason string, causes []error) error {
	return &IndexInconsistent{TenantKey: tenantKey, Reason: reason, Causes: causes}
}
