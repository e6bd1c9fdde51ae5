package coordinator

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"

	"github.com/jrepp/retrieval-core/pkg/retrieval/rerr"
	"github.com/jrepp/retrieval-core/pkg/retrieval/tfidx"
	"github.com/jrepp/retrieval-core/pkg/retrieval/vectorindex"
)

// TenantIndex pairs one tenant's TF-IDF and vector engines.
type TenantIndex struct {
	TFIDF  *tfidx.Engine
	Vector *vectorindex.Engine
}

// IndexingConfig holds the chunking fields handed to the vector engine's
// ingest call.
type IndexingConfig struct {
	ChunkSize  int
	Separators []string
	Overlap    int
}

func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{ChunkSize: 1000, Separators: []string{"\n\n", "\n", ". ", " "}, Overlap: 100}
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

func WithQuota(q Quota) Option {
	return func(c *Coordinator) { c.quota = q }
}

func WithProgressSink(sink ProgressSink) Option {
	return func(c *Coordinator) { c.progress = sink }
}

func WithLogger(l hclog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// Coordinator serializes mutations per tenant and translates Drive
// events into ingest/uningest/rename calls on both engines.
type Coordinator struct {
	drive    Drive
	embed    vectorindex.Embedder
	cfg      IndexingConfig
	quota    Quota
	progress ProgressSink
	logger   hclog.Logger

	mu      sync.Mutex
	tenants map[string]*TenantIndex
	writers map[string]*sync.Mutex // one single-writer lock per tenant
}

func New(drive Drive, embed vectorindex.Embedder, cfg IndexingConfig, opts ...Option) *Coordinator {
	c := &Coordinator{
		drive:   drive,
		embed:   embed,
		cfg:     cfg,
		logger:  hclog.NewNullLogger(),
		tenants: make(map[string]*TenantIndex),
		writers: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register attaches a tenant's engine pair so subsequent FileEvents for
// that tenant key are routed to it.
func (c *Coordinator) Register(tenantKey string, index *TenantIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants[tenantKey] = index
}

func (c *Coordinator) writerLock(tenantKey string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.writers[tenantKey]
	if !ok {
		lock = &sync.Mutex{}
		c.writers[tenantKey] = lock
	}
	return lock
}

func (c *Coordinator) index(tenantKey string) (*TenantIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.tenants[tenantKey]
	if !ok {
		return nil, rerr.NewNotFoundError("tenant", tenantKey)
	}
	return idx, nil
}

func (c *Coordinator) emit(ctx context.Context, ev ProgressEvent) {
	if c.progress == nil {
		return
	}
	ev.EmittedAt = time.Now()
	if err := c.progress.Publish(ctx, ev); err != nil {
		c.logger.Warn("failed to publish progress event", "tenant", ev.TenantKey, "cmspath", ev.CMSPath, "error", err)
	}
}

// Handle applies one FileEvent to the tenant's engines, serialized
// against any other in-flight mutation for the same tenant.
func (c *Coordinator) Handle(ctx context.Context, ev FileEvent) error {
	lock := c.writerLock(ev.TenantKey)
	lock.Lock()
	defer lock.Unlock()

	idx, err := c.index(ev.TenantKey)
	if err != nil {
		return err
	}

	c.emit(ctx, ProgressEvent{Stage: StageProcessing, TenantKey: ev.TenantKey, CMSPath: ev.CMSPath})

	var handleErr error
	switch ev.Type {
	case FileCreated:
		handleErr = c.handleCreated(ctx, idx, ev)
	case FileModified:
		handleErr = c.handleModified(ctx, idx, ev)
	case FileDeleted:
		handleErr = c.handleDeleted(ctx, idx, ev)
	case FileRenamed:
		handleErr = c.handleRenamed(ctx, idx, ev)
	default:
		handleErr = fmt.Errorf("coordinator: unknown event type %v", ev.Type)
	}

	c.emit(ctx, ProgressEvent{
		Stage:      StageProcessed,
		TenantKey:  ev.TenantKey,
		CMSPath:    ev.CMSPath,
		StepNum:    1,
		TotalSteps: 1,
		Done:       true,
		Err:        handleErr,
	})
	return handleErr
}

func (c *Coordinator) handleCreated(ctx context.Context, idx *TenantIndex, ev FileEvent) error {
	if c.quota != nil {
		var estimatedBytes int64
		if info, err := os.Stat(ev.FullPath); err == nil {
			estimatedBytes = info.Size()
		}
		if err := c.quota.CheckAndReserve(ctx, ev.TenantKey, estimatedBytes); err != nil {
			return err
		}
	}

	text, err := c.readAll(ctx, ev.FullPath)
	if err != nil {
		return err
	}
	metadata := ev.metadata()

	c.emit(ctx, ProgressEvent{Stage: StageProgress, TenantKey: ev.TenantKey, CMSPath: ev.CMSPath, StepNum: 1, TotalSteps: 2})
	if _, err := idx.TFIDF.Create(ctx, text, metadata, ev.Language); err != nil {
		return err
	}

	c.emit(ctx, ProgressEvent{Stage: StageProgress, TenantKey: ev.TenantKey, CMSPath: ev.CMSPath, StepNum: 2, TotalSteps: 2})
	hashes, _, err := idx.Vector.Ingest(ctx, metadata, text, c.cfg.ChunkSize, c.cfg.Separators, c.cfg.Overlap, c.embed, false)
	if err != nil {
		// Ingest already rolls back that file's own vectors on error;
		// also undo the TF-IDF side so the two engines stay paired.
		_ = idx.TFIDF.Delete(ctx, metadata, true)
		return err
	}
	c.logger.Debug("ingested file", "cmspath", ev.CMSPath, "vector_chunks", len(hashes))
	return nil
}

func (c *Coordinator) handleModified(ctx context.Context, idx *TenantIndex, ev FileEvent) error {
	metadata := ev.metadata()
	if err := idx.TFIDF.Delete(ctx, metadata, true); err != nil {
		if _, ok := err.(*rerr.NotFoundError); !ok {
			return err
		}
	}
	for _, entry := range idx.Vector.FindByMetadata(fullPathFilter(ev.FullPath)) {
		_ = idx.Vector.Delete(ctx, entry.Hash)
	}
	return c.handleCreated(ctx, idx, ev)
}

func (c *Coordinator) handleDeleted(ctx context.Context, idx *TenantIndex, ev FileEvent) error {
	metadata := ev.metadata()
	if err := idx.TFIDF.Delete(ctx, metadata, true); err != nil {
		if _, ok := err.(*rerr.NotFoundError); !ok {
			return err
		}
	}

	var cascade *multierror.Error
	for _, entry := range idx.Vector.FindByMetadata(fullPathFilter(ev.FullPath)) {
		if err := idx.Vector.Delete(ctx, entry.Hash); err != nil {
			cascade = multierror.Append(cascade, err)
		}
	}
	if cascade != nil && cascade.Len() > 0 {
		return rerr.NewIndexInconsistent(ev.TenantKey, "partial vector-delete cascade", cascade.Errors)
	}
	return nil
}

func (c *Coordinator) handleRenamed(ctx context.Context, idx *TenantIndex, ev FileEvent) error {
	oldMetadata := map[string]string{"docid": ev.DocID, "cmspath": ev.OldCMSPath, "fullpath": ev.OldFullPath}
	newMetadata := ev.metadata()

	if err := idx.TFIDF.Update(ctx, oldMetadata, newMetadata, true); err != nil {
		if _, ok := err.(*rerr.NotFoundError); !ok {
			return err
		}
	}

	var cascade *multierror.Error
	for _, entry := range idx.Vector.FindByMetadata(fullPathFilter(ev.OldFullPath)) {
		rewritten := make(map[string]string, len(entry.Metadata))
		for k, v := range entry.Metadata {
			rewritten[k] = v
		}
		rewritten["cmspath"] = ev.CMSPath
		rewritten["fullpath"] = ev.FullPath
		// Update rewrites the text shard too, so carry the existing text over.
		_, text, err := idx.Vector.Read(ctx, entry.Hash, true)
		if err != nil {
			cascade = multierror.Append(cascade, err)
			continue
		}
		if _, err := idx.Vector.Update(ctx, entry.Hash, rewritten, text, nil); err != nil {
			cascade = multierror.Append(cascade, err)
		}
	}
	if cascade != nil && cascade.Len() > 0 {
		return rerr.NewIndexInconsistent(ev.TenantKey, "partial vector-rename cascade", cascade.Errors)
	}
	return nil
}

func fullPathFilter(fullPath string) func(map[string]string) bool {
	return func(metadata map[string]string) bool { return metadata["fullpath"] == fullPath }
}

func (ev FileEvent) metadata() map[string]string {
	return map[string]string{
		"docid":    ev.DocID,
		"cmspath":  ev.CMSPath,
		"fullpath": ev.FullPath,
		"langid":   ev.Language,
	}
}

func (c *Coordinator) readAll(ctx context.Context, path string) (string, error) {
	stream, err := c.drive.GetReadStream(ctx, path)
	if err != nil {
		return "", rerr.NewIOError("read", path, err)
	}
	defer stream.Close()
	data, err := io.ReadAll(stream)
	if err != nil {
		return "", rerr.NewIOError("read", path, err)
	}
	return string(data), nil
}
