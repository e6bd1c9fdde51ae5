// Package coordinator implements the file-indexing coordinator: it
// reacts to Drive events, drives ingest/uningest/rename on the TF-IDF
// and vector engines, enforces per-tenant quota, and emits progress
// events. Each FileEvent is dispatched by type to one handler method,
// run under the tenant's single-writer lock.
package coordinator

import "time"

// EventType enumerates the Drive event kinds the coordinator reacts to.
type EventType int

const (
	FileCreated EventType = iota
	FileModified
	FileDeleted
	FileRenamed
)

func (t EventType) String() string {
	switch t {
	case FileCreated:
		return "FILE_CREATED"
	case FileModified:
		return "FILE_MODIFIED"
	case FileDeleted:
		return "FILE_DELETED"
	case FileRenamed:
		return "FILE_RENAMED"
	default:
		return "UNKNOWN"
	}
}

// FileEvent describes one Drive transition the coordinator must apply to
// both engines.
type FileEvent struct {
	Type       EventType
	TenantKey  string // (userId, org, appId).String()
	CMSPath    string
	FullPath   string
	OldCMSPath string // populated only for FileRenamed
	OldFullPath string
	DocID      string
	Language   string
}

// ProgressStage enumerates the processing lifecycle events the
// coordinator emits for one file.
type ProgressStage int

const (
	StageProcessing ProgressStage = iota
	StageProgress
	StageProcessed
)

// ProgressEvent describes one step of processing a file, identified by
// (tenantKey, cmspath), and is handed to the configured ProgressSink.
// The coordinator sets Done only on the final StageProcessed event. This
// package does not store events, so nothing here stops a later-arriving
// event with Done false from superseding one with Done true.
type ProgressEvent struct {
	Stage       ProgressStage
	TenantKey   string
	CMSPath     string
	StepNum     int
	TotalSteps  int
	Done        bool
	Err         error
	EmittedAt   time.Time
}

// Percent returns StepNum/TotalSteps as a percentage, or 100 once Done.
func (p ProgressEvent) Percent() float64 {
	if p.Done {
		return 100
	}
	if p.TotalSteps == 0 {
		return 0
	}
	return 100 * float64(p.StepNum) / float64(p.TotalSteps)
}
