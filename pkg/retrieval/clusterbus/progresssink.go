package clusterbus

import (
	"context"
	"encoding/json"

	"github.com/jrepp/retrieval-core/pkg/retrieval/coordinator"
)

// progressPayload is the wire shape for TopicFileProgress: subtype, org
// (which carries the full tenant key), cmspath, stepNum, totalSteps,
// done, and result (the error text, when there is one).
type progressPayload struct {
	Subtype    string `json:"subtype"` // "processing", "progress", "processed"
	Tenant     string `json:"org"`
	CMSPath    string `json:"cmspath"`
	StepNum    int    `json:"stepNum"`
	TotalSteps int    `json:"totalSteps"`
	Done       bool   `json:"done"`
	Result     string `json:"result,omitempty"`
}

// ProgressSink publishes coordinator.ProgressEvent notifications onto
// TopicFileProgress, so any process watching the cluster bus can render
// file-indexing progress regardless of which node is doing the work.
type ProgressSink struct {
	bus Bus
}

func NewProgressSink(bus Bus) *ProgressSink {
	return &ProgressSink{bus: bus}
}

func (s *ProgressSink) Publish(ctx context.Context, event coordinator.ProgressEvent) error {
	payload := progressPayload{
		Subtype:    stageSubtype(event.Stage),
		Tenant:     event.TenantKey,
		CMSPath:    event.CMSPath,
		StepNum:    event.StepNum,
		TotalSteps: event.TotalSteps,
		Done:       event.Done,
	}
	if event.Err != nil {
		payload.Result = event.Err.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, TopicFileProgress, Envelope{
		Verb:    VerbApplyUpdate,
		Tenant:  event.TenantKey,
		Payload: data,
	}, PublishOptions{})
}

func stageSubtype(stage coordinator.ProgressStage) string {
	switch stage {
	case coordinator.StageProcessing:
		return "processing"
	case coordinator.StageProgress:
		return "progress"
	case coordinator.StageProcessed:
		return "processed"
	default:
		return "unknown"
	}
}
