package eventstore

import (
	"encoding/json"
	"time"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
)

// IngestStartedMeta contains typed metadata for ingest start events.
type IngestStartedMeta struct {
	Driver      string `json:"driver"`       // "fsnotify" or "nats"
	Source      string `json:"source"`       // inbox path or NATS subject
	ReportBytes int    `json:"report_bytes"` // size of the report-json payload
	ChunksBytes int    `json:"chunks_bytes"` // size of the chunks payload
}

// IngestStarted is emitted when an ingest driver picks up a report/chunks pair.
type IngestStarted struct {
	BaseEvent
	Meta IngestStartedMeta `json:"meta"`
}

// NewIngestStarted creates an IngestStarted event with typed metadata.
func NewIngestStarted(jobID string, meta IngestStartedMeta) (*IngestStarted, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.KindIo, coreerrors.SeverityFatal, "failed to marshal IngestStarted payload").
			WithContext("job_id", jobID)
	}

	return &IngestStarted{
		BaseEvent: BaseEvent{
			EventJobID:     jobID,
			EventType:      "IngestStarted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Meta: meta,
	}, nil
}

// IngestCompleted is emitted when parse_pyreport commits successfully.
type IngestCompleted struct {
	BaseEvent
	SamplesInserted int           `json:"samples_inserted"`
	Duration        time.Duration `json:"duration_ms"`
}

// NewIngestCompleted creates an IngestCompleted event.
func NewIngestCompleted(jobID string, samplesInserted int, duration time.Duration) (*IngestCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"samples_inserted": samplesInserted,
		"duration_ms":      duration.Milliseconds(),
	})
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.KindIo, coreerrors.SeverityFatal, "failed to marshal IngestCompleted payload").
			WithContext("job_id", jobID)
	}

	return &IngestCompleted{
		BaseEvent: BaseEvent{
			EventJobID:     jobID,
			EventType:      "IngestCompleted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		SamplesInserted: samplesInserted,
		Duration:        duration,
	}, nil
}

// IngestFailed is emitted when parse_pyreport aborts with a CoreError.
type IngestFailed struct {
	BaseEvent
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// NewIngestFailed creates an IngestFailed event.
func NewIngestFailed(jobID, kind, errorMsg string) (*IngestFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"kind":  kind,
		"error": errorMsg,
	})
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.KindIo, coreerrors.SeverityFatal, "failed to marshal IngestFailed payload").
			WithContext("job_id", jobID)
	}

	return &IngestFailed{
		BaseEvent: BaseEvent{
			EventJobID:     jobID,
			EventType:      "IngestFailed",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Kind:  kind,
		Error: errorMsg,
	}, nil
}
