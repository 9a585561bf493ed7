package eventstore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventSerialization(t *testing.T) {
	jobID := testJobID

	tests := []struct {
		name      string
		createFn  func() (Event, error)
		eventType string
	}{
		{
			name: "IngestStarted",
			createFn: func() (Event, error) {
				return NewIngestStarted(jobID, IngestStartedMeta{Driver: "fsnotify", Source: "./inbox/abc.json", ReportBytes: 1024, ChunksBytes: 4096})
			},
			eventType: "IngestStarted",
		},
		{
			name: "IngestCompleted",
			createFn: func() (Event, error) {
				return NewIngestCompleted(jobID, 42, 150*time.Millisecond)
			},
			eventType: "IngestCompleted",
		},
		{
			name: "IngestFailed",
			createFn: func() (Event, error) {
				return NewIngestFailed(jobID, "parser_invalid_json", "malformed JSON")
			},
			eventType: "IngestFailed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := tt.createFn()
			if err != nil {
				t.Fatalf("failed to create event: %v", err)
			}

			if event.JobID() != jobID {
				t.Errorf("expected job_id %s, got %s", jobID, event.JobID())
			}
			if event.Type() != tt.eventType {
				t.Errorf("expected event_type %s, got %s", tt.eventType, event.Type())
			}
			if event.Timestamp().IsZero() {
				t.Error("timestamp should not be zero")
			}

			payload := event.Payload()
			if len(payload) == 0 {
				t.Error("payload should not be empty")
			}

			var data map[string]any
			if err := json.Unmarshal(payload, &data); err != nil {
				t.Errorf("failed to unmarshal payload: %v", err)
			}
		})
	}
}

func TestIngestStartedFields(t *testing.T) {
	jobID := testJobID
	meta := IngestStartedMeta{Driver: "nats", Source: "pyreport.ingest", ReportBytes: 512, ChunksBytes: 2048}

	event, err := NewIngestStarted(jobID, meta)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if event.Meta.Driver != meta.Driver {
		t.Errorf("expected driver %s, got %s", meta.Driver, event.Meta.Driver)
	}
	if event.Meta.Source != meta.Source {
		t.Errorf("expected source %s, got %s", meta.Source, event.Meta.Source)
	}
}

func TestIngestCompletedFields(t *testing.T) {
	jobID := testJobID
	event, err := NewIngestCompleted(jobID, 7, 80*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	if event.SamplesInserted != 7 {
		t.Errorf("expected samples_inserted 7, got %d", event.SamplesInserted)
	}
	if event.Duration != 80*time.Millisecond {
		t.Errorf("expected duration 80ms, got %v", event.Duration)
	}
}

func TestIngestFailedFields(t *testing.T) {
	jobID := testJobID
	event, err := NewIngestFailed(jobID, "parser_unexpected_eof", "unexpected end of input")
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	if event.Kind != "parser_unexpected_eof" {
		t.Errorf("expected kind parser_unexpected_eof, got %s", event.Kind)
	}
	if event.Error != "unexpected end of input" {
		t.Errorf("expected error message, got %s", event.Error)
	}
}
