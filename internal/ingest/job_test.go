package ingest

import (
	"context"
	"path/filepath"
	"testing"
)

func TestJobRunSuccessReturnsJobID(t *testing.T) {
	job := &Job{
		DBPath: filepath.Join(t.TempDir(), "report.sqlite"),
		Driver: "fsnotify",
	}

	reportJSON := []byte(`{"files": {"a.rs": [0, {}, [], null]}, "sessions": {"0": {}}}`)
	chunksData := []byte("{}\n" + `[1, null, [[0, 1]]]` + "\n" + "<<<<< end_of_chunk >>>>>\n")

	jobID, err := job.Run(context.Background(), Pair{Source: "a.json", ReportJSON: reportJSON, ChunksBytes: chunksData})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jobID == "" {
		t.Error("expected a non-empty job id")
	}
}

func TestJobRunFailureOnMalformedInput(t *testing.T) {
	job := &Job{DBPath: filepath.Join(t.TempDir(), "report.sqlite"), Driver: "fsnotify"}

	_, err := job.Run(context.Background(), Pair{Source: "bad.json", ReportJSON: []byte("not json"), ChunksBytes: nil})
	if err == nil {
		t.Fatal("expected an error for malformed report json")
	}
}
