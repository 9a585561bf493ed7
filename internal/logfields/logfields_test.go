package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"JobID", KeyJobID, "123", JobID("123")},
		{"Stage", KeyStage, "parse", Stage("parse")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "report.json", File("report.json")},
		{"Name", KeyName, "n", Name("n")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := ChunkIndex(3); v.Key != KeyChunkIndex {
		t.Fatalf("ChunkIndex key mismatch: %s", v.Key)
	}
	if v := LineNo(42); v.Key != KeyLineNo {
		t.Fatalf("LineNo key mismatch: %s", v.Key)
	}
	if v := SessionID(7); v.Key != KeySessionID {
		t.Fatalf("SessionID key mismatch: %s", v.Key)
	}
	if v := RawUploadID(99); v.Key != KeyRawUpload {
		t.Fatalf("RawUploadID key mismatch: %s", v.Key)
	}
	if v := Rows(10); v.Key != KeyRows {
		t.Fatalf("Rows key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
