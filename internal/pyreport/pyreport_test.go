package pyreport

import (
	"bytes"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/pyreport/internal/report/sqlite"
)

func newBuilder(t *testing.T) *sqlite.Builder {
	t.Helper()
	b, err := sqlite.NewBuilder(filepath.Join(t.TempDir(), "report.sqlite"))
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

// Property 1: parse(emit(report)) preserves totals.
func TestRoundTripPreservesTotals(t *testing.T) {
	reportJSON := []byte(`{
		"files": {"a.rs": [0, {}, [], null], "b.rs": [1, {}, [], null]},
		"sessions": {"0": {"j": "CI"}, "1": {"j": "local"}}
	}`)
	chunksData := []byte(
		"{}\n" +
			`[1, null, [[0, 1]]]` + "\n" +
			`[1, "b", [[0, "1/2"], [1, 2]]]` + "\n" +
			"<<<<< end_of_chunk >>>>>\n" +
			"null\n",
	)

	b1 := newBuilder(t)
	if err := ParsePyreport(reportJSON, chunksData, b1); err != nil {
		t.Fatalf("ParsePyreport: %v", err)
	}
	r1, err := b1.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r1.Close()

	wantTotals, err := r1.Totals()
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}

	var jsonOut, chunksOut bytes.Buffer
	if err := EmitPyreport(r1, &jsonOut, &chunksOut); err != nil {
		t.Fatalf("EmitPyreport: %v", err)
	}

	b2 := newBuilder(t)
	if err := ParsePyreport(jsonOut.Bytes(), chunksOut.Bytes(), b2); err != nil {
		t.Fatalf("re-parse ParsePyreport: %v\nreport-json:\n%s\nchunks:\n%s", err, jsonOut.String(), chunksOut.String())
	}
	r2, err := b2.Build()
	if err != nil {
		t.Fatalf("re-parse Build: %v", err)
	}
	defer r2.Close()

	gotTotals, err := r2.Totals()
	if err != nil {
		t.Fatalf("re-parse Totals: %v", err)
	}

	if gotTotals != wantTotals {
		t.Errorf("totals changed across round trip: got %+v, want %+v", gotTotals, wantTotals)
	}
}
