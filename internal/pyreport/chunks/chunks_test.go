package chunks

import (
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/pyreport/internal/report/models"
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

func drain(t *testing.T, p *Parser) []ParserEvent {
	t.Helper()
	var events []ParserEvent
	for {
		ev, err := p.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
		if ev.Kind == EventEOF {
			return events
		}
	}
}

// S3: file header + empty chunk header, no samples.
func TestFileHeaderThenEmptyChunkHeader(t *testing.T) {
	b := newBuilder(t)
	data := []byte("{}\n<<<<< end_of_header >>>>>\n{}\n")

	p := NewParser(data, map[int]int64{}, map[int]int64{}, b)
	events := drain(t, p)

	wantKinds := []EventKind{EventFileHeader, EventChunkHeader, EventEOF}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	for i, k := range wantKinds {
		if events[i].Kind != k {
			t.Errorf("event %d: got %s, want %s", i, events[i].Kind, k)
		}
	}
}

// S4: single LineRecord, hits=1.
func TestSingleLineRecordHits(t *testing.T) {
	b := newBuilder(t)
	file, err := b.InsertFile("a.rs")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	upload, err := b.InsertRawUpload(models.RawUpload{})
	if err != nil {
		t.Fatalf("InsertRawUpload: %v", err)
	}

	data := []byte("{}\n[1, null, [[0, 1]]]\n")
	p := NewParser(data, map[int]int64{0: file.ID}, map[int]int64{0: upload.ID}, b)

	events := drain(t, p)
	wantKinds := []EventKind{EventChunkHeader, EventLineRecord, EventEOF}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	if events[1].LineNo != 1 {
		t.Errorf("line_no = %d, want 1", events[1].LineNo)
	}

	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r.Close()

	samples, err := r.ListSamplesForFile(file.ID)
	if err != nil {
		t.Fatalf("ListSamplesForFile: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected one sample, got %d", len(samples))
	}
	s := samples[0]
	if s.Type != models.CoverageLine || s.Hits == nil || *s.Hits != 1 {
		t.Errorf("unexpected sample: %+v", s)
	}
	if s.RawUploadID != upload.ID || s.LineNo != 1 {
		t.Errorf("unexpected sample linkage: %+v", s)
	}
}

// S5: "1/2" fraction under coverage_type=null normalizes to a Branch sample.
func TestFractionUnderNullTypeNormalizesToBranch(t *testing.T) {
	b := newBuilder(t)
	file, err := b.InsertFile("a.rs")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	upload, err := b.InsertRawUpload(models.RawUpload{})
	if err != nil {
		t.Fatalf("InsertRawUpload: %v", err)
	}

	data := []byte(`{}` + "\n" + `[1, null, [[0, "1/2"]]]` + "\n")
	p := NewParser(data, map[int]int64{0: file.ID}, map[int]int64{0: upload.ID}, b)
	drain(t, p)

	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r.Close()

	samples, err := r.ListSamplesForFile(file.ID)
	if err != nil {
		t.Fatalf("ListSamplesForFile: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected one sample, got %d", len(samples))
	}
	s := samples[0]
	if s.Type != models.CoverageBranch {
		t.Fatalf("type = %s, want branch", s.Type)
	}
	if s.HitBranches == nil || *s.HitBranches != 1 || s.TotalBranches == nil || *s.TotalBranches != 2 {
		t.Errorf("unexpected branch counts: %+v", s)
	}
}

// Property 2: line numbers strictly increase as line records are consumed,
// with blank lines between populated ones still advancing currentLine.
func TestMonotoneLineNumbers(t *testing.T) {
	b := newBuilder(t)
	file, err := b.InsertFile("a.rs")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	upload, err := b.InsertRawUpload(models.RawUpload{})
	if err != nil {
		t.Fatalf("InsertRawUpload: %v", err)
	}

	data := []byte("{}\n[1, null, [[0, 1]]]\n\n[1, null, [[0, 2]]]\n")
	p := NewParser(data, map[int]int64{0: file.ID}, map[int]int64{0: upload.ID}, b)

	var lineNos []int
	for {
		ev, err := p.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev.Kind == EventEOF {
			break
		}
		if ev.Kind == EventLineRecord {
			lineNos = append(lineNos, ev.LineNo)
		}
	}

	if len(lineNos) != 2 || lineNos[0] != 1 || lineNos[1] != 3 {
		t.Errorf("unexpected line numbers: %v", lineNos)
	}
}

// Property 3: dense local sample ids within a raw_upload_id form {0..N-1}.
func TestDenseLocalSampleIDs(t *testing.T) {
	b := newBuilder(t)
	file, err := b.InsertFile("a.rs")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	upload, err := b.InsertRawUpload(models.RawUpload{})
	if err != nil {
		t.Fatalf("InsertRawUpload: %v", err)
	}

	data := []byte("{}\n[1, null, [[0, 1]]]\n[1, null, [[0, 1]]]\n[1, null, [[0, 1]]]\n")
	p := NewParser(data, map[int]int64{0: file.ID}, map[int]int64{0: upload.ID}, b)
	drain(t, p)

	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r.Close()

	samples, err := r.ListSamplesForFile(file.ID)
	if err != nil {
		t.Fatalf("ListSamplesForFile: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s.LocalSampleID != int64(i) {
			t.Errorf("sample %d: local_sample_id = %d, want %d", i, s.LocalSampleID, i)
		}
	}
}

// Property 4: normalization is idempotent.
func TestNormalizeIdempotent(t *testing.T) {
	cases := []struct {
		name string
		v    coverageValue
		typ  models.CoverageType
	}{
		{"partial", coverageValue{kind: valuePartial}, models.CoverageLine},
		{"fraction-method", coverageValue{kind: valueFraction, hitBranches: 1, totalBranches: 2}, models.CoverageMethod},
		{"fraction-line", coverageValue{kind: valueFraction, hitBranches: 1, totalBranches: 2}, models.CoverageLine},
		{"hits-branch", coverageValue{kind: valueHits, hits: 1}, models.CoverageBranch},
		{"hits-line", coverageValue{kind: valueHits, hits: 1}, models.CoverageLine},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v1, t1 := normalize(c.v, c.typ)
			v2, t2 := normalize(v1, t1)
			if v1 != v2 || t1 != t2 {
				t.Errorf("normalize not idempotent: first=%+v/%s second=%+v/%s", v1, t1, v2, t2)
			}
		})
	}
}

// An unknown session index referenced by a LineRecord is a semantic error.
func TestUnknownSessionRejected(t *testing.T) {
	b := newBuilder(t)
	file, err := b.InsertFile("a.rs")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}

	data := []byte("{}\n[1, null, [[99, 1]]]\n")
	p := NewParser(data, map[int]int64{0: file.ID}, map[int]int64{}, b)

	if _, err := p.Next(); err != nil {
		t.Fatalf("chunk header Next: %v", err)
	}
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for unknown session index")
	}
}

// A \r\n-terminated delimiter line must not be accepted as the delimiter.
func TestCarriageReturnRejected(t *testing.T) {
	b := newBuilder(t)
	data := []byte("{}\r\n<<<<< end_of_header >>>>>\r\n{}\n")
	p := NewParser(data, map[int]int64{}, map[int]int64{}, b)

	ev, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Kind == EventFileHeader {
		t.Fatal("expected \\r\\n end_of_header line to be rejected, not accepted as a file header")
	}
}
