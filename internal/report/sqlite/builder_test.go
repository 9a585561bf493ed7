package sqlite

import (
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

func hitsPtr(n int64) *int64 { return &n }

func TestBuilderInsertAndBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.sqlite")

	b, err := NewBuilder(dbPath)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	file, err := b.InsertFile("src/main.go")
	if err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	upload, err := b.InsertRawUpload(models.RawUpload{JobName: "CI"})
	if err != nil {
		t.Fatalf("InsertRawUpload: %v", err)
	}

	sample, err := b.InsertCoverageSample(models.CoverageSample{
		RawUploadID: upload.ID, SourceFileID: file.ID, LineNo: 1, Type: models.CoverageLine, Hits: hitsPtr(1),
	})
	if err != nil {
		t.Fatalf("InsertCoverageSample: %v", err)
	}
	if sample.LocalSampleID != 0 {
		t.Errorf("expected first local_sample_id 0, got %d", sample.LocalSampleID)
	}

	second, err := b.InsertCoverageSample(models.CoverageSample{
		RawUploadID: upload.ID, SourceFileID: file.ID, LineNo: 2, Type: models.CoverageLine, Hits: hitsPtr(0),
	})
	if err != nil {
		t.Fatalf("InsertCoverageSample: %v", err)
	}
	if second.LocalSampleID != 1 {
		t.Errorf("expected dense local_sample_id 1, got %d", second.LocalSampleID)
	}

	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r.Close()

	files, err := r.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].Path != "src/main.go" {
		t.Errorf("unexpected files: %+v", files)
	}

	totals, err := r.Totals()
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Files != 1 || totals.Lines != 2 || totals.Hits != 1 || totals.Misses != 1 {
		t.Errorf("unexpected totals: %+v", totals)
	}
}

func TestBuilderAbortLeavesNoReport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.sqlite")

	b, err := NewBuilder(dbPath)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := b.InsertFile("a.go"); err != nil {
		t.Fatalf("InsertFile: %v", err)
	}
	if err := b.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	r, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	files, err := r.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected aborted builder to leave no rows, got %+v", files)
	}
}

func TestMergeReusesFilesAndContexts(t *testing.T) {
	path1 := filepath.Join(t.TempDir(), "one.sqlite")
	path2 := filepath.Join(t.TempDir(), "two.sqlite")

	b1, err := NewBuilder(path1)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	file1, _ := b1.InsertFile("shared.go")
	upload1, _ := b1.InsertRawUpload(models.RawUpload{Name: "first"})
	_, err = b1.InsertCoverageSample(models.CoverageSample{
		RawUploadID: upload1.ID, SourceFileID: file1.ID, LineNo: 1, Type: models.CoverageLine, Hits: hitsPtr(1),
	})
	if err != nil {
		t.Fatalf("InsertCoverageSample: %v", err)
	}
	r1, err := b1.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r1.Close()

	b2, err := NewBuilder(path2)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	file2, _ := b2.InsertFile("shared.go")
	upload2, _ := b2.InsertRawUpload(models.RawUpload{Name: "second"})
	_, err = b2.InsertCoverageSample(models.CoverageSample{
		RawUploadID: upload2.ID, SourceFileID: file2.ID, LineNo: 2, Type: models.CoverageLine, Hits: hitsPtr(0),
	})
	if err != nil {
		t.Fatalf("InsertCoverageSample: %v", err)
	}
	r2, err := b2.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer r2.Close()

	if err := r1.Merge(r2); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	files, err := r1.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected merge to reuse shared.go by path, got %d files: %+v", len(files), files)
	}

	uploads, err := r1.ListRawUploads()
	if err != nil {
		t.Fatalf("ListRawUploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Errorf("expected 2 raw uploads after merge, got %d", len(uploads))
	}

	totals, err := r1.Totals()
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Lines != 2 || totals.Hits != 1 || totals.Misses != 1 {
		t.Errorf("unexpected merged totals: %+v", totals)
	}
}
