// Package models defines the relational coverage entities that make up a
// single report: source files, raw uploads, contexts, and the per-line
// coverage samples (and their branch/method/span detail rows) that a
// report's sessions contribute.
package models

import "encoding/json"

// ContextKind distinguishes the two kinds of Context a row can tag.
type ContextKind string

const (
	ContextTestCase ContextKind = "test_case"
	ContextUpload   ContextKind = "upload"
)

// CoverageType classifies a CoverageSample.
type CoverageType string

const (
	CoverageLine   CoverageType = "line"
	CoverageBranch CoverageType = "branch"
	CoverageMethod CoverageType = "method"
)

// BranchFormat classifies how a BranchesData descriptor string is shaped.
type BranchFormat string

const (
	BranchBlockAndBranch BranchFormat = "block_and_branch"
	BranchCondition      BranchFormat = "condition"
	BranchLine           BranchFormat = "line"
)

// SourceFile is a unique path within a report.
type SourceFile struct {
	ID   int64
	Path string
}

// RawUpload is one session's submission of coverage data. Every string field
// is optional; Flags and SessionExtras carry arbitrary upstream JSON.
type RawUpload struct {
	ID            int64
	Timestamp     int64 // unix seconds; zero if absent
	RawUploadURL  string
	Flags         json.RawMessage
	Provider      string
	Build         string
	Name          string
	JobName       string
	CIRunURL      string
	State         string
	Env           string
	SessionType   string
	SessionExtras json.RawMessage
}

// Context is a tag (test case or upload) attachable to sub-sample rows via
// ContextAssoc. (Kind, Name) is unique per report.
type Context struct {
	ID   int64
	Kind ContextKind
	Name string
}

// CoverageSample is the measurement for one (raw_upload, source_file,
// line_no) triple. LocalSampleID is dense within RawUploadID.
type CoverageSample struct {
	RawUploadID   int64
	SourceFileID  int64
	LocalSampleID int64
	LineNo        int64
	Type          CoverageType

	// Hits is required when Type == CoverageLine.
	Hits *int64

	// HitBranches/TotalBranches are both required when Type == CoverageBranch.
	HitBranches   *int64
	TotalBranches *int64
}

// BranchesData refines a CoverageSample of type Branch. LocalBranchID is
// dense within RawUploadID, like CoverageSample.LocalSampleID; LocalSampleID
// references the CoverageSample it refines.
type BranchesData struct {
	RawUploadID   int64
	SourceFileID  int64
	LocalBranchID int64
	LocalSampleID int64
	Hits          int64
	Format        BranchFormat
	Descriptor    string
}

// MethodData refines a CoverageSample of type Method. LocalMethodID is dense
// within RawUploadID; LocalSampleID references the CoverageSample it refines.
type MethodData struct {
	RawUploadID        int64
	SourceFileID       int64
	LocalMethodID      int64
	LocalSampleID      int64
	LineNo             int64
	HitBranches        *int64
	TotalBranches      *int64
	HitComplexityPaths *int64
	TotalComplexity    *int64
}

// SpanData is a sub-line span (a "partial") with its own hit count. At least
// one of StartLine/EndLine is set. LocalSpanID is dense within RawUploadID;
// LocalSampleID optionally references the CoverageSample it belongs to.
type SpanData struct {
	RawUploadID   int64
	SourceFileID  int64
	LocalSpanID   int64
	LocalSampleID *int64
	StartLine     *int64
	StartCol      *int64
	EndLine       *int64
	EndCol        *int64
	Hits          int64
}

// ContextAssoc associates a Context with exactly one of a sample, branch,
// method, or span row, identified by the relevant local id.
type ContextAssoc struct {
	ContextID     int64
	RawUploadID   int64
	LocalSampleID *int64
	LocalBranchID *int64
	LocalMethodID *int64
	LocalSpanID   *int64
}

// ReportTotals aggregates counts derivable from a report's samples. It has
// no spec.md module of its own; it backs Report.Totals and Property 1's
// round-trip equality check.
type ReportTotals struct {
	Files           int
	Lines           int
	Hits            int
	Misses          int
	Partials        int
	Branches        int
	Methods         int
	HitComplexity   int
	TotalComplexity int
}
