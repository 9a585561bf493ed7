// Package report defines the capability surface shared by every parser and
// the serializer: an insert-only ReportBuilder that a parse drives, and the
// read-only Report view that build() hands back.
package report

import "git.home.luguber.info/inful/pyreport/internal/report/models"

// Report is the read-only, frozen view produced by ReportBuilder.Build. All
// listing methods return rows in ascending id / line_no order.
type Report interface {
	ListFiles() ([]models.SourceFile, error)
	ListRawUploads() ([]models.RawUpload, error)
	ListContexts() ([]models.Context, error)

	// ListSamplesForFile returns every CoverageSample recorded against a
	// source file, across all uploads, ordered by line_no then raw_upload_id.
	ListSamplesForFile(sourceFileID int64) ([]models.CoverageSample, error)

	// ListContextsForSample returns the contexts associated (via
	// ContextAssoc) with a given (raw_upload_id, local_sample_id) sample.
	ListContextsForSample(rawUploadID, localSampleID int64) ([]models.Context, error)

	// ListBranchesDataForFile, ListMethodDataForFile, and ListSpanDataForFile
	// return every detail row for a file across all uploads, for the
	// serializer to group by (raw_upload_id, local_sample_id) alongside
	// ListSamplesForFile.
	ListBranchesDataForFile(sourceFileID int64) ([]models.BranchesData, error)
	ListMethodDataForFile(sourceFileID int64) ([]models.MethodData, error)
	ListSpanDataForFile(sourceFileID int64) ([]models.SpanData, error)

	// Totals aggregates counts across every file and upload in the report.
	Totals() (models.ReportTotals, error)

	// Merge inserts every row of other into this report. Files and contexts
	// already present are reused; raw uploads and their samples are added
	// with freshly assigned ids.
	Merge(other Report) error

	// Close releases the underlying backing store.
	Close() error
}

// ReportBuilder is the abstract insert-only capability described in §4.4.
// Implementations must be transactional as a whole: a failed Build leaves no
// partial report observable.
type ReportBuilder interface {
	InsertFile(path string) (models.SourceFile, error)
	InsertContext(kind models.ContextKind, name string) (models.Context, error)
	InsertRawUpload(upload models.RawUpload) (models.RawUpload, error)

	// InsertCoverageSample assigns a dense LocalSampleID within
	// sample.RawUploadID and returns the sample with that id set.
	InsertCoverageSample(sample models.CoverageSample) (models.CoverageSample, error)

	// MultiInsertCoverageSample bulk-inserts samples that share a
	// RawUploadID, assigning contiguous local ids in order.
	MultiInsertCoverageSample(samples []models.CoverageSample) ([]models.CoverageSample, error)
	MultiInsertBranchesData(rows []models.BranchesData) ([]models.BranchesData, error)
	MultiInsertMethodData(rows []models.MethodData) ([]models.MethodData, error)
	MultiInsertSpanData(rows []models.SpanData) ([]models.SpanData, error)
	MultiInsertContextAssoc(rows []models.ContextAssoc) ([]models.ContextAssoc, error)

	AssociateContext(assoc models.ContextAssoc) (models.ContextAssoc, error)

	// Build freezes the in-progress report into a read-only Report,
	// transferring ownership away from the builder.
	Build() (Report, error)
}
