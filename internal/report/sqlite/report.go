package sqlite

import (
	"database/sql"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// Report is the frozen, read-only view Builder.Build hands back.
type Report struct {
	db   *sql.DB
	path string
}

// Open opens an existing report database for reading (or a fresh one, the
// schema being idempotent) without going through a Builder transaction.
// Used by cmd/pyreport's emit subcommand.
func Open(path string) (*Report, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, coreerrors.IoError("open sqlite database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, coreerrors.DbError("initialize schema", err)
	}
	return &Report{db: db, path: path}, nil
}

func (r *Report) ListFiles() ([]models.SourceFile, error) {
	rows, err := r.db.Query("SELECT id, path FROM source_files ORDER BY id")
	if err != nil {
		return nil, coreerrors.DbError("list files", err)
	}
	defer rows.Close()

	var out []models.SourceFile
	for rows.Next() {
		var f models.SourceFile
		if err := rows.Scan(&f.ID, &f.Path); err != nil {
			return nil, coreerrors.DbError("scan file row", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Report) ListRawUploads() ([]models.RawUpload, error) {
	rows, err := r.db.Query(`SELECT id, timestamp, raw_upload_url, flags, provider, build, name, job_name,
		ci_run_url, state, env, session_type, session_extras FROM raw_uploads ORDER BY id`)
	if err != nil {
		return nil, coreerrors.DbError("list raw uploads", err)
	}
	defer rows.Close()

	var out []models.RawUpload
	for rows.Next() {
		var u models.RawUpload
		var ts sql.NullInt64
		var url, provider, build, name, jobName, ciRunURL, state, env, sessionType sql.NullString
		var flags, sessionExtras sql.NullString
		err := rows.Scan(&u.ID, &ts, &url, &flags, &provider, &build, &name, &jobName,
			&ciRunURL, &state, &env, &sessionType, &sessionExtras)
		if err != nil {
			return nil, coreerrors.DbError("scan raw upload row", err)
		}
		u.Timestamp = ts.Int64
		u.RawUploadURL = fromNullString(url)
		u.Flags = fromNullJSON(flags)
		u.Provider = fromNullString(provider)
		u.Build = fromNullString(build)
		u.Name = fromNullString(name)
		u.JobName = fromNullString(jobName)
		u.CIRunURL = fromNullString(ciRunURL)
		u.State = fromNullString(state)
		u.Env = fromNullString(env)
		u.SessionType = fromNullString(sessionType)
		u.SessionExtras = fromNullJSON(sessionExtras)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Report) ListContexts() ([]models.Context, error) {
	rows, err := r.db.Query("SELECT id, kind, name FROM contexts ORDER BY id")
	if err != nil {
		return nil, coreerrors.DbError("list contexts", err)
	}
	defer rows.Close()

	var out []models.Context
	for rows.Next() {
		var c models.Context
		var kind string
		if err := rows.Scan(&c.ID, &kind, &c.Name); err != nil {
			return nil, coreerrors.DbError("scan context row", err)
		}
		c.Kind = models.ContextKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Report) ListSamplesForFile(sourceFileID int64) ([]models.CoverageSample, error) {
	rows, err := r.db.Query(`SELECT raw_upload_id, source_file_id, local_sample_id, line_no, type, hits, hit_branches, total_branches
		FROM coverage_samples WHERE source_file_id = ? ORDER BY line_no, raw_upload_id`, sourceFileID)
	if err != nil {
		return nil, coreerrors.DbError("list samples for file", err)
	}
	defer rows.Close()

	var out []models.CoverageSample
	for rows.Next() {
		var s models.CoverageSample
		var typ string
		var hits, hitBranches, totalBranches sql.NullInt64
		err := rows.Scan(&s.RawUploadID, &s.SourceFileID, &s.LocalSampleID, &s.LineNo, &typ, &hits, &hitBranches, &totalBranches)
		if err != nil {
			return nil, coreerrors.DbError("scan coverage sample row", err)
		}
		s.Type = models.CoverageType(typ)
		s.Hits = fromNullInt64(hits)
		s.HitBranches = fromNullInt64(hitBranches)
		s.TotalBranches = fromNullInt64(totalBranches)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Report) ListContextsForSample(rawUploadID, localSampleID int64) ([]models.Context, error) {
	rows, err := r.db.Query(`SELECT c.id, c.kind, c.name FROM contexts c
		JOIN context_assoc a ON a.context_id = c.id
		WHERE a.raw_upload_id = ? AND a.local_sample_id = ? ORDER BY c.id`, rawUploadID, localSampleID)
	if err != nil {
		return nil, coreerrors.DbError("list contexts for sample", err)
	}
	defer rows.Close()

	var out []models.Context
	for rows.Next() {
		var c models.Context
		var kind string
		if err := rows.Scan(&c.ID, &kind, &c.Name); err != nil {
			return nil, coreerrors.DbError("scan context row", err)
		}
		c.Kind = models.ContextKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Report) ListBranchesDataForFile(sourceFileID int64) ([]models.BranchesData, error) {
	rows, err := r.db.Query(`SELECT raw_upload_id, local_branch_id, local_sample_id, hits, format, descriptor
		FROM branches_data WHERE source_file_id = ? ORDER BY raw_upload_id, local_branch_id`, sourceFileID)
	if err != nil {
		return nil, coreerrors.DbError("list branches data for file", err)
	}
	defer rows.Close()

	var out []models.BranchesData
	for rows.Next() {
		var b models.BranchesData
		var format string
		if err := rows.Scan(&b.RawUploadID, &b.LocalBranchID, &b.LocalSampleID, &b.Hits, &format, &b.Descriptor); err != nil {
			return nil, coreerrors.DbError("scan branches data row", err)
		}
		b.SourceFileID = sourceFileID
		b.Format = models.BranchFormat(format)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Report) ListMethodDataForFile(sourceFileID int64) ([]models.MethodData, error) {
	rows, err := r.db.Query(`SELECT raw_upload_id, local_method_id, local_sample_id, line_no,
		hit_branches, total_branches, hit_complexity_paths, total_complexity
		FROM method_data WHERE source_file_id = ? ORDER BY raw_upload_id, local_method_id`, sourceFileID)
	if err != nil {
		return nil, coreerrors.DbError("list method data for file", err)
	}
	defer rows.Close()

	var out []models.MethodData
	for rows.Next() {
		var m models.MethodData
		var hitBranches, totalBranches, hitPaths, totalComplexity sql.NullInt64
		err := rows.Scan(&m.RawUploadID, &m.LocalMethodID, &m.LocalSampleID, &m.LineNo,
			&hitBranches, &totalBranches, &hitPaths, &totalComplexity)
		if err != nil {
			return nil, coreerrors.DbError("scan method data row", err)
		}
		m.SourceFileID = sourceFileID
		m.HitBranches = fromNullInt64(hitBranches)
		m.TotalBranches = fromNullInt64(totalBranches)
		m.HitComplexityPaths = fromNullInt64(hitPaths)
		m.TotalComplexity = fromNullInt64(totalComplexity)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Report) ListSpanDataForFile(sourceFileID int64) ([]models.SpanData, error) {
	rows, err := r.db.Query(`SELECT raw_upload_id, local_span_id, local_sample_id,
		start_line, start_col, end_line, end_col, hits
		FROM span_data WHERE source_file_id = ? ORDER BY raw_upload_id, local_span_id`, sourceFileID)
	if err != nil {
		return nil, coreerrors.DbError("list span data for file", err)
	}
	defer rows.Close()

	var out []models.SpanData
	for rows.Next() {
		var s models.SpanData
		var localSampleID, startLine, startCol, endLine, endCol sql.NullInt64
		err := rows.Scan(&s.RawUploadID, &s.LocalSpanID, &localSampleID, &startLine, &startCol, &endLine, &endCol, &s.Hits)
		if err != nil {
			return nil, coreerrors.DbError("scan span data row", err)
		}
		s.SourceFileID = sourceFileID
		s.LocalSampleID = fromNullInt64(localSampleID)
		s.StartLine = fromNullInt64(startLine)
		s.StartCol = fromNullInt64(startCol)
		s.EndLine = fromNullInt64(endLine)
		s.EndCol = fromNullInt64(endCol)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Totals aggregates counts across every file and upload in the report. A
// Line/Branch sample is "hit" when its hits (Line) or hit_branches ==
// total_branches (Branch, total_branches > 0) is satisfied; "partial" when a
// Branch sample's hit_branches lies strictly between 0 and total_branches;
// everything else among Line/Branch samples is a miss.
func (r *Report) Totals() (models.ReportTotals, error) {
	var t models.ReportTotals

	if err := r.db.QueryRow("SELECT COUNT(*) FROM source_files").Scan(&t.Files); err != nil {
		return t, coreerrors.DbError("count files", err)
	}

	row := r.db.QueryRow(`SELECT
		COUNT(*) FILTER (WHERE type IN ('line','branch')),
		COUNT(*) FILTER (WHERE (type = 'line' AND hits > 0) OR (type = 'branch' AND total_branches > 0 AND hit_branches = total_branches)),
		COUNT(*) FILTER (WHERE type = 'branch' AND hit_branches > 0 AND total_branches > 0 AND hit_branches < total_branches),
		COUNT(*) FILTER (WHERE type = 'branch')
		FROM coverage_samples`)
	var lines, hits, partials, branches int
	if err := row.Scan(&lines, &hits, &partials, &branches); err != nil {
		return t, coreerrors.DbError("aggregate sample totals", err)
	}
	t.Lines = lines
	t.Hits = hits
	t.Partials = partials
	t.Branches = branches
	t.Misses = lines - hits - partials

	if err := r.db.QueryRow("SELECT COUNT(*) FROM coverage_samples WHERE type = 'method'").Scan(&t.Methods); err != nil {
		return t, coreerrors.DbError("count method samples", err)
	}

	var hitComplexity, totalComplexity sql.NullInt64
	err := r.db.QueryRow(`SELECT COALESCE(SUM(hit_complexity_paths), 0), COALESCE(SUM(total_complexity), 0) FROM method_data`).
		Scan(&hitComplexity, &totalComplexity)
	if err != nil {
		return t, coreerrors.DbError("aggregate method complexity", err)
	}
	t.HitComplexity = int(hitComplexity.Int64)
	t.TotalComplexity = int(totalComplexity.Int64)

	return t, nil
}

// Merge inserts every row of other into r by reading other's tables
// directly: source files are reused by path, contexts by (kind, name),
// each raw upload is inserted fresh, and local sample ids are renumbered
// densely from 0 under each new upload. Only *Report-backed Reports can be
// merged directly; a heterogeneous implementation is rejected as a
// BuilderError since there is no backing store to read rows from.
func (r *Report) Merge(other report.Report) error {
	src, ok := other.(*Report)
	if !ok {
		return coreerrors.BuilderError("merge requires a sqlite-backed report", nil)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return coreerrors.DbError("begin merge transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	fileIDs, err := mergeFiles(tx, src.db)
	if err != nil {
		return err
	}
	uploadIDs, err := mergeRawUploads(tx, src.db)
	if err != nil {
		return err
	}
	contextIDs, err := mergeContexts(tx, src.db)
	if err != nil {
		return err
	}
	sampleIDs, err := mergeSamples(tx, src.db, fileIDs, uploadIDs)
	if err != nil {
		return err
	}
	branchIDs, err := mergeBranches(tx, src.db, fileIDs, uploadIDs, sampleIDs)
	if err != nil {
		return err
	}
	methodIDs, err := mergeMethods(tx, src.db, fileIDs, uploadIDs, sampleIDs)
	if err != nil {
		return err
	}
	spanIDs, err := mergeSpans(tx, src.db, fileIDs, uploadIDs, sampleIDs)
	if err != nil {
		return err
	}
	if err := mergeContextAssocs(tx, src.db, uploadIDs, contextIDs, sampleIDs, branchIDs, methodIDs, spanIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return coreerrors.DbError("commit merge transaction", err)
	}
	committed = true
	return nil
}

func (r *Report) Close() error {
	if err := r.db.Close(); err != nil {
		return coreerrors.IoError("close report database", err)
	}
	return nil
}
