package sqlite

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// Builder is the reference ReportBuilder: every insert runs against a single
// *sql.Tx opened at NewBuilder time. Build commits that transaction and
// hands back a read-only Report over the same database; a failed Build
// leaves no partial report observable because the transaction never
// committed.
type Builder struct {
	mu   sync.Mutex
	db   *sql.DB
	tx   *sql.Tx
	path string
	done bool

	nextSampleID map[int64]int64
	nextBranchID map[int64]int64
	nextMethodID map[int64]int64
	nextSpanID   map[int64]int64
}

// NewBuilder opens (creating if absent) the SQLite database at path,
// applies the idempotent schema, and begins the transaction that every
// subsequent insert call joins.
func NewBuilder(path string) (*Builder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, coreerrors.IoError("open sqlite database", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, coreerrors.DbError("initialize schema", err)
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		_ = db.Close()
		return nil, coreerrors.DbError("begin transaction", err)
	}

	return &Builder{
		db:           db,
		tx:           tx,
		path:         path,
		nextSampleID: make(map[int64]int64),
		nextBranchID: make(map[int64]int64),
		nextMethodID: make(map[int64]int64),
		nextSpanID:   make(map[int64]int64),
	}, nil
}

func (b *Builder) InsertFile(path string) (models.SourceFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.tx.Exec("INSERT INTO source_files (path) VALUES (?)", path)
	if err != nil {
		return models.SourceFile{}, coreerrors.BuilderError("insert source file", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.SourceFile{}, coreerrors.BuilderError("read source file id", err)
	}
	return models.SourceFile{ID: id, Path: path}, nil
}

func (b *Builder) InsertContext(kind models.ContextKind, name string) (models.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.tx.Exec("INSERT INTO contexts (kind, name) VALUES (?, ?)", string(kind), name)
	if err != nil {
		return models.Context{}, coreerrors.BuilderError("insert context", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Context{}, coreerrors.BuilderError("read context id", err)
	}
	return models.Context{ID: id, Kind: kind, Name: name}, nil
}

func (b *Builder) InsertRawUpload(u models.RawUpload) (models.RawUpload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.tx.Exec(`INSERT INTO raw_uploads
		(timestamp, raw_upload_url, flags, provider, build, name, job_name, ci_run_url, state, env, session_type, session_extras)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Timestamp, nullString(u.RawUploadURL), nullJSON(u.Flags), nullString(u.Provider), nullString(u.Build),
		nullString(u.Name), nullString(u.JobName), nullString(u.CIRunURL), nullString(u.State), nullString(u.Env),
		nullString(u.SessionType), nullJSON(u.SessionExtras))
	if err != nil {
		return models.RawUpload{}, coreerrors.BuilderError("insert raw upload", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.RawUpload{}, coreerrors.BuilderError("read raw upload id", err)
	}
	u.ID = id
	return u, nil
}

func (b *Builder) InsertCoverageSample(sample models.CoverageSample) (models.CoverageSample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertSampleLocked(sample)
}

func (b *Builder) insertSampleLocked(sample models.CoverageSample) (models.CoverageSample, error) {
	localID := b.nextSampleID[sample.RawUploadID]
	sample.LocalSampleID = localID
	b.nextSampleID[sample.RawUploadID] = localID + 1

	_, err := b.tx.Exec(`INSERT INTO coverage_samples
		(raw_upload_id, source_file_id, local_sample_id, line_no, type, hits, hit_branches, total_branches)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.RawUploadID, sample.SourceFileID, sample.LocalSampleID, sample.LineNo, string(sample.Type),
		nullInt64(sample.Hits), nullInt64(sample.HitBranches), nullInt64(sample.TotalBranches))
	if err != nil {
		return models.CoverageSample{}, coreerrors.BuilderError("insert coverage sample", err)
	}
	return sample, nil
}

func (b *Builder) MultiInsertCoverageSample(samples []models.CoverageSample) ([]models.CoverageSample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.CoverageSample, 0, len(samples))
	for _, s := range samples {
		inserted, err := b.insertSampleLocked(s)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (b *Builder) MultiInsertBranchesData(rows []models.BranchesData) ([]models.BranchesData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.BranchesData, 0, len(rows))
	for _, r := range rows {
		localID := b.nextBranchID[r.RawUploadID]
		r.LocalBranchID = localID
		b.nextBranchID[r.RawUploadID] = localID + 1

		_, err := b.tx.Exec(`INSERT INTO branches_data
			(raw_upload_id, source_file_id, local_branch_id, local_sample_id, hits, format, descriptor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RawUploadID, r.SourceFileID, r.LocalBranchID, r.LocalSampleID, r.Hits, string(r.Format), r.Descriptor)
		if err != nil {
			return nil, coreerrors.BuilderError("insert branches data", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Builder) MultiInsertMethodData(rows []models.MethodData) ([]models.MethodData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.MethodData, 0, len(rows))
	for _, r := range rows {
		localID := b.nextMethodID[r.RawUploadID]
		r.LocalMethodID = localID
		b.nextMethodID[r.RawUploadID] = localID + 1

		_, err := b.tx.Exec(`INSERT INTO method_data
			(raw_upload_id, source_file_id, local_method_id, local_sample_id, line_no, hit_branches, total_branches, hit_complexity_paths, total_complexity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RawUploadID, r.SourceFileID, r.LocalMethodID, r.LocalSampleID, r.LineNo,
			nullInt64(r.HitBranches), nullInt64(r.TotalBranches), nullInt64(r.HitComplexityPaths), nullInt64(r.TotalComplexity))
		if err != nil {
			return nil, coreerrors.BuilderError("insert method data", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Builder) MultiInsertSpanData(rows []models.SpanData) ([]models.SpanData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.SpanData, 0, len(rows))
	for _, r := range rows {
		localID := b.nextSpanID[r.RawUploadID]
		r.LocalSpanID = localID
		b.nextSpanID[r.RawUploadID] = localID + 1

		_, err := b.tx.Exec(`INSERT INTO span_data
			(raw_upload_id, source_file_id, local_span_id, local_sample_id, start_line, start_col, end_line, end_col, hits)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RawUploadID, r.SourceFileID, r.LocalSpanID, nullInt64(r.LocalSampleID),
			nullInt64(r.StartLine), nullInt64(r.StartCol), nullInt64(r.EndLine), nullInt64(r.EndCol), r.Hits)
		if err != nil {
			return nil, coreerrors.BuilderError("insert span data", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Builder) MultiInsertContextAssoc(rows []models.ContextAssoc) ([]models.ContextAssoc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.ContextAssoc, 0, len(rows))
	for _, r := range rows {
		if err := b.insertAssocLocked(r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (b *Builder) AssociateContext(assoc models.ContextAssoc) (models.ContextAssoc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.insertAssocLocked(assoc); err != nil {
		return models.ContextAssoc{}, err
	}
	return assoc, nil
}

func (b *Builder) insertAssocLocked(a models.ContextAssoc) error {
	_, err := b.tx.Exec(`INSERT INTO context_assoc
		(context_id, raw_upload_id, local_sample_id, local_branch_id, local_method_id, local_span_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ContextID, a.RawUploadID, nullInt64(a.LocalSampleID), nullInt64(a.LocalBranchID),
		nullInt64(a.LocalMethodID), nullInt64(a.LocalSpanID))
	if err != nil {
		return coreerrors.BuilderError("insert context association", err)
	}
	return nil
}

// Build commits the transaction every prior insert joined and returns a
// read-only Report over the same database. Once Build returns, the Builder
// must not be used again.
func (b *Builder) Build() (report.Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return nil, coreerrors.BuilderError("builder already built", nil)
	}

	if err := b.tx.Commit(); err != nil {
		_ = b.tx.Rollback()
		return nil, coreerrors.DbError("commit report transaction", err)
	}
	b.done = true

	return &Report{db: b.db, path: b.path}, nil
}

// Abort rolls back the in-progress transaction and closes the database
// without producing a Report. Callers use this on a parse error so no
// partial report is left observable, per §4.4.
func (b *Builder) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return nil
	}
	b.done = true

	rbErr := b.tx.Rollback()
	closeErr := b.db.Close()
	if rbErr != nil && rbErr != sql.ErrTxDone {
		return coreerrors.DbError("rollback report transaction", rbErr)
	}
	if closeErr != nil {
		return coreerrors.IoError("close report database", closeErr)
	}
	return nil
}
