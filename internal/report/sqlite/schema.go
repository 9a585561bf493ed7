// Package sqlite is the reference ReportBuilder implementation backing a
// report.Report with an embedded SQL database (modernc.org/sqlite, no cgo),
// following internal/eventstore's idempotent initialize()-on-open pattern.
package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS source_files (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS raw_uploads (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp      INTEGER,
	raw_upload_url TEXT,
	flags          TEXT,
	provider       TEXT,
	build          TEXT,
	name           TEXT,
	job_name       TEXT,
	ci_run_url     TEXT,
	state          TEXT,
	env            TEXT,
	session_type   TEXT,
	session_extras TEXT
);

CREATE TABLE IF NOT EXISTS contexts (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	UNIQUE (kind, name)
);

CREATE TABLE IF NOT EXISTS coverage_samples (
	raw_upload_id   INTEGER NOT NULL,
	source_file_id  INTEGER NOT NULL,
	local_sample_id INTEGER NOT NULL,
	line_no         INTEGER NOT NULL,
	type            TEXT NOT NULL,
	hits            INTEGER,
	hit_branches    INTEGER,
	total_branches  INTEGER,
	PRIMARY KEY (raw_upload_id, local_sample_id)
);
CREATE INDEX IF NOT EXISTS idx_samples_file ON coverage_samples(source_file_id, line_no);

CREATE TABLE IF NOT EXISTS branches_data (
	raw_upload_id   INTEGER NOT NULL,
	source_file_id  INTEGER NOT NULL,
	local_branch_id INTEGER NOT NULL,
	local_sample_id INTEGER NOT NULL,
	hits            INTEGER NOT NULL,
	format          TEXT NOT NULL,
	descriptor      TEXT NOT NULL,
	PRIMARY KEY (raw_upload_id, local_branch_id)
);

CREATE TABLE IF NOT EXISTS method_data (
	raw_upload_id        INTEGER NOT NULL,
	source_file_id       INTEGER NOT NULL,
	local_method_id      INTEGER NOT NULL,
	local_sample_id      INTEGER NOT NULL,
	line_no              INTEGER NOT NULL,
	hit_branches         INTEGER,
	total_branches       INTEGER,
	hit_complexity_paths INTEGER,
	total_complexity     INTEGER,
	PRIMARY KEY (raw_upload_id, local_method_id)
);

CREATE TABLE IF NOT EXISTS span_data (
	raw_upload_id   INTEGER NOT NULL,
	source_file_id  INTEGER NOT NULL,
	local_span_id   INTEGER NOT NULL,
	local_sample_id INTEGER,
	start_line      INTEGER,
	start_col       INTEGER,
	end_line        INTEGER,
	end_col         INTEGER,
	hits            INTEGER NOT NULL,
	PRIMARY KEY (raw_upload_id, local_span_id)
);

CREATE TABLE IF NOT EXISTS context_assoc (
	context_id      INTEGER NOT NULL,
	raw_upload_id   INTEGER NOT NULL,
	local_sample_id INTEGER,
	local_branch_id INTEGER,
	local_method_id INTEGER,
	local_span_id   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_context_assoc_ctx ON context_assoc(context_id);
`
