package sqlite

import (
	"database/sql"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
)

type idPair struct {
	rawUploadID int64
	localID     int64
}

// mergeFiles reuses an existing source_files row by path when one exists,
// inserting only genuinely new paths, since SourceFile identity is its path.
func mergeFiles(tx *sql.Tx, src *sql.DB) (map[int64]int64, error) {
	rows, err := src.Query("SELECT id, path FROM source_files ORDER BY id")
	if err != nil {
		return nil, coreerrors.DbError("merge: read source files", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var oldID int64
		var path string
		if err := rows.Scan(&oldID, &path); err != nil {
			return nil, coreerrors.DbError("merge: scan source file", err)
		}

		var existing int64
		err := tx.QueryRow("SELECT id FROM source_files WHERE path = ?", path).Scan(&existing)
		switch {
		case err == nil:
			out[oldID] = existing
		case err == sql.ErrNoRows:
			res, insErr := tx.Exec("INSERT INTO source_files (path) VALUES (?)", path)
			if insErr != nil {
				return nil, coreerrors.DbError("merge: insert source file", insErr)
			}
			newID, idErr := res.LastInsertId()
			if idErr != nil {
				return nil, coreerrors.DbError("merge: read source file id", idErr)
			}
			out[oldID] = newID
		default:
			return nil, coreerrors.DbError("merge: lookup source file", err)
		}
	}
	return out, rows.Err()
}

// mergeRawUploads always inserts a fresh row: RawUpload ids are dense per
// report, not identity-bearing like SourceFile paths.
func mergeRawUploads(tx *sql.Tx, src *sql.DB) (map[int64]int64, error) {
	rows, err := src.Query(`SELECT id, timestamp, raw_upload_url, flags, provider, build, name, job_name,
		ci_run_url, state, env, session_type, session_extras FROM raw_uploads ORDER BY id`)
	if err != nil {
		return nil, coreerrors.DbError("merge: read raw uploads", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var oldID int64
		var ts sql.NullInt64
		var url, flags, provider, build, name, jobName, ciRunURL, state, env, sessionType, sessionExtras sql.NullString
		err := rows.Scan(&oldID, &ts, &url, &flags, &provider, &build, &name, &jobName,
			&ciRunURL, &state, &env, &sessionType, &sessionExtras)
		if err != nil {
			return nil, coreerrors.DbError("merge: scan raw upload", err)
		}

		res, err := tx.Exec(`INSERT INTO raw_uploads
			(timestamp, raw_upload_url, flags, provider, build, name, job_name, ci_run_url, state, env, session_type, session_extras)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ts, url, flags, provider, build, name, jobName, ciRunURL, state, env, sessionType, sessionExtras)
		if err != nil {
			return nil, coreerrors.DbError("merge: insert raw upload", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return nil, coreerrors.DbError("merge: read raw upload id", err)
		}
		out[oldID] = newID
	}
	return out, rows.Err()
}

// mergeContexts reuses an existing (kind, name) row when one exists, since
// Context identity is that pair.
func mergeContexts(tx *sql.Tx, src *sql.DB) (map[int64]int64, error) {
	rows, err := src.Query("SELECT id, kind, name FROM contexts ORDER BY id")
	if err != nil {
		return nil, coreerrors.DbError("merge: read contexts", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var oldID int64
		var kind, name string
		if err := rows.Scan(&oldID, &kind, &name); err != nil {
			return nil, coreerrors.DbError("merge: scan context", err)
		}

		var existing int64
		err := tx.QueryRow("SELECT id FROM contexts WHERE kind = ? AND name = ?", kind, name).Scan(&existing)
		switch {
		case err == nil:
			out[oldID] = existing
		case err == sql.ErrNoRows:
			res, insErr := tx.Exec("INSERT INTO contexts (kind, name) VALUES (?, ?)", kind, name)
			if insErr != nil {
				return nil, coreerrors.DbError("merge: insert context", insErr)
			}
			newID, idErr := res.LastInsertId()
			if idErr != nil {
				return nil, coreerrors.DbError("merge: read context id", idErr)
			}
			out[oldID] = newID
		default:
			return nil, coreerrors.DbError("merge: lookup context", err)
		}
	}
	return out, rows.Err()
}

func mergeSamples(tx *sql.Tx, src *sql.DB, fileIDs, uploadIDs map[int64]int64) (map[idPair]int64, error) {
	rows, err := src.Query(`SELECT raw_upload_id, source_file_id, local_sample_id, line_no, type, hits, hit_branches, total_branches
		FROM coverage_samples ORDER BY raw_upload_id, local_sample_id`)
	if err != nil {
		return nil, coreerrors.DbError("merge: read coverage samples", err)
	}
	defer rows.Close()

	out := make(map[idPair]int64)
	next := make(map[int64]int64)
	for rows.Next() {
		var rawUploadID, sourceFileID, localSampleID, lineNo int64
		var typ string
		var hits, hitBranches, totalBranches sql.NullInt64
		err := rows.Scan(&rawUploadID, &sourceFileID, &localSampleID, &lineNo, &typ, &hits, &hitBranches, &totalBranches)
		if err != nil {
			return nil, coreerrors.DbError("merge: scan coverage sample", err)
		}

		newUpload := uploadIDs[rawUploadID]
		newFile := fileIDs[sourceFileID]
		newLocal := next[newUpload]
		next[newUpload] = newLocal + 1

		_, err = tx.Exec(`INSERT INTO coverage_samples
			(raw_upload_id, source_file_id, local_sample_id, line_no, type, hits, hit_branches, total_branches)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			newUpload, newFile, newLocal, lineNo, typ, hits, hitBranches, totalBranches)
		if err != nil {
			return nil, coreerrors.DbError("merge: insert coverage sample", err)
		}
		out[idPair{rawUploadID, localSampleID}] = newLocal
	}
	return out, rows.Err()
}

func mergeBranches(tx *sql.Tx, src *sql.DB, fileIDs, uploadIDs map[int64]int64, sampleIDs map[idPair]int64) (map[idPair]int64, error) {
	rows, err := src.Query(`SELECT raw_upload_id, source_file_id, local_branch_id, local_sample_id, hits, format, descriptor
		FROM branches_data ORDER BY raw_upload_id, local_branch_id`)
	if err != nil {
		return nil, coreerrors.DbError("merge: read branches data", err)
	}
	defer rows.Close()

	out := make(map[idPair]int64)
	next := make(map[int64]int64)
	for rows.Next() {
		var rawUploadID, sourceFileID, localBranchID, localSampleID, hits int64
		var format, descriptor string
		err := rows.Scan(&rawUploadID, &sourceFileID, &localBranchID, &localSampleID, &hits, &format, &descriptor)
		if err != nil {
			return nil, coreerrors.DbError("merge: scan branches data", err)
		}

		newUpload := uploadIDs[rawUploadID]
		newFile := fileIDs[sourceFileID]
		newSample := sampleIDs[idPair{rawUploadID, localSampleID}]
		newLocal := next[newUpload]
		next[newUpload] = newLocal + 1

		_, err = tx.Exec(`INSERT INTO branches_data
			(raw_upload_id, source_file_id, local_branch_id, local_sample_id, hits, format, descriptor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			newUpload, newFile, newLocal, newSample, hits, format, descriptor)
		if err != nil {
			return nil, coreerrors.DbError("merge: insert branches data", err)
		}
		out[idPair{rawUploadID, localBranchID}] = newLocal
	}
	return out, rows.Err()
}

func mergeMethods(tx *sql.Tx, src *sql.DB, fileIDs, uploadIDs map[int64]int64, sampleIDs map[idPair]int64) (map[idPair]int64, error) {
	rows, err := src.Query(`SELECT raw_upload_id, source_file_id, local_method_id, local_sample_id, line_no,
		hit_branches, total_branches, hit_complexity_paths, total_complexity FROM method_data ORDER BY raw_upload_id, local_method_id`)
	if err != nil {
		return nil, coreerrors.DbError("merge: read method data", err)
	}
	defer rows.Close()

	out := make(map[idPair]int64)
	next := make(map[int64]int64)
	for rows.Next() {
		var rawUploadID, sourceFileID, localMethodID, localSampleID, lineNo int64
		var hitBranches, totalBranches, hitComplexity, totalComplexity sql.NullInt64
		err := rows.Scan(&rawUploadID, &sourceFileID, &localMethodID, &localSampleID, &lineNo,
			&hitBranches, &totalBranches, &hitComplexity, &totalComplexity)
		if err != nil {
			return nil, coreerrors.DbError("merge: scan method data", err)
		}

		newUpload := uploadIDs[rawUploadID]
		newFile := fileIDs[sourceFileID]
		newSample := sampleIDs[idPair{rawUploadID, localSampleID}]
		newLocal := next[newUpload]
		next[newUpload] = newLocal + 1

		_, err = tx.Exec(`INSERT INTO method_data
			(raw_upload_id, source_file_id, local_method_id, local_sample_id, line_no, hit_branches, total_branches, hit_complexity_paths, total_complexity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newUpload, newFile, newLocal, newSample, lineNo, hitBranches, totalBranches, hitComplexity, totalComplexity)
		if err != nil {
			return nil, coreerrors.DbError("merge: insert method data", err)
		}
		out[idPair{rawUploadID, localMethodID}] = newLocal
	}
	return out, rows.Err()
}

func mergeSpans(tx *sql.Tx, src *sql.DB, fileIDs, uploadIDs map[int64]int64, sampleIDs map[idPair]int64) (map[idPair]int64, error) {
	rows, err := src.Query(`SELECT raw_upload_id, source_file_id, local_span_id, local_sample_id,
		start_line, start_col, end_line, end_col, hits FROM span_data ORDER BY raw_upload_id, local_span_id`)
	if err != nil {
		return nil, coreerrors.DbError("merge: read span data", err)
	}
	defer rows.Close()

	out := make(map[idPair]int64)
	next := make(map[int64]int64)
	for rows.Next() {
		var rawUploadID, sourceFileID, localSpanID, hits int64
		var localSampleID, startLine, startCol, endLine, endCol sql.NullInt64
		err := rows.Scan(&rawUploadID, &sourceFileID, &localSpanID, &localSampleID,
			&startLine, &startCol, &endLine, &endCol, &hits)
		if err != nil {
			return nil, coreerrors.DbError("merge: scan span data", err)
		}

		newUpload := uploadIDs[rawUploadID]
		newFile := fileIDs[sourceFileID]
		newLocal := next[newUpload]
		next[newUpload] = newLocal + 1

		var newSample sql.NullInt64
		if localSampleID.Valid {
			newSample = sql.NullInt64{Int64: sampleIDs[idPair{rawUploadID, localSampleID.Int64}], Valid: true}
		}

		_, err = tx.Exec(`INSERT INTO span_data
			(raw_upload_id, source_file_id, local_span_id, local_sample_id, start_line, start_col, end_line, end_col, hits)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newUpload, newFile, newLocal, newSample, startLine, startCol, endLine, endCol, hits)
		if err != nil {
			return nil, coreerrors.DbError("merge: insert span data", err)
		}
		out[idPair{rawUploadID, localSpanID}] = newLocal
	}
	return out, rows.Err()
}

func mergeContextAssocs(tx *sql.Tx, src *sql.DB, uploadIDs, contextIDs map[int64]int64, sampleIDs, branchIDs, methodIDs, spanIDs map[idPair]int64) error {
	rows, err := src.Query(`SELECT context_id, raw_upload_id, local_sample_id, local_branch_id, local_method_id, local_span_id
		FROM context_assoc`)
	if err != nil {
		return coreerrors.DbError("merge: read context associations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contextID, rawUploadID int64
		var localSampleID, localBranchID, localMethodID, localSpanID sql.NullInt64
		err := rows.Scan(&contextID, &rawUploadID, &localSampleID, &localBranchID, &localMethodID, &localSpanID)
		if err != nil {
			return coreerrors.DbError("merge: scan context association", err)
		}

		newUpload := uploadIDs[rawUploadID]
		newContext := contextIDs[contextID]
		newSample := remapOptional(localSampleID, rawUploadID, sampleIDs)
		newBranch := remapOptional(localBranchID, rawUploadID, branchIDs)
		newMethod := remapOptional(localMethodID, rawUploadID, methodIDs)
		newSpan := remapOptional(localSpanID, rawUploadID, spanIDs)

		_, err = tx.Exec(`INSERT INTO context_assoc
			(context_id, raw_upload_id, local_sample_id, local_branch_id, local_method_id, local_span_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			newContext, newUpload, newSample, newBranch, newMethod, newSpan)
		if err != nil {
			return coreerrors.DbError("merge: insert context association", err)
		}
	}
	return rows.Err()
}

func remapOptional(old sql.NullInt64, rawUploadID int64, m map[idPair]int64) sql.NullInt64 {
	if !old.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m[idPair{rawUploadID, old.Int64}], Valid: true}
}
