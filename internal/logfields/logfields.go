// Package logfields provides canonical log field names and helpers for structured logging.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
// These are used for structured logging with slog.
const (
	KeyJobID      = "job_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyError      = "error"
	KeyChunkIndex = "chunk_index"
	KeyLineNo     = "line_no"
	KeySessionID  = "session_id"
	KeyRawUpload  = "raw_upload_id"
	KeyRows       = "rows"
	KeyName       = "name"
)

func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }       // JobID returns a slog.Attr for the ingest job ID.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }     // Stage returns a slog.Attr for stage name.
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) } // DurationMS returns a slog.Attr for duration in ms.

// Path returns a slog.Attr for a file path.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// File returns a slog.Attr for a file name.
func File(f string) slog.Attr { return slog.String(KeyFile, f) }

// ChunkIndex returns a slog.Attr identifying the chunk a log line concerns.
func ChunkIndex(i int) slog.Attr { return slog.Int(KeyChunkIndex, i) }

// LineNo returns a slog.Attr for a 1-based source line number.
func LineNo(n int) slog.Attr { return slog.Int(KeyLineNo, n) }

// SessionID returns a slog.Attr for a pyreport session index.
func SessionID(id uint32) slog.Attr { return slog.Uint64(KeySessionID, uint64(id)) }

// RawUploadID returns a slog.Attr for the raw_upload row a sample belongs to.
func RawUploadID(id int64) slog.Attr { return slog.Int64(KeyRawUpload, id) }

// Rows returns a slog.Attr for a row/record count.
func Rows(n int) slog.Attr { return slog.Int(KeyRows, n) }

// Name returns a slog.Attr for a generic name field.
func Name(n string) slog.Attr { return slog.String(KeyName, n) }

// Error returns a slog.Attr for an error, or an empty string if nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
