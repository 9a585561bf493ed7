// Package reportjson parses the pyreport report-JSON document described in
// spec §4.1: a "files" object keyed by path and a "sessions" object keyed by
// stringified session index, both tolerant of unknown fields.
package reportjson

import (
	"encoding/json"
	"sort"
	"strconv"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// Result carries the two index maps the chunks parser needs: a file's
// chunk_index to its inserted SourceFile id, and a session's index to its
// inserted RawUpload id.
type Result struct {
	FilesMap    map[int]int64
	SessionsMap map[int]int64
}

// session is the recognized short-key session object shape (all optional).
type session struct {
	Timestamp     *int64          `json:"d"`
	RawUploadURL  *string         `json:"a"`
	Flags         json.RawMessage `json:"f"`
	Provider      *string         `json:"c"`
	Build         *string         `json:"n"`
	Name          *string         `json:"N"`
	JobName       *string         `json:"j"`
	CIRunURL      *string         `json:"u"`
	State         *string         `json:"p"`
	Env           *string         `json:"e"`
	SessionType   *string         `json:"st"`
	SessionExtras json.RawMessage `json:"se"`
}

// Parse decodes reportJSON, inserting one SourceFile per files entry and one
// RawUpload per sessions entry via builder, and returns the two index maps.
func Parse(reportJSON []byte, builder report.ReportBuilder) (Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(reportJSON, &top); err != nil {
		return Result{}, coreerrors.InvalidJson(err)
	}

	filesRaw, ok := top["files"]
	if !ok {
		return Result{}, coreerrors.MissingSection("files")
	}
	sessionsRaw, ok := top["sessions"]
	if !ok {
		return Result{}, coreerrors.MissingSection("sessions")
	}

	filesMap, err := parseFiles(filesRaw, builder)
	if err != nil {
		return Result{}, err
	}
	sessionsMap, err := parseSessions(sessionsRaw, builder)
	if err != nil {
		return Result{}, err
	}

	return Result{FilesMap: filesMap, SessionsMap: sessionsMap}, nil
}

func parseFiles(raw json.RawMessage, builder report.ReportBuilder) (map[int]int64, error) {
	var files map[string]json.RawMessage
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, coreerrors.InvalidJson(err)
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make(map[int]int64, len(paths))
	for _, path := range paths {
		var entry []json.RawMessage
		if err := json.Unmarshal(files[path], &entry); err != nil || len(entry) == 0 {
			return nil, coreerrors.InvalidFile(path, err)
		}

		var chunkIndex int
		if err := json.Unmarshal(entry[0], &chunkIndex); err != nil {
			return nil, coreerrors.InvalidFile(path, err)
		}
		// entry[1:] (file_totals, session_totals, diff_totals) are accepted
		// as any valid JSON and discarded, per §4.1.

		file, err := builder.InsertFile(path)
		if err != nil {
			return nil, coreerrors.BuilderError("insert source file", err)
		}
		out[chunkIndex] = file.ID
	}
	return out, nil
}

func parseSessions(raw json.RawMessage, builder report.ReportBuilder) (map[int]int64, error) {
	var sessions map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, coreerrors.InvalidJson(err)
	}

	keys := make([]string, 0, len(sessions))
	for key := range sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[int]int64, len(keys))
	for _, key := range keys {
		sessionIndex, err := strconv.Atoi(key)
		if err != nil {
			return nil, coreerrors.InvalidSession(key, err)
		}

		var s session
		if err := json.Unmarshal(sessions[key], &s); err != nil {
			return nil, coreerrors.InvalidSession(key, err)
		}

		upload, err := builder.InsertRawUpload(toRawUpload(s))
		if err != nil {
			return nil, coreerrors.BuilderError("insert raw upload", err)
		}
		out[sessionIndex] = upload.ID
	}
	return out, nil
}

func toRawUpload(s session) models.RawUpload {
	u := models.RawUpload{
		Flags:         s.Flags,
		SessionExtras: s.SessionExtras,
	}
	if s.Timestamp != nil {
		u.Timestamp = *s.Timestamp
	}
	if s.RawUploadURL != nil {
		u.RawUploadURL = *s.RawUploadURL
	}
	if s.Provider != nil {
		u.Provider = *s.Provider
	}
	if s.Build != nil {
		u.Build = *s.Build
	}
	if s.Name != nil {
		u.Name = *s.Name
	}
	if s.JobName != nil {
		u.JobName = *s.JobName
	}
	if s.CIRunURL != nil {
		u.CIRunURL = *s.CIRunURL
	}
	if s.State != nil {
		u.State = *s.State
	}
	if s.Env != nil {
		u.Env = *s.Env
	}
	if s.SessionType != nil {
		u.SessionType = *s.SessionType
	}
	return u
}
