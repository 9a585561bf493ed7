package serialize

import (
	"encoding/json"
	"io"
	"strconv"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// WriteReportJSON emits the report-JSON document for r: a "files" object
// keyed by path and a "sessions" object keyed by stringified session
// index, per §4.3. Session indices are reassigned 0..N-1 in RawUpload id
// order; they need not match the indices a prior parse originally saw.
func WriteReportJSON(r report.Report, w io.Writer) error {
	files, err := r.ListFiles()
	if err != nil {
		return err
	}
	uploads, err := r.ListRawUploads()
	if err != nil {
		return err
	}

	uploadIndex := make(map[int64]int, len(uploads))
	for i, u := range uploads {
		uploadIndex[u.ID] = i
	}

	filesOut := make(map[string]any, len(files))
	for chunkIndex, f := range files {
		entry, err := fileEntry(r, f, chunkIndex, uploadIndex)
		if err != nil {
			return err
		}
		filesOut[f.Path] = entry
	}

	sessionsOut := make(map[string]any, len(uploads))
	for i, u := range uploads {
		sessionsOut[strconv.Itoa(i)] = sessionToJSON(u)
	}

	out := map[string]any{"files": filesOut, "sessions": sessionsOut}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return coreerrors.IoError("write report json", err)
	}
	return nil
}

func fileEntry(r report.Report, f models.SourceFile, chunkIndex int, uploadIndex map[int64]int) ([]any, error) {
	samples, err := r.ListSamplesForFile(f.ID)
	if err != nil {
		return nil, err
	}
	methodRows, err := r.ListMethodDataForFile(f.ID)
	if err != nil {
		return nil, err
	}

	lineVerdict := make(map[int64]string)
	perSession := make(map[int64][]models.CoverageSample)
	branchCount, methodCount := 0, 0

	for _, s := range samples {
		perSession[s.RawUploadID] = append(perSession[s.RawUploadID], s)
		switch s.Type {
		case models.CoverageBranch:
			branchCount++
		case models.CoverageMethod:
			methodCount++
			continue
		}
		if v := classify(s); v != "" {
			if cur, ok := lineVerdict[s.LineNo]; !ok || verdictRank(v) > verdictRank(cur) {
				lineVerdict[s.LineNo] = v
			}
		}
	}

	lines, hits, partials := tallyVerdicts(lineVerdict)
	misses := lines - hits - partials

	var hitComplexity, totalComplexity int
	for _, m := range methodRows {
		if m.HitComplexityPaths != nil {
			hitComplexity += int(*m.HitComplexityPaths)
		}
		if m.TotalComplexity != nil {
			totalComplexity += int(*m.TotalComplexity)
		}
	}

	sessionTotals := make(map[string]any)
	for uploadID, ss := range perSession {
		idx, ok := uploadIndex[uploadID]
		if !ok {
			continue
		}
		sv := make(map[int64]string)
		for _, s := range ss {
			if v := classify(s); v != "" {
				sv[s.LineNo] = v
			}
		}
		sLines, sHits, sPartials := tallyVerdicts(sv)
		sMisses := sLines - sHits - sPartials
		sessionTotals[strconv.Itoa(idx)] = []any{0, sLines, sHits, sMisses, sPartials, formatPct(sHits, sLines)}
	}
	sessionTotals["meta"] = map[string]any{"session_count": len(sessionTotals)}

	totals := []any{0, lines, hits, misses, partials, formatPct(hits, lines), branchCount, methodCount, 0, 0, hitComplexity, totalComplexity, 0}
	return []any{chunkIndex, totals, sessionTotals, nil}, nil
}

func tallyVerdicts(verdicts map[int64]string) (lines, hits, partials int) {
	lines = len(verdicts)
	for _, v := range verdicts {
		switch v {
		case "hit":
			hits++
		case "partial":
			partials++
		}
	}
	return lines, hits, partials
}

// sessionToJSON renders a RawUpload using the short-key field names
// reportjson.Parse decodes, omitting zero-valued fields.
func sessionToJSON(u models.RawUpload) map[string]any {
	m := make(map[string]any)
	if u.Timestamp != 0 {
		m["d"] = u.Timestamp
	}
	if u.RawUploadURL != "" {
		m["a"] = u.RawUploadURL
	}
	if len(u.Flags) > 0 {
		m["f"] = u.Flags
	}
	if u.Provider != "" {
		m["c"] = u.Provider
	}
	if u.Build != "" {
		m["n"] = u.Build
	}
	if u.Name != "" {
		m["N"] = u.Name
	}
	if u.JobName != "" {
		m["j"] = u.JobName
	}
	if u.CIRunURL != "" {
		m["u"] = u.CIRunURL
	}
	if u.State != "" {
		m["p"] = u.State
	}
	if u.Env != "" {
		m["e"] = u.Env
	}
	if u.SessionType != "" {
		m["st"] = u.SessionType
	}
	if len(u.SessionExtras) > 0 {
		m["se"] = u.SessionExtras
	}
	return m
}
