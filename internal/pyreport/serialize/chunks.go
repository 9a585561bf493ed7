package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
	"git.home.luguber.info/inful/pyreport/internal/util/sets"
)

const (
	endOfHeaderLine = "<<<<< end_of_header >>>>>"
	endOfChunkLine  = "<<<<< end_of_chunk >>>>>"
)

// WriteChunks emits the chunks-file text for r, driven by one pass over
// each file's samples joined with its branch/method/span detail rows,
// grouped by line_no then by raw_upload_id, per §4.3's algorithm.
func WriteChunks(r report.Report, w io.Writer) error {
	bw := &lineWriter{w: w}

	if err := writeFileHeader(r, bw); err != nil {
		return err
	}

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

	for i, f := range files {
		if i > 0 {
			bw.writeLine(endOfChunkLine)
		}
		if err := writeChunk(r, bw, f, uploadIndex); err != nil {
			return err
		}
	}
	return bw.err
}

// lineWriter accumulates \n-terminated lines and defers the first I/O
// error until the caller checks it, so chunk-writing code doesn't need to
// thread an error return through every line.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) writeLine(s string) {
	if lw.err != nil {
		return
	}
	if _, err := io.WriteString(lw.w, s+"\n"); err != nil {
		lw.err = coreerrors.IoError("write chunks output", err)
	}
}

func writeFileHeader(r report.Report, bw *lineWriter) error {
	contexts, err := r.ListContexts()
	if err != nil {
		return err
	}

	labelsIndex := make(map[string]string)
	nextID := 0
	for _, c := range contexts {
		if c.Kind != models.ContextTestCase {
			continue
		}
		labelsIndex[strconv.Itoa(nextID)] = c.Name
		nextID++
	}

	var header []byte
	if len(labelsIndex) == 0 {
		header = []byte("{}")
	} else {
		header, err = json.Marshal(map[string]any{"labels_index": labelsIndex})
		if err != nil {
			return coreerrors.IoError("marshal file header", err)
		}
	}
	bw.writeLine(string(header))
	bw.writeLine(endOfHeaderLine)
	return nil
}

func writeChunk(r report.Report, bw *lineWriter, f models.SourceFile, uploadIndex map[int64]int) error {
	samples, err := r.ListSamplesForFile(f.ID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		bw.writeLine("null")
		return nil
	}

	branchRows, err := r.ListBranchesDataForFile(f.ID)
	if err != nil {
		return err
	}
	methodRows, err := r.ListMethodDataForFile(f.ID)
	if err != nil {
		return err
	}
	spanRows, err := r.ListSpanDataForFile(f.ID)
	if err != nil {
		return err
	}

	branchesBySample := make(map[sampleKey][]models.BranchesData)
	for _, b := range branchRows {
		k := sampleKey{b.RawUploadID, b.LocalSampleID}
		branchesBySample[k] = append(branchesBySample[k], b)
	}
	methodBySample := make(map[sampleKey]models.MethodData)
	for _, m := range methodRows {
		methodBySample[sampleKey{m.RawUploadID, m.LocalSampleID}] = m
	}
	spansBySample := make(map[sampleKey][]models.SpanData)
	for _, sp := range spanRows {
		if sp.LocalSampleID == nil {
			continue
		}
		k := sampleKey{sp.RawUploadID, *sp.LocalSampleID}
		spansBySample[k] = append(spansBySample[k], sp)
	}

	byLine := make(map[int64][]models.CoverageSample)
	presentSet := sets.New[int]()
	var lastLine int64
	for _, s := range samples {
		byLine[s.LineNo] = append(byLine[s.LineNo], s)
		if s.LineNo > lastLine {
			lastLine = s.LineNo
		}
		if idx, ok := uploadIndex[s.RawUploadID]; ok {
			presentSet.Add(idx)
		}
	}

	present := make([]int, 0, len(presentSet))
	for idx := range presentSet {
		present = append(present, idx)
	}
	sort.Ints(present)

	hdr, err := json.Marshal(map[string]any{"present_sessions": present})
	if err != nil {
		return coreerrors.IoError("marshal chunk header", err)
	}
	bw.writeLine(string(hdr))

	for lineNo := int64(1); lineNo <= lastLine; lineNo++ {
		lineSamples := byLine[lineNo]
		if len(lineSamples) == 0 {
			bw.writeLine("")
			continue
		}
		sort.Slice(lineSamples, func(i, j int) bool {
			return uploadIndex[lineSamples[i].RawUploadID] < uploadIndex[lineSamples[j].RawUploadID]
		})

		line, err := buildReportLine(r, lineSamples, uploadIndex, branchesBySample, methodBySample, spansBySample)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(line)
		if err != nil {
			return coreerrors.IoError("marshal report line", err)
		}
		bw.writeLine(string(raw))
	}
	return nil
}

// sampleKey identifies a sample's (and its detail rows') position within a
// raw upload, to group branch/method/span rows back onto the sample that
// produced them.
type sampleKey struct{ rawUploadID, localSampleID int64 }

func buildReportLine(
	r report.Report,
	lineSamples []models.CoverageSample,
	uploadIndex map[int64]int,
	branchesBySample map[sampleKey][]models.BranchesData,
	methodBySample map[sampleKey]models.MethodData,
	spansBySample map[sampleKey][]models.SpanData,
) ([]any, error) {
	sessions := make([]any, 0, len(lineSamples))
	var datapoints []any

	for _, s := range lineSamples {
		idx, ok := uploadIndex[s.RawUploadID]
		if !ok {
			continue
		}
		k := sampleKey{s.RawUploadID, s.LocalSampleID}
		coverage := sampleCoverage(s)

		var branchesOut any
		if rows, ok := branchesBySample[k]; ok {
			arr := make([]any, 0, len(rows))
			for _, b := range rows {
				arr = append(arr, branchDescriptorJSON(b))
			}
			branchesOut = arr
		}

		var partialsOut any
		if rows, ok := spansBySample[k]; ok {
			arr := make([]any, 0, len(rows))
			for _, sp := range rows {
				entry := trimTrailingNulls([]any{int64OrNil(sp.StartCol), int64OrNil(sp.EndCol), sp.Hits})
				arr = append(arr, entry)
			}
			partialsOut = arr
		}

		var complexityOut any
		if m, ok := methodBySample[k]; ok {
			complexityOut = complexityJSON(m)
		}

		ls := trimTrailingNulls([]any{idx, coverage, branchesOut, partialsOut, complexityOut})
		sessions = append(sessions, ls)

		contexts, err := r.ListContextsForSample(s.RawUploadID, s.LocalSampleID)
		if err != nil {
			return nil, err
		}
		if len(contexts) > 0 {
			labels := make([]any, 0, len(contexts))
			for _, c := range contexts {
				labels = append(labels, c.Name)
			}
			datapoints = append(datapoints, []any{idx, coverage, coverageTypeJSON(s.Type), labels})
		}
	}

	first := lineSamples[0]
	var datapointsOut any
	if len(datapoints) > 0 {
		datapointsOut = datapoints
	}

	full := []any{sampleCoverage(first), coverageTypeJSON(first.Type), sessions, nil, nil, datapointsOut}
	return trimTrailingNulls(full), nil
}

// coverageTypeJSON encodes a CoverageType the way real pyreport consumers
// expect on the wire: line coverage omits the field entirely (null), and
// branch/method are abbreviated to single letters.
func coverageTypeJSON(t models.CoverageType) any {
	switch t {
	case models.CoverageBranch:
		return "b"
	case models.CoverageMethod:
		return "m"
	default:
		return nil
	}
}

func sampleCoverage(s models.CoverageSample) any {
	switch s.Type {
	case models.CoverageBranch:
		if s.HitBranches != nil && s.TotalBranches != nil {
			return fmt.Sprintf("%d/%d", *s.HitBranches, *s.TotalBranches)
		}
		return 0
	default:
		if s.Hits != nil {
			return *s.Hits
		}
		return 0
	}
}

func branchDescriptorJSON(b models.BranchesData) any {
	if b.Format == models.BranchLine {
		return json.RawMessage(b.Descriptor)
	}
	return b.Descriptor
}

func complexityJSON(m models.MethodData) any {
	if m.HitComplexityPaths != nil && m.TotalComplexity != nil {
		return []any{*m.HitComplexityPaths, *m.TotalComplexity}
	}
	if m.TotalComplexity != nil {
		return *m.TotalComplexity
	}
	return nil
}

func int64OrNil(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
