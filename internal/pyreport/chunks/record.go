package chunks

import (
	"encoding/json"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// insertLineRecord decodes one ReportLine JSON array and, per session,
// inserts a CoverageSample plus any BranchesData/MethodData/SpanData rows
// its LineSession carries, then resolves ReportLine-level datapoints into
// ContextAssoc rows.
func (p *Parser) insertLineRecord(raw []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}
	elem := func(i int) json.RawMessage {
		if i < len(arr) {
			return arr[i]
		}
		return json.RawMessage("null")
	}

	covType, err := parseCoverageType(elem(1))
	if err != nil {
		return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}

	var sessions []json.RawMessage
	if isPresent(elem(2)) {
		if err := json.Unmarshal(elem(2), &sessions); err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
	}

	fileID := p.currentFileID()
	sessionSampleID := make(map[int64]int64, len(sessions))

	for _, sraw := range sessions {
		var ls []json.RawMessage
		if err := json.Unmarshal(sraw, &ls); err != nil || len(ls) < 2 {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		var sessionID int64
		if err := json.Unmarshal(ls[0], &sessionID); err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
		uploadID, ok := p.sessionsMap[int(sessionID)]
		if !ok {
			return coreerrors.UnknownSession(uint32(sessionID))
		}

		value, err := parseCoverageValue(ls[1])
		if err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		// A Method-typed session whose raw coverage was itself a branches-
		// taken fraction carries branch detail that normalization discards
		// from the sample (rule 2 collapses it to a hit count); retain it
		// on the MethodData row instead.
		var methodHitBranches, methodTotalBranches *int64
		if value.kind == valueFraction && covType == models.CoverageMethod {
			hb, tb := value.hitBranches, value.totalBranches
			methodHitBranches, methodTotalBranches = &hb, &tb
		}

		normValue, normType := normalize(value, covType)

		sample := models.CoverageSample{
			RawUploadID: uploadID, SourceFileID: fileID, LineNo: int64(p.currentLine), Type: normType,
		}
		switch normValue.kind {
		case valueHits:
			h := normValue.hits
			sample.Hits = &h
		case valueFraction:
			hb, tb := normValue.hitBranches, normValue.totalBranches
			sample.HitBranches, sample.TotalBranches = &hb, &tb
		}

		inserted, err := p.builder.InsertCoverageSample(sample)
		if err != nil {
			return coreerrors.BuilderError("insert coverage sample", err)
		}
		sessionSampleID[uploadID] = inserted.LocalSampleID

		if err := p.insertBranches(ls, uploadID, fileID, inserted.LocalSampleID, normValue); err != nil {
			return err
		}
		if err := p.insertPartials(ls, uploadID, fileID, inserted.LocalSampleID); err != nil {
			return err
		}
		if err := p.insertComplexity(ls, uploadID, fileID, inserted.LocalSampleID, methodHitBranches, methodTotalBranches); err != nil {
			return err
		}
	}

	if isPresent(elem(5)) {
		if err := p.insertDatapoints(elem(5), sessionSampleID); err != nil {
			return err
		}
	}

	return nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func (p *Parser) insertBranches(ls []json.RawMessage, uploadID, fileID, localSampleID int64, normValue coverageValue) error {
	if len(ls) <= 2 || !isPresent(ls[2]) {
		return nil
	}
	var descriptors []json.RawMessage
	if err := json.Unmarshal(ls[2], &descriptors); err != nil {
		return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}

	rows := make([]models.BranchesData, 0, len(descriptors))
	for _, d := range descriptors {
		format, descriptor, err := parseBranchDescriptor(d)
		if err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
		rows = append(rows, models.BranchesData{
			RawUploadID: uploadID, SourceFileID: fileID, LocalSampleID: localSampleID,
			Hits: normValue.hitBranches, Format: format, Descriptor: descriptor,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := p.builder.MultiInsertBranchesData(rows); err != nil {
		return coreerrors.BuilderError("insert branches data", err)
	}
	return nil
}

func (p *Parser) insertPartials(ls []json.RawMessage, uploadID, fileID, localSampleID int64) error {
	if len(ls) <= 3 || !isPresent(ls[3]) {
		return nil
	}
	var partials []json.RawMessage
	if err := json.Unmarshal(ls[3], &partials); err != nil {
		return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}

	rows := make([]models.SpanData, 0, len(partials))
	for _, praw := range partials {
		var parts []json.RawMessage
		if err := json.Unmarshal(praw, &parts); err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		var startCol, endCol *int64
		var covRaw json.RawMessage
		switch len(parts) {
		case 3:
			startCol = parseOptionalInt(parts[0])
			endCol = parseOptionalInt(parts[1])
			covRaw = parts[2]
		case 2:
			startCol = parseOptionalInt(parts[0])
			covRaw = parts[1]
		case 1:
			covRaw = parts[0]
		default:
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, nil)
		}

		spanValue, err := parseCoverageValue(covRaw)
		if err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		lineNo := int64(p.currentLine)
		sampleID := localSampleID
		rows = append(rows, models.SpanData{
			RawUploadID: uploadID, SourceFileID: fileID, LocalSampleID: &sampleID,
			StartLine: &lineNo, StartCol: startCol, EndLine: &lineNo, EndCol: endCol,
			Hits: spanHits(spanValue),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := p.builder.MultiInsertSpanData(rows); err != nil {
		return coreerrors.BuilderError("insert span data", err)
	}
	return nil
}

func (p *Parser) insertComplexity(ls []json.RawMessage, uploadID, fileID, localSampleID int64, methodHitBranches, methodTotalBranches *int64) error {
	hasComplexity := len(ls) > 4 && isPresent(ls[4])
	if !hasComplexity && methodHitBranches == nil {
		return nil
	}

	var hitPaths, totalComplexity *int64
	if hasComplexity {
		var err error
		hitPaths, totalComplexity, err = parseComplexity(ls[4])
		if err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
	}

	row := models.MethodData{
		RawUploadID: uploadID, SourceFileID: fileID, LocalSampleID: localSampleID, LineNo: int64(p.currentLine),
		HitBranches: methodHitBranches, TotalBranches: methodTotalBranches,
		HitComplexityPaths: hitPaths, TotalComplexity: totalComplexity,
	}
	if _, err := p.builder.MultiInsertMethodData([]models.MethodData{row}); err != nil {
		return coreerrors.BuilderError("insert method data", err)
	}
	return nil
}

func (p *Parser) insertDatapoints(raw json.RawMessage, sessionSampleID map[int64]int64) error {
	var datapoints []json.RawMessage
	if err := json.Unmarshal(raw, &datapoints); err != nil {
		return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}

	var rows []models.ContextAssoc
	for _, draw := range datapoints {
		var dp []json.RawMessage
		if err := json.Unmarshal(draw, &dp); err != nil || len(dp) < 2 {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		var sessionID int64
		if err := json.Unmarshal(dp[0], &sessionID); err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
		uploadID, ok := p.sessionsMap[int(sessionID)]
		if !ok {
			return coreerrors.UnknownSession(uint32(sessionID))
		}

		localSampleID, ok := sessionSampleID[uploadID]
		if !ok {
			continue // datapoint for a session with no sample on this line
		}

		labelsRaw := dp[len(dp)-1]
		var labels []json.RawMessage
		if err := json.Unmarshal(labelsRaw, &labels); err != nil {
			return coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}

		for _, lraw := range labels {
			ctxID, err := p.resolveLabel(lraw)
			if err != nil {
				return err
			}
			sampleID := localSampleID
			rows = append(rows, models.ContextAssoc{ContextID: ctxID, RawUploadID: uploadID, LocalSampleID: &sampleID})
		}
	}

	if len(rows) == 0 {
		return nil
	}
	if _, err := p.builder.MultiInsertContextAssoc(rows); err != nil {
		return coreerrors.BuilderError("insert context associations", err)
	}
	return nil
}

// resolveLabel resolves a datapoint label (a numeric id into the header's
// labels_index, or a string name) to a Context id, lazily inserting a new
// Context for a previously-unseen string label.
func (p *Parser) resolveLabel(raw json.RawMessage) (int64, error) {
	if len(raw) > 0 && raw[0] != '"' {
		var id uint32
		if err := json.Unmarshal(raw, &id); err != nil {
			return 0, coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
		}
		ctxID, ok := p.labels[id]
		if !ok {
			return 0, coreerrors.UnknownLabel(id)
		}
		return ctxID, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, coreerrors.InvalidLineRecord(p.chunkIndex, p.currentLine, err)
	}
	if ctxID, ok := p.labelsByName[name]; ok {
		return ctxID, nil
	}

	ctx, err := p.builder.InsertContext(models.ContextTestCase, name)
	if err != nil {
		return 0, coreerrors.BuilderError("insert label context", err)
	}
	p.labelsByName[name] = ctx.ID
	return ctx.ID, nil
}

func spanHits(v coverageValue) int64 {
	switch v.kind {
	case valueHits:
		return v.hits
	case valueFraction:
		return v.hitBranches
	default:
		return 0
	}
}

func parseOptionalInt(raw json.RawMessage) *int64 {
	if !isPresent(raw) {
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

func parseComplexity(raw json.RawMessage) (hitPaths, total *int64, err error) {
	if len(raw) > 0 && raw[0] == '[' {
		var arr []int64
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, nil, err
		}
		switch len(arr) {
		case 0:
			return nil, nil, nil
		case 1:
			t := arr[0]
			return nil, &t, nil
		default:
			h, t := arr[0], arr[1]
			return &h, &t, nil
		}
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, nil, err
	}
	return nil, &n, nil
}
