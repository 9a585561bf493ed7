// Package chunks implements the pyreport chunks-file state machine described
// in spec §4.2: an incremental parser over a line-oriented text format with
// embedded JSON fragments, delimiter lines, and implicit line-number
// tracking. It consumes the (chunk_index → file_id) and (session_index →
// raw_upload_id) maps produced by internal/pyreport/reportjson and drives
// inserts against a report.ReportBuilder as it walks the input.
package chunks

import (
	"bytes"
	"encoding/json"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/report"
	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

const (
	endOfHeaderLiteral = "<<<<< end_of_header >>>>>"
	endOfChunkLiteral  = "<<<<< end_of_chunk >>>>>"
)

// Expecting names a chunks-parser state.
type Expecting string

const (
	ExpectFileHeader  Expecting = "file_header"
	ExpectChunkHeader Expecting = "chunk_header"
	ExpectLineRecord  Expecting = "line_record"
	ExpectEndOfChunk  Expecting = "end_of_chunk"
	stateDone         Expecting = "done"
)

// EventKind classifies a ParserEvent.
type EventKind string

const (
	EventFileHeader  EventKind = "file_header"
	EventChunkHeader EventKind = "chunk_header"
	EventEmptyChunk  EventKind = "empty_chunk"
	EventLineRecord  EventKind = "line_record"
	EventEOF         EventKind = "eof"
)

// ParserEvent is the single unit Parser.Next returns.
type ParserEvent struct {
	Kind            EventKind
	ChunkIndex      int
	LineNo          int
	PresentSessions []int
}

type chunkHeaderJSON struct {
	PresentSessions []int `json:"present_sessions"`
}

// Parser drives the state machine pull-style: callers loop on Next until an
// EventEOF, with no internal buffering beyond the rest-of-input slice.
type Parser struct {
	data []byte
	pos  int

	state      Expecting
	chunkIndex int

	// currentLine is the 1-based line number within the chunk currently
	// being processed; it resets to 0 at the start of each chunk.
	currentLine int

	filesMap     map[int]int64
	sessionsMap  map[int]int64
	labels       map[uint32]int64
	labelsByName map[string]int64
	builder      report.ReportBuilder
}

// NewParser constructs a Parser over chunksBytes. filesMap and sessionsMap
// are the index maps produced by reportjson.Parse.
func NewParser(chunksBytes []byte, filesMap, sessionsMap map[int]int64, builder report.ReportBuilder) *Parser {
	return &Parser{
		data:         chunksBytes,
		state:        ExpectFileHeader,
		filesMap:     filesMap,
		sessionsMap:  sessionsMap,
		labels:       make(map[uint32]int64),
		labelsByName: make(map[string]int64),
		builder:      builder,
	}
}

// Next pulls and processes the next event, performing any builder inserts a
// LineRecord implies as a side effect.
func (p *Parser) Next() (ParserEvent, error) {
	for {
		switch p.state {
		case ExpectFileHeader:
			ev, ok, err := p.maybeFileHeader()
			if err != nil {
				return ParserEvent{}, err
			}
			if ok {
				return ev, nil
			}
			continue

		case ExpectChunkHeader:
			line, newPos, ok := splitLine(p.data, p.pos)
			if !ok {
				p.state = stateDone
				continue
			}
			p.pos = newPos

			if string(line) == "null" {
				idx := p.chunkIndex
				p.chunkIndex++
				p.state = ExpectEndOfChunk
				return ParserEvent{Kind: EventEmptyChunk, ChunkIndex: idx}, nil
			}

			var hdr chunkHeaderJSON
			if err := json.Unmarshal(line, &hdr); err != nil {
				return ParserEvent{}, coreerrors.InvalidChunkHeader(p.chunkIndex, err)
			}
			p.currentLine = 0
			p.state = ExpectLineRecord
			return ParserEvent{Kind: EventChunkHeader, ChunkIndex: p.chunkIndex, PresentSessions: hdr.PresentSessions}, nil

		case ExpectLineRecord:
			line, newPos, ok := splitLine(p.data, p.pos)
			if !ok {
				p.state = stateDone
				continue
			}
			if string(line) == endOfChunkLiteral {
				p.pos = newPos
				p.chunkIndex++
				p.state = ExpectChunkHeader
				continue
			}

			p.pos = newPos
			if len(line) == 0 {
				p.currentLine++
				continue
			}

			p.currentLine++
			if err := p.insertLineRecord(line); err != nil {
				return ParserEvent{}, err
			}
			return ParserEvent{Kind: EventLineRecord, ChunkIndex: p.chunkIndex, LineNo: p.currentLine}, nil

		case ExpectEndOfChunk:
			line, newPos, ok := splitLine(p.data, p.pos)
			if !ok {
				p.state = stateDone
				continue
			}
			if string(line) != endOfChunkLiteral {
				return ParserEvent{}, coreerrors.UnexpectedInput(string(ExpectEndOfChunk), string(line))
			}
			p.pos = newPos
			p.state = ExpectChunkHeader
			continue

		default: // stateDone
			return ParserEvent{Kind: EventEOF}, nil
		}
	}
}

// maybeFileHeader peeks the first one or two lines to decide whether a file
// header section is present (a JSON line followed by the literal
// end_of_header line) or whether the input goes straight into the first
// chunk header, per the ExpectFileHeader transition table.
func (p *Parser) maybeFileHeader() (ParserEvent, bool, error) {
	line1, afterLine1, ok1 := splitLine(p.data, p.pos)
	if !ok1 {
		p.state = stateDone
		return ParserEvent{}, false, nil
	}

	line2, afterLine2, ok2 := splitLine(p.data, afterLine1)
	if ok2 && string(line2) == endOfHeaderLiteral {
		labels, err := p.parseFileHeaderLine(line1)
		if err != nil {
			return ParserEvent{}, false, err
		}
		p.labels = labels
		p.pos = afterLine2
		p.state = ExpectChunkHeader
		return ParserEvent{Kind: EventFileHeader}, true, nil
	}

	// No header section: line1 is actually the first chunk header.
	p.state = ExpectChunkHeader
	return ParserEvent{}, false, nil
}

type fileHeaderJSON struct {
	LabelsIndex map[string]string `json:"labels_index"`
}

func (p *Parser) parseFileHeaderLine(line []byte) (map[uint32]int64, error) {
	var hdr fileHeaderJSON
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, coreerrors.InvalidFileHeader(err)
	}

	labels := make(map[uint32]int64, len(hdr.LabelsIndex))
	ids := make([]uint32, 0, len(hdr.LabelsIndex))
	idToKey := make(map[uint32]string, len(hdr.LabelsIndex))
	for key := range hdr.LabelsIndex {
		id, err := parseUint32(key)
		if err != nil {
			return nil, coreerrors.InvalidFileHeader(err)
		}
		ids = append(ids, id)
		idToKey[id] = key
	}
	sortUint32s(ids)

	for _, id := range ids {
		name := hdr.LabelsIndex[idToKey[id]]
		ctx, err := p.builder.InsertContext(models.ContextTestCase, name)
		if err != nil {
			return nil, coreerrors.BuilderError("insert label context", err)
		}
		labels[id] = ctx.ID
		p.labelsByName[name] = ctx.ID
	}
	return labels, nil
}

// currentFileID returns the SourceFile id for the chunk currently being
// processed, via the chunk_index → file_id map produced by reportjson.Parse.
func (p *Parser) currentFileID() int64 {
	return p.filesMap[p.chunkIndex]
}

// splitLine returns the next '\n'-delimited line starting at pos, along
// with the position just past it. A trailing '\r' is never stripped: it
// stays part of the line so that a delimiter comparison against a \r\n
// input fails, rejecting \r\n per §6.
func splitLine(data []byte, pos int) ([]byte, int, bool) {
	if pos >= len(data) {
		return nil, pos, false
	}
	rest := data[pos:]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		return rest, len(data), true
	}
	return rest[:idx], pos + idx + 1, true
}
