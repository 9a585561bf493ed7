package errors

// Convenience constructors for the most common error sites.

// IoError wraps a backing-store I/O failure.
func IoError(operation string, cause error) *CoreError {
	return Wrap(cause, KindIo, SeverityFatal, "I/O failure").
		WithContext("operation", operation)
}

// DbError wraps a reference SQL backend fault.
func DbError(operation string, cause error) *CoreError {
	return Wrap(cause, KindDb, SeverityFatal, "database operation failed").
		WithContext("operation", operation)
}

// BuilderError wraps a ReportBuilder implementation's fault.
func BuilderError(detail string, cause error) *CoreError {
	return Wrap(cause, KindBuilderError, SeverityFatal, detail)
}

// InvalidJson reports malformed JSON in the report-JSON document.
func InvalidJson(cause error) *CoreError {
	return Wrap(cause, KindParserInvalidJson, SeverityFatal, "malformed JSON")
}

// MissingSection reports a missing "files" or "sessions" top-level key.
func MissingSection(section string) *CoreError {
	return New(KindParserInvalidJson, SeverityFatal, "missing required section").
		WithContext("section", section)
}

// InvalidFile reports a non-integer chunk_index in the files section.
func InvalidFile(path string, cause error) *CoreError {
	return Wrap(cause, KindParserInvalidJson, SeverityFatal, "invalid file entry").
		WithContext("path", path)
}

// InvalidSession reports a non-integer session_index key.
func InvalidSession(key string, cause error) *CoreError {
	return Wrap(cause, KindParserInvalidJson, SeverityFatal, "invalid session key").
		WithContext("key", key)
}

// UnexpectedEof reports the chunks stream ending mid-section.
func UnexpectedEof(expecting string) *CoreError {
	return New(KindParserUnexpectedEof, SeverityFatal, "unexpected end of input").
		WithContext("expecting", expecting)
}

// UnexpectedInput reports a line that does not match what the state machine expects.
func UnexpectedInput(expecting, got string) *CoreError {
	return New(KindParserUnexpectedInput, SeverityFatal, "unexpected input").
		WithContext("expecting", expecting).
		WithContext("got", got)
}

// InvalidFileHeader wraps the underlying JSON error decoding a file header line.
func InvalidFileHeader(cause error) *CoreError {
	return Wrap(cause, KindParserInvalidFileHeader, SeverityFatal, "invalid file header")
}

// InvalidChunkHeader wraps the underlying JSON error decoding a chunk header line.
func InvalidChunkHeader(chunkIndex int, cause error) *CoreError {
	return Wrap(cause, KindParserInvalidChunkHeader, SeverityFatal, "invalid chunk header").
		WithContext("chunk_index", chunkIndex)
}

// InvalidLineRecord wraps the underlying JSON error decoding a ReportLine record.
func InvalidLineRecord(chunkIndex, lineNo int, cause error) *CoreError {
	return Wrap(cause, KindParserInvalidLineRecord, SeverityFatal, "invalid line record").
		WithContext("chunk_index", chunkIndex).
		WithContext("line_no", lineNo)
}

// UnknownSession reports a ReportLine session referencing a session index
// absent from the report-JSON sessions map.
func UnknownSession(sessionID uint32) *CoreError {
	return New(KindParserSemantic, SeverityFatal, "unknown session").
		WithContext("session_id", sessionID).
		withSemantic(SemanticUnknownSession)
}

// UnknownLabel reports a label id absent from the labels index.
func UnknownLabel(labelID uint32) *CoreError {
	return New(KindParserSemantic, SeverityFatal, "unknown label").
		WithContext("label_id", labelID).
		withSemantic(SemanticUnknownLabel)
}

// SerializerIncomplete reports a row missing the fields required to emit it,
// e.g. a sample with neither hits nor branch counts.
func SerializerIncomplete(detail string) *CoreError {
	return New(KindSerializerIncomplete, SeverityFatal, detail)
}

func (e *CoreError) withSemantic(s SemanticKind) *CoreError {
	e.Semantic = s
	return e
}
