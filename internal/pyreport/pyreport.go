// Package pyreport wires the report-JSON parser, the chunks parser, and
// the serializer together behind the two entry points described in spec
// §6: ParsePyreport (pyreport → report) and EmitPyreport (report →
// pyreport).
package pyreport

import (
	"io"

	"git.home.luguber.info/inful/pyreport/internal/pyreport/chunks"
	"git.home.luguber.info/inful/pyreport/internal/pyreport/reportjson"
	"git.home.luguber.info/inful/pyreport/internal/pyreport/serialize"
	"git.home.luguber.info/inful/pyreport/internal/report"
)

// ParsePyreport drives a full parse of a pyreport upload (report-JSON plus
// chunks) against builder: first reportjson.Parse establishes the file and
// session index maps, then chunks.Parser walks the chunks bytes inserting
// every sample and detail row they describe. On any error, builder's
// in-progress transaction is left to the caller to abort — a failing
// insert aborts the containing parse per §7, and the state machine is not
// restartable afterward.
func ParsePyreport(reportJSON, chunksBytes []byte, builder report.ReportBuilder) error {
	result, err := reportjson.Parse(reportJSON, builder)
	if err != nil {
		return err
	}

	p := chunks.NewParser(chunksBytes, result.FilesMap, result.SessionsMap, builder)
	for {
		ev, err := p.Next()
		if err != nil {
			return err
		}
		if ev.Kind == chunks.EventEOF {
			return nil
		}
	}
}

// EmitPyreport writes report-JSON to jsonSink and chunks text to
// chunksSink, in that order, reconstructing both from r's listing methods.
func EmitPyreport(r report.Report, jsonSink, chunksSink io.Writer) error {
	if err := serialize.WriteReportJSON(r, jsonSink); err != nil {
		return err
	}
	return serialize.WriteChunks(r, chunksSink)
}
