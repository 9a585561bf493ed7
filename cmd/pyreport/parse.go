package main

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/pyreport/internal/pyreport"
	"git.home.luguber.info/inful/pyreport/internal/report/sqlite"
)

// ParseCmd implements `pyreport parse <report.json> <chunks> <out.sqlite>`.
type ParseCmd struct {
	ReportJSON string `arg:"" help:"Path to the report-json file"`
	Chunks     string `arg:"" help:"Path to the chunks text file"`
	Output     string `arg:"" help:"Path to write the sqlite report store"`
}

func (p *ParseCmd) Run(_ *Global, _ *CLI) error {
	reportJSON, err := os.ReadFile(p.ReportJSON)
	if err != nil {
		return fmt.Errorf("read report json: %w", err)
	}
	chunksBytes, err := os.ReadFile(p.Chunks)
	if err != nil {
		return fmt.Errorf("read chunks: %w", err)
	}

	builder, err := sqlite.NewBuilder(p.Output)
	if err != nil {
		return err
	}

	if err := pyreport.ParsePyreport(reportJSON, chunksBytes, builder); err != nil {
		_ = builder.Abort()
		return err
	}

	r, err := builder.Build()
	if err != nil {
		return err
	}
	defer r.Close()

	totals, err := r.Totals()
	if err != nil {
		return err
	}

	fmt.Printf("parsed %d files, %d lines (%d hits, %d misses, %d partials)\n",
		totals.Files, totals.Lines, totals.Hits, totals.Misses, totals.Partials)
	return nil
}
