package main

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/pyreport/internal/pyreport"
	"git.home.luguber.info/inful/pyreport/internal/report/sqlite"
)

// EmitCmd implements `pyreport emit <in.sqlite> <report.json> <chunks>`.
type EmitCmd struct {
	Input      string `arg:"" help:"Path to the sqlite report store"`
	ReportJSON string `arg:"" help:"Path to write the report-json file"`
	Chunks     string `arg:"" help:"Path to write the chunks text file"`
}

func (e *EmitCmd) Run(_ *Global, _ *CLI) error {
	r, err := sqlite.Open(e.Input)
	if err != nil {
		return err
	}
	defer r.Close()

	jsonFile, err := os.Create(e.ReportJSON)
	if err != nil {
		return fmt.Errorf("create report json output: %w", err)
	}
	defer jsonFile.Close()

	chunksFile, err := os.Create(e.Chunks)
	if err != nil {
		return fmt.Errorf("create chunks output: %w", err)
	}
	defer chunksFile.Close()

	if err := pyreport.EmitPyreport(r, jsonFile, chunksFile); err != nil {
		return err
	}

	fmt.Printf("emitted %s and %s\n", e.ReportJSON, e.Chunks)
	return nil
}
