package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	coreerrors "git.home.luguber.info/inful/pyreport/internal/errors"
	"git.home.luguber.info/inful/pyreport/internal/version"
)

// CLI is the root command definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Parse ParseCmd `cmd:"" help:"Parse a report-json/chunks pair into a sqlite report store"`
	Emit  EmitCmd  `cmd:"" help:"Emit report-json/chunks from a sqlite report store"`
	Serve ServeCmd `cmd:"" help:"Run the ingest daemon (fsnotify + NATS + maintenance)"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// Global is passed to every subcommand's Run.
type Global struct {
	Logger *slog.Logger
}

// AfterApply installs the slog handler before any subcommand runs.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	cli := &CLI{}
	parser := kong.Parse(cli,
		kong.Description("pyreport: ingest and serialize legacy pyreport coverage uploads."),
		kong.Vars{"version": version.Version},
	)

	errorAdapter := coreerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	globals := &Global{Logger: slog.Default()}

	if err := parser.Run(globals, cli); err != nil {
		errorAdapter.HandleError(err)
	}
}
