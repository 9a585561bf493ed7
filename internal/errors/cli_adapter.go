package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if ce, ok := err.(*CoreError); ok {
		return a.exitCodeFromCoreError(ce)
	}

	return 1
}

// exitCodeFromCoreError maps CoreError kinds to exit codes.
func (a *CLIErrorAdapter) exitCodeFromCoreError(err *CoreError) int {
	switch err.Kind {
	case KindIo:
		return 5 // I/O failure
	case KindDb:
		return 6 // backing store failure
	case KindBuilderError:
		return 7 // builder implementation fault
	case KindParserInvalidJson, KindParserUnexpectedInput, KindParserUnexpectedEof,
		KindParserInvalidFileHeader, KindParserInvalidChunkHeader, KindParserInvalidLineRecord:
		return 8 // parser structural fault
	case KindParserSemantic:
		return 9 // parser semantic fault (unknown id reference)
	case KindSerializerIncomplete:
		return 10 // serializer missing required fields
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if ce, ok := err.(*CoreError); ok {
		return a.formatCoreError(ce)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatCoreError formats a CoreError for display.
func (a *CLIErrorAdapter) formatCoreError(err *CoreError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Kind {
	case KindParserSemantic:
		return fmt.Sprintf("%s (%s): %s", err.Kind, err.Semantic, err.Message)
	default:
		return fmt.Sprintf("%s: %s", err.Kind, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if ce, ok := err.(*CoreError); ok {
		return ce.Kind == KindBuilderError ||
			ce.Kind == KindDb ||
			ce.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if ce, ok := err.(*CoreError); ok {
		level := a.slogLevelFromSeverity(ce.Severity)
		attrs := []slog.Attr{
			slog.String("kind", string(ce.Kind)),
		}
		if ce.Semantic != "" {
			attrs = append(attrs, slog.String("semantic", string(ce.Semantic)))
		}

		a.logger.LogAttrs(nil, level, ce.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts a CoreError severity to a slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
