package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for report ingestion and emission.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObserveParseDuration(d time.Duration)
	ObserveEmitDuration(d time.Duration)
	IncReportsParsed(result ResultLabel)
	IncReportsEmitted(result ResultLabel)
	IncParseError(kind string)
	IncSamplesInserted(n int)
	IncRowsEmitted(n int)
	SetIngestQueueDepth(n int)
	IncIngestRetry(driver string)
	IncIngestRetryExhausted(driver string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveParseDuration(time.Duration) {}
func (NoopRecorder) ObserveEmitDuration(time.Duration)  {}
func (NoopRecorder) IncReportsParsed(ResultLabel)       {}
func (NoopRecorder) IncReportsEmitted(ResultLabel)      {}
func (NoopRecorder) IncParseError(string)               {}
func (NoopRecorder) IncSamplesInserted(int)             {}
func (NoopRecorder) IncRowsEmitted(int)                 {}
func (NoopRecorder) SetIngestQueueDepth(int)            {}
func (NoopRecorder) IncIngestRetry(string)          {}
func (NoopRecorder) IncIngestRetryExhausted(string) {}
