package metrics

import "time"

type testRecorder struct {
	parseDurations  int
	emitDurations   int
	reportsParsed   map[ResultLabel]int
	parseErrors     map[string]int
	samplesInserted int
	rowsEmitted     int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		reportsParsed: map[ResultLabel]int{},
		parseErrors:   map[string]int{},
	}
}

func (t *testRecorder) ObserveParseDuration(time.Duration) { t.parseDurations++ }
func (t *testRecorder) ObserveEmitDuration(time.Duration)  { t.emitDurations++ }
func (t *testRecorder) IncReportsParsed(result ResultLabel) {
	t.reportsParsed[result]++
}
func (t *testRecorder) IncReportsEmitted(ResultLabel)   {}
func (t *testRecorder) IncParseError(kind string)       { t.parseErrors[kind]++ }
func (t *testRecorder) IncSamplesInserted(n int)        { t.samplesInserted += n }
func (t *testRecorder) IncRowsEmitted(n int)            { t.rowsEmitted += n }
func (t *testRecorder) SetIngestQueueDepth(int)         {}
func (t *testRecorder) IncIngestRetry(string)           {}
func (t *testRecorder) IncIngestRetryExhausted(string)  {}
