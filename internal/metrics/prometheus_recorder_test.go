package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveParseDuration(150 * time.Millisecond)
	pr.ObserveEmitDuration(50 * time.Millisecond)
	pr.IncReportsParsed(ResultSuccess)
	pr.IncReportsEmitted(ResultSuccess)
	pr.IncParseError("ParserInvalidJson")
	pr.IncSamplesInserted(12)
	pr.IncRowsEmitted(12)
	pr.SetIngestQueueDepth(3)
	pr.IncIngestRetry("nats")
	pr.IncIngestRetryExhausted("nats")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}
