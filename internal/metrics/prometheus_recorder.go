package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once sync.Once

	parseDuration    prom.Histogram
	emitDuration     prom.Histogram
	reportsParsed    *prom.CounterVec
	reportsEmitted   *prom.CounterVec
	parseErrors      *prom.CounterVec
	samplesInserted  prom.Counter
	rowsEmitted      prom.Counter
	ingestQueueDepth prom.Gauge
	ingestRetries    *prom.CounterVec
	ingestExhausted  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.parseDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pyreport",
			Name:      "parse_duration_seconds",
			Help:      "Duration of a full pyreport parse (report-json + chunks)",
			Buckets:   prom.DefBuckets,
		})
		pr.emitDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pyreport",
			Name:      "emit_duration_seconds",
			Help:      "Duration of a full pyreport serialization",
			Buckets:   prom.DefBuckets,
		})
		pr.reportsParsed = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "reports_parsed_total",
			Help:      "Reports parsed by outcome",
		}, []string{"result"})
		pr.reportsEmitted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "reports_emitted_total",
			Help:      "Reports serialized by outcome",
		}, []string{"result"})
		pr.parseErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "parse_errors_total",
			Help:      "Parse errors by CoreError kind",
		}, []string{"kind"})
		pr.samplesInserted = prom.NewCounter(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "samples_inserted_total",
			Help:      "Coverage samples inserted into the reference store",
		})
		pr.rowsEmitted = prom.NewCounter(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "rows_emitted_total",
			Help:      "Chunks rows written during serialization",
		})
		pr.ingestQueueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pyreport",
			Name:      "ingest_queue_depth",
			Help:      "Pending ingest jobs observed by the last driver poll",
		})
		pr.ingestRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "ingest_retries_total",
			Help:      "Ingest driver retries (transient failures)",
		}, []string{"driver"})
		pr.ingestExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pyreport",
			Name:      "ingest_retry_exhausted_total",
			Help:      "Count of ingest attempts where retries were exhausted",
		}, []string{"driver"})
		reg.MustRegister(
			pr.parseDuration, pr.emitDuration, pr.reportsParsed, pr.reportsEmitted,
			pr.parseErrors, pr.samplesInserted, pr.rowsEmitted, pr.ingestQueueDepth,
			pr.ingestRetries, pr.ingestExhausted,
		)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveParseDuration(d time.Duration) {
	if p == nil || p.parseDuration == nil {
		return
	}
	p.parseDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveEmitDuration(d time.Duration) {
	if p == nil || p.emitDuration == nil {
		return
	}
	p.emitDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReportsParsed(result ResultLabel) {
	if p == nil || p.reportsParsed == nil {
		return
	}
	p.reportsParsed.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncReportsEmitted(result ResultLabel) {
	if p == nil || p.reportsEmitted == nil {
		return
	}
	p.reportsEmitted.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncParseError(kind string) {
	if p == nil || p.parseErrors == nil {
		return
	}
	p.parseErrors.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncSamplesInserted(n int) {
	if p == nil || p.samplesInserted == nil {
		return
	}
	p.samplesInserted.Add(float64(n))
}

func (p *PrometheusRecorder) IncRowsEmitted(n int) {
	if p == nil || p.rowsEmitted == nil {
		return
	}
	p.rowsEmitted.Add(float64(n))
}

func (p *PrometheusRecorder) SetIngestQueueDepth(n int) {
	if p == nil || p.ingestQueueDepth == nil {
		return
	}
	p.ingestQueueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) IncIngestRetry(driver string) {
	if p == nil || p.ingestRetries == nil {
		return
	}
	p.ingestRetries.WithLabelValues(driver).Inc()
}

func (p *PrometheusRecorder) IncIngestRetryExhausted(driver string) {
	if p == nil || p.ingestExhausted == nil {
		return
	}
	p.ingestExhausted.WithLabelValues(driver).Inc()
}
