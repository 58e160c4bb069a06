package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects redaction counters on a private registry so batch runs
// can dump them for a node-exporter textfile collector.
type Metrics struct {
	registry      *prometheus.Registry
	documents     *prometheus.CounterVec
	regions       prometheus.Counter
	patternErrors prometheus.Counter
	pageDuration  prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfredact_documents_total",
			Help: "Documents processed, by outcome",
		}, []string{"status"}),
		regions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfredact_regions_applied_total",
			Help: "Redaction regions burned into output documents",
		}),
		patternErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfredact_pattern_errors_total",
			Help: "Patterns skipped because they failed to compile or evaluate",
		}),
		pageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdfredact_page_duration_seconds",
			Help:    "Time spent analysing one page",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	m.registry.MustRegister(m.documents, m.regions, m.patternErrors, m.pageDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) DocumentDone(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.documents.WithLabelValues(status).Inc()
}

func (m *Metrics) RegionsApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.regions.Add(float64(n))
}

func (m *Metrics) PatternErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.patternErrors.Add(float64(n))
}

func (m *Metrics) ObservePage(d time.Duration) {
	if m == nil {
		return
	}
	m.pageDuration.Observe(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
