package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "adocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg               *prom.Registry
	stageDuration     *prom.HistogramVec
	stageResults      *prom.CounterVec
	runDuration       prom.Histogram
	runOutcome        *prom.CounterVec
	contentDuration   *prom.HistogramVec
	contentRetries    prom.Counter
	contentStatus     *prom.CounterVec
	fanoutConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		contentDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "content_request_duration_seconds",
			Help:      "Duration of single authoring requests",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		contentRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_retries_total",
			Help:      "Authoring requests retried after a failed attempt",
		}),
		contentStatus: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_blocks_total",
			Help:      "Content blocks by final status",
		}, []string{"status"}),
		fanoutConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "fanout_concurrency",
			Help:      "Worker count used by the last content fan-out",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcome,
		pr.contentDuration, pr.contentRetries, pr.contentStatus, pr.fanoutConcurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveContentRequest(d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.contentDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncContentRetry() {
	if p == nil {
		return
	}
	p.contentRetries.Inc()
}

func (p *PrometheusRecorder) IncContentStatus(status string) {
	if p == nil {
		return
	}
	p.contentStatus.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetFanoutConcurrency(n int) {
	if p == nil {
		return
	}
	p.fanoutConcurrency.Set(float64(n))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
// The write is atomic so a collector never reads a half written file.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
