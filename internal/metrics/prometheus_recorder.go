package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcomes   *prom.CounterVec
	lastSuccess   prom.Gauge
	mirrored      *prom.GaugeVec
	navEntries    *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "docsync",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual sync stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "docsync",
		Name:      "run_duration_seconds",
		Help:      "Total sync run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docsync",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docsync",
		Name:      "run_outcomes_total",
		Help:      "Sync runs by final status",
	}, []string{"result"})
	pr.lastSuccess = prom.NewGauge(prom.GaugeOpts{
		Namespace: "docsync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful sync run",
	})
	pr.mirrored = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "docsync",
		Name:      "mirrored_files",
		Help:      "Markdown files mirrored per repository in the last run",
	}, []string{"repository"})
	pr.navEntries = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "docsync",
		Name:      "nav_entries",
		Help:      "Navigation entries generated per repository in the last run",
	}, []string{"repository"})
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcomes, pr.lastSuccess, pr.mirrored, pr.navEntries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(result ResultLabel) {
	if p == nil || p.runOutcomes == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(result)).Inc()
	if result == ResultSuccess {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) SetMirroredFiles(repo string, n int) {
	if p == nil || p.mirrored == nil {
		return
	}
	p.mirrored.WithLabelValues(repo).Set(float64(n))
}

func (p *PrometheusRecorder) SetNavEntries(repo string, n int) {
	if p == nil || p.navEntries == nil {
		return
	}
	p.navEntries.WithLabelValues(repo).Set(float64(n))
}

// Registry exposes the underlying registry.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

// WriteTextfile writes all gathered metrics to path in the Prometheus text format,
// creating the parent directory when needed. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
