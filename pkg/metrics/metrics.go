// Package metrics records what a calibration run did, for export to a
// node-exporter textfile collector.
package metrics

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vnacal"

// Run outcomes.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder owns a private registry so that a run exports only its own
// collectors.
type Recorder struct {
	reg *prometheus.Registry

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	written  *prometheus.CounterVec
	warnings *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	last     *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Calibration runs by method and result.",
		}, []string{"method", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per calibration stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_written_total",
			Help:      "Result files written.",
		}, []string{"method"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_warnings_total",
			Help:      "Results that could not be published.",
		}, []string{"method"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_skipped_total",
			Help:      "Results without a destination.",
		}, []string{"method"}),
		last: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last run by result.",
		}, []string{"result"}),
	}
	r.reg.MustRegister(r.runs, r.duration, r.written, r.warnings, r.skipped, r.last)
	return r
}

// ObserveStage records how long stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(stage).Observe(d.Seconds())
}

// Published adds the outcome of one publish step.
func (r *Recorder) Published(method string, written, skipped, warnings int) {
	if r == nil {
		return
	}
	r.written.WithLabelValues(method).Add(float64(written))
	r.skipped.WithLabelValues(method).Add(float64(skipped))
	r.warnings.WithLabelValues(method).Add(float64(warnings))
}

// RunFinished counts a run. method is empty when the run failed before a
// method was resolved.
func (r *Recorder) RunFinished(method string, err error, at time.Time) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	if method == "" {
		method = "unknown"
	}
	r.runs.WithLabelValues(method, result).Inc()
	r.last.WithLabelValues(result).Set(float64(at.Unix()))
}

// Gatherer exposes the recorded metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// WriteToTextfile writes the metrics atomically in the text exposition
// format.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return pkgerrors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
