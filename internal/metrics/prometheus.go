package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeDeclined = "declined"
	OutcomeInvalid  = "invalid"
)

// Metrics contains the Prometheus collectors for note runs. All methods
// are safe on a nil *Metrics, so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	// Pipeline runs
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Transcoding
	Transcodes        *prometheus.CounterVec
	TranscodeDuration prometheus.Histogram
	Bitrate           prometheus.Histogram

	// Backend calls (transcription and generation)
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BackendRetries  *prometheus.CounterVec
}

// NewMetrics creates all collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailymemo_runs_total",
			Help: "Total number of note runs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailymemo_run_duration_seconds",
			Help:    "Wall time of a note run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		Transcodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailymemo_transcodes_total",
			Help: "Total number of recordings transcoded by outcome",
		}, []string{"outcome"}),
		TranscodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailymemo_transcode_duration_seconds",
			Help:    "Time spent transcoding one recording",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1.7 minutes
		}),
		Bitrate: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailymemo_transcode_bitrate_kbps",
			Help:    "Bitrate chosen for transcoded recordings",
			Buckets: []float64{32, 48, 64, 96, 128, 192, 256, 320},
		}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailymemo_backend_requests_total",
			Help: "Total number of backend requests by backend and outcome",
		}, []string{"backend", "outcome"}),
		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dailymemo_backend_request_duration_seconds",
			Help:    "Backend request duration including transport retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"backend"}),
		BackendRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailymemo_backend_retries_total",
			Help: "Total number of transport-level retries by backend",
		}, []string{"backend"}),
	}
}

func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveTranscode(outcome string, d time.Duration, bitrateKbps int) {
	if m == nil {
		return
	}
	m.Transcodes.WithLabelValues(outcome).Inc()
	m.TranscodeDuration.Observe(d.Seconds())
	if bitrateKbps > 0 {
		m.Bitrate.Observe(float64(bitrateKbps))
	}
}

func (m *Metrics) ObserveBackend(backend, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(backend, outcome).Inc()
	m.BackendDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) RecordRetry(backend string) {
	if m == nil {
		return
	}
	m.BackendRetries.WithLabelValues(backend).Inc()
}

// WriteTextfile writes all collectors in the text exposition format, for
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
