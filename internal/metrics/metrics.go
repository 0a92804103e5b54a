// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tamzrod/smpspeed-logger/internal/status"
	"github.com/tamzrod/smpspeed-logger/internal/tilemap"
)

const namespace = "smpspeed"

// Metrics holds the Prometheus instruments for one monitoring run.
// It implements poller.Observer and sampler.Observer.
type Metrics struct {
	registry *prometheus.Registry

	records     prometheus.Counter
	retries     *prometheus.CounterVec
	reads       prometheus.Counter
	readBytes   prometheus.Counter
	stableReads prometheus.Histogram
	cycle       prometheus.Histogram

	health         prometheus.Gauge
	secondsInError prometheus.Gauge
	lastErrorCode  prometheus.Gauge
}

// New creates the instruments on a private registry, with Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Measurement records written to the output",
		}),

		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Transient decode failures retried inside the watchdog window",
		}, []string{"reason"}),

		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_reads_total",
			Help:      "GetAddress requests completed",
		}),

		readBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_read_bytes_total",
			Help:      "Bytes received from GetAddress requests",
		}),

		stableReads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stable_reads",
			Help:      "Reads needed before three consecutive snapshots matched",
			Buckets:   []float64{3, 4, 5, 6, 8, 12, 20, 50},
		}),

		cycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time from cycle start to record written",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health",
			Help:      "0 unknown, 1 ok, 2 error, 3 stale",
		}),

		secondsInError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seconds_in_error",
			Help:      "Seconds since the current run of transient failures started",
		}),

		lastErrorCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_error_code",
			Help:      "Code of the most recent failure, 0 when healthy",
		}),
	}

	m.registry.MustRegister(
		m.records,
		m.retries,
		m.reads,
		m.readBytes,
		m.stableReads,
		m.cycle,
		m.health,
		m.secondsInError,
		m.lastErrorCode,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ---- sampler.Observer ----

func (m *Metrics) ObserveRead(bytes int) {
	m.reads.Inc()
	m.readBytes.Add(float64(bytes))
}

func (m *Metrics) ObserveSample(reads int) {
	m.stableReads.Observe(float64(reads))
}

// ---- poller.Observer ----

func (m *Metrics) ObserveRecord(cycle time.Duration) {
	m.records.Inc()
	m.cycle.Observe(cycle.Seconds())
}

func (m *Metrics) ObserveRetry(s tilemap.Status) {
	m.retries.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) ObserveStatus(s status.Snapshot) {
	m.health.Set(float64(s.Health))
	m.secondsInError.Set(float64(s.SecondsInError))
	m.lastErrorCode.Set(float64(s.LastErrorCode))
}
