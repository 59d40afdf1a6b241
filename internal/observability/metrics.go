package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_sim"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Simulation job metrics.
	JobsSubmitted prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    *prometheus.CounterVec // labels: reason={building_not_found,climate_data,persistence,deadline,shutdown,other}
	JobsRejected  *prometheus.CounterVec // labels: reason={queue_full,shutdown}
	JobsRunning   prometheus.Gauge
	QueueDepth    prometheus.Gauge
	JobDuration   prometheus.Histogram

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram

	// Request topic consumer metrics.
	RequestsConsumed prometheus.Counter
	RequestsRejected prometheus.Counter
	ConsumerRunning  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.JobsSubmitted,
		m.JobsCompleted,
		m.JobsFailed,
		m.JobsRejected,
		m.JobsRunning,
		m.QueueDepth,
		m.JobDuration,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.RequestsConsumed,
		m.RequestsRejected,
		m.ConsumerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total simulation jobs accepted for execution.",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total simulation jobs that reached completed.",
		}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total simulation jobs that reached failed, by reason class.",
		}, []string{"reason"}),
		JobsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_rejected_total",
			Help:      "Total submissions turned away before a simulation was recorded, by reason.",
		}, []string{"reason"}),
		JobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Simulation jobs currently executing on a worker.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Simulation jobs waiting for a worker.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of a simulation job from dequeue to terminal status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather provider requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather observation cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Simulation requests read from the request topic.",
		}),
		RequestsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Simulation requests skipped as invalid.",
		}),
		ConsumerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consumer_running",
			Help:      "1 when the request consumer is active, 0 when shut down.",
		}),
	}
}
