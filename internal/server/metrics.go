package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/canonsim/internal/metrics"
)

// Metrics holds the service's Prometheus collectors. Each instance owns a
// private registry, so several servers (or tests) can coexist.
type Metrics struct {
	registry       *prometheus.Registry
	handler        http.Handler
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	simulations    *prometheus.CounterVec
	duration       prometheus.Histogram
	quanta         prometheus.Counter
}

// NewMetrics registers the service, Go runtime and host collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canonsim_active_requests",
			Help: "Number of HTTP requests being served.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canonsim_requests_total",
			Help: "HTTP requests by path and status code.",
		}, []string{"path", "code"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canonsim_simulations_total",
			Help: "Simulations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canonsim_simulation_duration_seconds",
			Help:    "Wall-clock duration of successful simulations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		quanta: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canonsim_quanta_placed_total",
			Help: "Energy quanta placed by successful simulations.",
		}),
	}
	reg.MustRegister(
		m.activeRequests, m.requestsTotal, m.simulations, m.duration, m.quanta,
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "canonsim_host_cpu_percent",
			Help: "Host CPU utilisation since the previous scrape.",
		}, func() float64 { return metrics.SampleSystem().CPUPercent }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "canonsim_host_memory_percent",
			Help: "Host memory utilisation.",
		}, func() float64 { return metrics.SampleSystem().MemPercent }),
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(path string, code int) {
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// RecordSimulation counts a simulation; successful ones also feed the
// duration histogram and the quanta counter.
func (m *Metrics) RecordSimulation(outcome string, d time.Duration, quanta int) {
	m.simulations.WithLabelValues(outcome).Inc()
	if outcome == outcomeOK {
		m.duration.Observe(d.Seconds())
		m.quanta.Add(float64(quanta))
	}
}

// WritePrometheus serves the registry in the Prometheus exposition format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
