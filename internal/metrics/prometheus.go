package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// promCounter adapts a *prometheus.CounterVec label-set to Counter.
// Grounded on the teacher's prometheusCounter adapter
// (internal/metrics/driver/prometheus).
type promCounter struct {
	counter prometheus.Counter
}

func (c *promCounter) Inc()             { c.counter.Inc() }
func (c *promCounter) Add(delta float64) { c.counter.Add(delta) }

type promGauge struct {
	gauge prometheus.Gauge
}

func (g *promGauge) Set(value float64) { g.gauge.Set(value) }
func (g *promGauge) Inc()              { g.gauge.Inc() }
func (g *promGauge) Dec()              { g.gauge.Dec() }

type promHistogram struct {
	histogram prometheus.Observer
}

func (h *promHistogram) Observe(value float64) { h.histogram.Observe(value) }

// PrometheusRegistry implements Registry on top of client_golang vectors,
// registered against a caller-supplied prometheus.Registerer (typically
// prometheus.DefaultRegisterer).
type PrometheusRegistry struct {
	forwardsTotal  *prometheus.CounterVec
	forwardLatency *prometheus.HistogramVec
	nodeHealth     *prometheus.GaugeVec
	probeDuration  *prometheus.HistogramVec
}

// NewPrometheusRegistry creates and registers ferry's Prometheus metrics.
func NewPrometheusRegistry(reg prometheus.Registerer) *PrometheusRegistry {
	r := &PrometheusRegistry{
		forwardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ferry_forwards_total",
			Help: "Total number of backend forward attempts.",
		}, []string{"node", "outcome"}),
		forwardLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ferry_forward_latency_seconds",
			Help:    "Latency of backend forward attempts.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node"}),
		nodeHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ferry_node_health",
			Help: "Node health: 0=unhealthy, 1=degraded, 2=healthy.",
		}, []string{"node"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ferry_probe_duration_seconds",
			Help:    "Latency of health probes.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node"}),
	}

	reg.MustRegister(r.forwardsTotal, r.forwardLatency, r.nodeHealth, r.probeDuration)
	return r
}

func (r *PrometheusRegistry) ForwardsTotal(nodeID, outcome string) Counter {
	return &promCounter{counter: r.forwardsTotal.WithLabelValues(nodeID, outcome)}
}

func (r *PrometheusRegistry) ForwardLatencySeconds(nodeID string) Histogram {
	return &promHistogram{histogram: r.forwardLatency.WithLabelValues(nodeID)}
}

func (r *PrometheusRegistry) NodeHealth(nodeID string) Gauge {
	return &promGauge{gauge: r.nodeHealth.WithLabelValues(nodeID)}
}

func (r *PrometheusRegistry) ProbeDurationSeconds(nodeID string) Histogram {
	return &promHistogram{histogram: r.probeDuration.WithLabelValues(nodeID)}
}
