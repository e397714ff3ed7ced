// Package metrics defines ferry's narrow Counter/Gauge abstraction and a
// Prometheus-backed implementation, grounded on the teacher's pkg/metrics
// interfaces and internal/metrics/driver/prometheus adapter.
package metrics

// Counter is a metric that only increases.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Gauge is a metric that can move in either direction.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// Histogram observes a distribution of values (used for latencies).
type Histogram interface {
	Observe(value float64)
}

// Registry is the set of metrics ferry's core emits. Implementations wrap
// a concrete metrics backend (Prometheus here).
type Registry interface {
	// ForwardsTotal counts completed forward attempts, labeled by node id
	// and outcome ("success", "failure").
	ForwardsTotal(nodeID, outcome string) Counter
	// ForwardLatencySeconds observes the wall-clock latency of a forward
	// attempt, labeled by node id.
	ForwardLatencySeconds(nodeID string) Histogram
	// NodeHealth reports a node's current health as 0/1/2
	// (unhealthy/degraded/healthy), labeled by node id.
	NodeHealth(nodeID string) Gauge
	// ProbeDurationSeconds observes the wall-clock latency of a health
	// probe, labeled by node id.
	ProbeDurationSeconds(nodeID string) Histogram
}
