package log

import "time"

// Standard field names shared across ferry's components so log events for
// the same kind of occurrence are consistently shaped regardless of which
// package emits them.
const (
	FieldNodeID         = "node_id"
	FieldAttempt        = "attempt"
	FieldStatusCode     = "status_code"
	FieldLatency        = "latency_ms"
	FieldPreviousStatus = "previous_status"
	FieldNewStatus      = "new_status"
	FieldReason         = "reason"
	FieldMethod         = "method"
	FieldPath           = "path"
)

// ForwardFields creates the standard fields logged around one backend
// forward attempt.
func ForwardFields(nodeID string, attempt int, statusCode int, latency time.Duration) []Field {
	return []Field{
		String(FieldNodeID, nodeID),
		Int(FieldAttempt, attempt),
		Int(FieldStatusCode, statusCode),
		Duration(FieldLatency, latency),
	}
}

// HealthChangeFields creates the standard fields logged when a node's
// health status transitions.
func HealthChangeFields(nodeID, previous, new_, reason string) []Field {
	return []Field{
		String(FieldNodeID, nodeID),
		String(FieldPreviousStatus, previous),
		String(FieldNewStatus, new_),
		String(FieldReason, reason),
	}
}
