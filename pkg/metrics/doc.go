// Package metrics provides Prometheus instrumentation for goguard
// components. Components accept a Config selecting a Registerer; each
// metrics-enabled component wraps its base implementation with a decorator
// that records admission decisions, breaker transitions, retry attempts,
// and batch throughput.
package metrics
