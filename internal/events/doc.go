// Package events carries the balancer's observability stream: health
// transitions, routing decisions (including "none available"), and
// per-request outcomes.
//
// Events flow through a buffered channel into a collector goroutine with
// non-blocking emission, so neither the request path nor the health monitor
// ever waits on metrics. Aggregates (per-backend selections, status code
// distribution, latency percentiles, current health state) are served as
// JSON from the /metrics endpoint. Nothing is persisted.
package events
