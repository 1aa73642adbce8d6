// Package handler implements the main HTTP request handler for the load
// balancer. It coordinates backend selection, request forwarding under a
// bounded concurrency limit, and error conversion (503 when no backend is
// available, 502 for any forwarding failure).
package handler
