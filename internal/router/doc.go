// Package router implements backend selection. The only shipped strategy is
// round-robin over the full configured list with unhealthy slots skipped.
package router
