// Package backend defines backend server identities and the registry that
// owns their health status. The registry's healthy view is always an
// order-preserving subsequence of the configured list; backends are only
// marked healthy or unhealthy, never removed.
package backend
