package router

import (
	"sync"

	"github.com/edgerelay/edgerelay/internal/backend"
)

// RoundRobin selects backends in configured order, skipping unhealthy ones.
//
// The cursor indexes the full configured list, not the healthy subset, so
// cursor movement is independent of which backends are currently healthy.
// Select scans forward from the cursor at most one full wrap; the first
// healthy candidate wins and the cursor moves to the slot after it. With a
// stable healthy set of size k, any k consecutive selections visit each
// healthy backend exactly once.
type RoundRobin struct {
	mu       sync.Mutex
	registry *backend.Registry
	cursor   int
}

func NewRoundRobin(registry *backend.Registry) *RoundRobin {
	return &RoundRobin{
		registry: registry,
	}
}

// Select returns the next healthy backend, or nil if none is healthy.
// Cost is O(number of configured backends) per call.
func (r *RoundRobin) Select() *backend.Backend {
	all := r.registry.Backends()
	if len(all) == 0 {
		return nil
	}

	// One consistent view of the healthy set for the whole scan.
	healthy := r.registry.SnapshotHealthy()
	if len(healthy) == 0 {
		return nil
	}

	eligible := make(map[*backend.Backend]struct{}, len(healthy))
	for _, b := range healthy {
		eligible[b] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(all)
	for i := 0; i < n; i++ {
		idx := (r.cursor + i) % n
		if _, ok := eligible[all[idx]]; ok {
			r.cursor = (idx + 1) % n
			return all[idx]
		}
	}

	// Unreachable while the healthy snapshot is non-empty; the cursor is
	// left in place so the next scan starts from the same slot.
	return nil
}
