package backend

import (
	"sync"
	"time"
)

// Health states as reported in transition events and metrics.
const (
	StateUnprobed  = "unprobed"
	StateHealthy   = "healthy"
	StateUnhealthy = "unhealthy"
)

type status struct {
	healthy     bool
	probed      bool
	lastChecked time.Time
	lastLatency time.Duration
}

func (s *status) state() string {
	switch {
	case !s.probed:
		return StateUnprobed
	case s.healthy:
		return StateHealthy
	default:
		return StateUnhealthy
	}
}

// Registry is the single source of truth for routing eligibility. It holds
// the fixed ordered list of configured backends and their current health
// status. A single mutex guards all status access so a reader can never
// observe a torn update. Backends start unprobed and are not routable until
// their first successful probe.
type Registry struct {
	mu       sync.RWMutex
	backends []*Backend
	statuses map[*Backend]*status
}

func NewRegistry(backends []*Backend) *Registry {
	statuses := make(map[*Backend]*status, len(backends))
	for _, b := range backends {
		statuses[b] = &status{}
	}

	return &Registry{
		backends: backends,
		statuses: statuses,
	}
}

// Backends returns a copy of the full configured list in fixed order,
// regardless of health.
func (r *Registry) Backends() []*Backend {
	out := make([]*Backend, len(r.backends))
	copy(out, r.backends)
	return out
}

// Len returns the number of configured backends.
func (r *Registry) Len() int {
	return len(r.backends)
}

// MarkHealthy records a successful probe with its observed latency.
// Returns the previous state and whether the state changed.
func (r *Registry) MarkHealthy(b *Backend, latency time.Duration) (previous string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.statuses[b]
	if !ok {
		return "", false
	}

	previous = s.state()
	s.healthy = true
	s.probed = true
	s.lastChecked = time.Now()
	s.lastLatency = latency

	return previous, previous != StateHealthy
}

// MarkUnhealthy records a failed probe.
// Returns the previous state and whether the state changed.
func (r *Registry) MarkUnhealthy(b *Backend) (previous string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.statuses[b]
	if !ok {
		return "", false
	}

	previous = s.state()
	s.healthy = false
	s.probed = true
	s.lastChecked = time.Now()

	return previous, previous != StateUnhealthy
}

// IsHealthy reports whether the backend is currently routable.
func (r *Registry) IsHealthy(b *Backend) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.statuses[b]
	return ok && s.healthy
}

// SnapshotHealthy returns a copy of the currently healthy backends,
// preserving configured order. The snapshot may be empty and is unaffected
// by concurrent health updates.
func (r *Registry) SnapshotHealthy() []*Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	healthy := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		if r.statuses[b].healthy {
			healthy = append(healthy, b)
		}
	}

	return healthy
}

// Status returns the backend's current state name, the time of its last
// probe and the latency of its last successful probe.
func (r *Registry) Status(b *Backend) (state string, lastChecked time.Time, lastLatency time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.statuses[b]
	if !ok {
		return StateUnprobed, time.Time{}, 0
	}

	return s.state(), s.lastChecked, s.lastLatency
}
