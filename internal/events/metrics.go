package events

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	selections    map[string]int64
	noneAvailable int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStates  map[string]string
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                     `json:"total_requests"`
	NoneAvailable int64                     `json:"none_available"`
	Uptime        time.Duration             `json:"uptime"`
	Backends      map[string]BackendMetrics `json:"backends"`
}

type BackendMetrics struct {
	Selections  int64         `json:"selections"`
	State       string        `json:"state"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		selections:    make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStates:  make(map[string]string),
		startTime:     time.Now(),
	}
}

func (m *Metrics) RecordSelection(backend string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[backend]++
}

func (m *Metrics) RecordNoneAvailable() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.noneAvailable++
}

func (m *Metrics) RecordOutcome(backend string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[backend] = append(m.responseTimes[backend], duration)

	if len(m.responseTimes[backend]) > 1000 {
		m.responseTimes[backend] = m.responseTimes[backend][1:]
	}

	if m.statusCodes[backend] == nil {
		m.statusCodes[backend] = make(map[int]int64)
	}
	m.statusCodes[backend][statusCode]++
}

func (m *Metrics) UpdateHealthState(backend string, state string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStates[backend] = state
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		NoneAvailable: m.noneAvailable,
		Uptime:        time.Since(m.startTime),
		Backends:      make(map[string]BackendMetrics),
	}

	// Collect all backend URLs seen on any path
	allBackends := make(map[string]bool)
	for backend := range m.selections {
		allBackends[backend] = true
	}
	for backend := range m.responseTimes {
		allBackends[backend] = true
	}
	for backend := range m.healthStates {
		allBackends[backend] = true
	}

	for backend := range allBackends {
		snap.TotalRequests += m.selections[backend]

		bm := BackendMetrics{
			Selections:  m.selections[backend],
			State:       m.healthStates[backend],
			StatusCodes: copyStatusCodes(m.statusCodes[backend]),
		}

		durations := m.responseTimes[backend]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			bm.AvgResponse = average(sorted)
			bm.P50Response = percentile(sorted, 0.50)
			bm.P95Response = percentile(sorted, 0.95)
			bm.P99Response = percentile(sorted, 0.99)
		}

		snap.Backends[backend] = bm
	}

	return snap
}

// copyStatusCodes detaches the snapshot from the live counters so readers
// never touch a map that RecordOutcome is still writing to.
func copyStatusCodes(codes map[int]int64) map[int]int64 {
	if codes == nil {
		return nil
	}

	out := make(map[int]int64, len(codes))
	for code, count := range codes {
		out[code] = count
	}

	return out
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
