package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/edgerelay/edgerelay/internal/backend"
	"github.com/edgerelay/edgerelay/internal/events"
)

// Each probe carries its own bounded timeout so a hung backend cannot
// stall the check cycle indefinitely.
const probeTimeout = 5 * time.Second

// Monitor is the only writer of backend health state. It sweeps all
// configured backends once at startup and then on every tick of the
// configured period, probing each backend concurrently so one slow probe
// never delays the others.
type Monitor struct {
	registry  *backend.Registry
	period    time.Duration
	client    *http.Client
	logger    *slog.Logger
	collector *events.Collector
}

func NewMonitor(
	registry *backend.Registry,
	period time.Duration,
	logger *slog.Logger,
	collector *events.Collector,
) *Monitor {
	if period < time.Second {
		period = time.Second
	}

	return &Monitor{
		registry: registry,
		period:   period,
		client: &http.Client{
			Timeout: probeTimeout,
		},
		logger:    logger,
		collector: collector,
	}
}

// Run probes until ctx is cancelled. It never returns on probe errors;
// individual failures only flip health state.
func (m *Monitor) Run(ctx context.Context) {
	m.probeAll(ctx)

	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health monitor stopped")
			return

		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *Monitor) probeAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, b := range m.registry.Backends() {
		wg.Add(1)
		go func(b *backend.Backend) {
			defer wg.Done()
			m.probe(ctx, b)
		}(b)
	}

	wg.Wait()
}

// probe issues GET /health against one backend and writes the outcome to
// the registry immediately. Any 2xx response is healthy; any error,
// timeout or other status is unhealthy.
func (m *Monitor) probe(ctx context.Context, b *backend.Backend) {
	healthURL := b.URL().ResolveReference(&url.URL{Path: "/health"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		m.markUnhealthy(b)
		return
	}

	start := time.Now()

	res, err := m.client.Do(req)
	if err != nil {
		m.markUnhealthy(b)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		m.markHealthy(b, time.Since(start))
	} else {
		m.markUnhealthy(b)
	}
}

func (m *Monitor) markHealthy(b *backend.Backend, latency time.Duration) {
	previous, changed := m.registry.MarkHealthy(b, latency)
	if !changed {
		return
	}

	m.logger.Info("Server is back up",
		slog.String("server", b.URL().String()),
		slog.String("previous_state", previous))

	m.collector.Emit(events.Event{
		Type:      events.TypeHealthTransition,
		Timestamp: time.Now(),
		Backend:   b.URL().String(),
		OldState:  previous,
		NewState:  backend.StateHealthy,
	})
}

func (m *Monitor) markUnhealthy(b *backend.Backend) {
	previous, changed := m.registry.MarkUnhealthy(b)
	if !changed {
		return
	}

	m.logger.Warn("Server is down",
		slog.String("server", b.URL().String()),
		slog.String("previous_state", previous))

	m.collector.Emit(events.Event{
		Type:      events.TypeHealthTransition,
		Timestamp: time.Now(),
		Backend:   b.URL().String(),
		OldState:  previous,
		NewState:  backend.StateUnhealthy,
	})
}
