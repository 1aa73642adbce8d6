package events

import (
	"context"
	"log/slog"
	"time"
)

type Type string

const (
	// TypeHealthTransition records a backend health flip, with old and new state.
	TypeHealthTransition Type = "health_transition"
	// TypeBackendSelected records a routing decision for one request.
	TypeBackendSelected Type = "backend_selected"
	// TypeNoneAvailable records a request that found no healthy backend.
	TypeNoneAvailable Type = "none_available"
	// TypeRequestCompleted records the outcome of one proxied request.
	TypeRequestCompleted Type = "request_completed"
)

type Event struct {
	Type       Type
	Timestamp  time.Time
	Backend    string
	OldState   string
	NewState   string
	Duration   time.Duration
	StatusCode int
}

// Collector consumes the event stream on a dedicated goroutine and keeps
// in-memory aggregates. Emission never blocks the request or probe path.
type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit enqueues an event, dropping it if the buffer is full. Safe to call
// on a nil collector.
func (c *Collector) Emit(event Event) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Event collector started")
	defer c.logger.Info("Event collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case TypeBackendSelected:
		c.metrics.RecordSelection(event.Backend)

	case TypeNoneAvailable:
		c.metrics.RecordNoneAvailable()

	case TypeRequestCompleted:
		c.metrics.RecordOutcome(event.Backend, event.Duration, event.StatusCode)

	case TypeHealthTransition:
		c.metrics.UpdateHealthState(event.Backend, event.NewState)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
