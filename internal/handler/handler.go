package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/edgerelay/edgerelay/internal/events"
	"github.com/edgerelay/edgerelay/internal/router"
)

// LoadBalancerHandler serves the proxy path: it asks the router for a
// backend, forwards the request, and relays the response. Handlers never
// write health state; a forwarding failure is a 502, not a health signal.
type LoadBalancerHandler struct {
	logger       *slog.Logger
	router       router.Strategy
	collector    *events.Collector
	limiter      *semaphore.Weighted
	proxyTimeout time.Duration
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func NewLoadBalancerHandler(
	logger *slog.Logger,
	strat router.Strategy,
	collector *events.Collector,
	maxConcurrent int,
	proxyTimeout time.Duration,
) *LoadBalancerHandler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &LoadBalancerHandler{
		logger:       logger,
		router:       strat,
		collector:    collector,
		limiter:      semaphore.NewWeighted(int64(maxConcurrent)),
		proxyTimeout: proxyTimeout,
	}
}

func (lb *LoadBalancerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Bounded concurrency: when all permits are held, the request queues
	// here until one frees up or the client gives up.
	if err := lb.limiter.Acquire(r.Context(), 1); err != nil {
		return
	}
	defer lb.limiter.Release(1)

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		lb.logger.Error("Recovered panic in request handler",
			slog.Any("panic", rec),
			slog.String("path", r.URL.Path))
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}()

	clientIP := extractClientIP(r)

	lb.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host),
		slog.String("user_agent", r.UserAgent()))

	nextServer := lb.router.Select()
	if nextServer == nil {
		lb.logger.Warn("No healthy backends available", slog.String("client", clientIP))
		lb.collector.Emit(events.Event{
			Type:       events.TypeNoneAvailable,
			Timestamp:  time.Now(),
			StatusCode: http.StatusServiceUnavailable,
		})
		http.Error(w, "No healthy server available", http.StatusServiceUnavailable)
		return
	}

	lb.collector.Emit(events.Event{
		Type:      events.TypeBackendSelected,
		Timestamp: time.Now(),
		Backend:   nextServer.URL().String(),
	})

	lb.logger.Info("Forwarding to backend",
		slog.String("client", clientIP),
		slog.String("backend", nextServer.URL().String()))

	ctx := r.Context()
	if lb.proxyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lb.proxyTimeout)
		defer cancel()
	}

	w.Header().Set("X-Backend-Server", nextServer.URL().String())

	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

	start := time.Now()
	nextServer.ReverseProxy().ServeHTTP(wrapped, r.WithContext(ctx))
	duration := time.Since(start)

	lb.collector.Emit(events.Event{
		Type:       events.TypeRequestCompleted,
		Timestamp:  time.Now(),
		Backend:    nextServer.URL().String(),
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
