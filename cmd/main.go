package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgerelay/edgerelay/config"
	"github.com/edgerelay/edgerelay/internal/backend"
	"github.com/edgerelay/edgerelay/internal/events"
	"github.com/edgerelay/edgerelay/internal/handler"
	"github.com/edgerelay/edgerelay/internal/healthcheck"
	"github.com/edgerelay/edgerelay/internal/httpserver"
	"github.com/edgerelay/edgerelay/internal/router"
	"github.com/edgerelay/edgerelay/pkg/logger"
)

const eventBufferSize = 1000

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		log.Error("Failed to initialize backends", slog.Any("err", err))
		os.Exit(1)
	}

	proxyTimeout, err := cfg.ProxyTimeout()
	if err != nil {
		log.Error("Invalid proxy timeout", slog.Any("err", err))
		os.Exit(1)
	}

	collector := events.NewCollector(eventBufferSize, log)
	collector.Start(ctx)

	monitor := healthcheck.NewMonitor(registry, cfg.HealthCheckPeriod(), log, collector)
	go monitor.Run(ctx)

	strat := router.NewRoundRobin(registry)

	loadBalancerHandler := handler.NewLoadBalancerHandler(
		log, strat, collector, cfg.Server.MaxConcurrent, proxyTimeout)

	mux := setupRouter(loadBalancerHandler, collector)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Load balancer listening",
		slog.String("address", cfg.Server.Address),
		slog.Int("backends", registry.Len()))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting load balancer", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func buildRegistry(cfg *config.Config, log *slog.Logger) (*backend.Registry, error) {
	var backends []*backend.Backend

	for _, bc := range cfg.Backends {
		u, err := url.Parse(bc.URL)
		if err != nil {
			log.Error("Failed to parse URL",
				slog.String("url", bc.URL),
				slog.String("error", err.Error()))
			continue
		}

		backends = append(backends, backend.New(u))
	}

	if len(backends) == 0 {
		return nil, errors.New("no usable backend URLs configured")
	}

	return backend.NewRegistry(backends), nil
}
