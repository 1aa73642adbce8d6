package main

import (
	"net/http"

	"github.com/edgerelay/edgerelay/internal/events"
	"github.com/edgerelay/edgerelay/internal/handler"
)

func setupRouter(loadBalancerHandler *handler.LoadBalancerHandler, collector *events.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", loadBalancerHandler.ServeHTTP)
	mux.HandleFunc("/metrics", collector.Handler())

	return mux
}
