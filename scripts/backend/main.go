// Backend is a simple demo HTTP server used for load balancer testing.
// It answers ordinary GETs on / with an identifying body, reports health
// on /health, and exposes /toggle-health to flip its health response so
// balancer failover can be exercised by hand.
//
// Usage:
//
//	go run ./scripts/backend -port 8081
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	flag.Parse()

	var unhealthy atomic.Bool

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "Reply from backend server on port %d\n", *port)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if unhealthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "unhealthy")
			return
		}
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/toggle-health", func(w http.ResponseWriter, r *http.Request) {
		now := !unhealthy.Load()
		unhealthy.Store(now)
		log.Printf("health toggled, unhealthy=%v", now)
		fmt.Fprintf(w, "unhealthy=%v\n", now)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("backend server running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
