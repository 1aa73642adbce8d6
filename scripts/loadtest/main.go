// Loadtest is a concurrent HTTP load testing tool that measures throughput,
// latency percentiles, status code distribution and per-backend routing
// distribution against the load balancer.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://127.0.0.1:9090/ -concurrency 50 -requests 5000
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

type result struct {
	status  int
	backend string
	latency time.Duration
	err     error
}

func main() {
	var (
		target      = flag.String("url", "http://127.0.0.1:9090/", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	jobs := make(chan int)
	results := make([]result, *requests)

	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = doRequest(client, *target)
			}
		}()
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	report(results, elapsed)
}

func doRequest(client *http.Client, target string) result {
	begin := time.Now()

	res, err := client.Get(target)
	if err != nil {
		return result{err: err, latency: time.Since(begin)}
	}
	defer res.Body.Close()

	return result{
		status:  res.StatusCode,
		backend: res.Header.Get("X-Backend-Server"),
		latency: time.Since(begin),
	}
}

func report(results []result, elapsed time.Duration) {
	statusCounts := make(map[int]int)
	backendCounts := make(map[string]int)
	latencies := make([]time.Duration, 0, len(results))
	errs := 0

	for _, r := range results {
		if r.err != nil {
			errs++
			continue
		}
		statusCounts[r.status]++
		if r.backend != "" {
			backendCounts[r.backend]++
		}
		latencies = append(latencies, r.latency)
	}

	fmt.Printf("requests:    %d\n", len(results))
	fmt.Printf("elapsed:     %v\n", elapsed)
	fmt.Printf("throughput:  %.1f req/s\n", float64(len(results))/elapsed.Seconds())
	fmt.Printf("client errs: %d\n", errs)

	fmt.Println("status codes:")
	for _, code := range sortedIntKeys(statusCounts) {
		fmt.Printf("  %d: %d\n", code, statusCounts[code])
	}

	fmt.Println("backend distribution:")
	for _, b := range sortedStringKeys(backendCounts) {
		fmt.Printf("  %s: %d\n", b, backendCounts[b])
	}

	if len(latencies) == 0 {
		os.Exit(1)
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	fmt.Println("latency:")
	fmt.Printf("  p50: %v\n", percentile(latencies, 0.50))
	fmt.Printf("  p90: %v\n", percentile(latencies, 0.90))
	fmt.Printf("  p95: %v\n", percentile(latencies, 0.95))
	fmt.Printf("  p99: %v\n", percentile(latencies, 0.99))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
