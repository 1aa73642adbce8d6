package events_test

import (
	"encoding/json"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgerelay/edgerelay/internal/events"
)

var _ = Describe("Metrics", func() {
	var metrics *events.Metrics

	BeforeEach(func() {
		metrics = events.NewMetrics()
	})

	It("should compute latency percentiles per backend", func() {
		for i := 1; i <= 100; i++ {
			metrics.RecordOutcome("b", time.Duration(i)*time.Millisecond, 200)
		}

		snap := metrics.Snapshot()
		bm := snap.Backends["b"]

		Expect(bm.P50Response).To(BeNumerically("~", 51*time.Millisecond, float64(2*time.Millisecond)))
		Expect(bm.P95Response).To(BeNumerically("~", 96*time.Millisecond, float64(2*time.Millisecond)))
		Expect(bm.P99Response).To(BeNumerically("~", 100*time.Millisecond, float64(2*time.Millisecond)))
		Expect(bm.AvgResponse).To(BeNumerically("~", 50*time.Millisecond, float64(2*time.Millisecond)))
	})

	It("should keep counting outcomes beyond the latency sample cap", func() {
		for i := 0; i < 1500; i++ {
			metrics.RecordOutcome("b", time.Millisecond, 200)
		}

		snap := metrics.Snapshot()
		Expect(snap.Backends["b"].StatusCodes[200]).To(Equal(int64(1500)))
	})

	It("should sum total requests across backends", func() {
		metrics.RecordSelection("a")
		metrics.RecordSelection("a")
		metrics.RecordSelection("b")

		snap := metrics.Snapshot()
		Expect(snap.TotalRequests).To(Equal(int64(3)))
		Expect(snap.Backends["a"].Selections).To(Equal(int64(2)))
	})

	It("should report uptime", func() {
		snap := metrics.Snapshot()
		Expect(snap.Uptime).To(BeNumerically(">=", 0))
	})

	It("should return a snapshot detached from later outcome recording", func() {
		metrics.RecordOutcome("b", time.Millisecond, 200)

		snap := metrics.Snapshot()
		metrics.RecordOutcome("b", time.Millisecond, 200)
		metrics.RecordOutcome("b", time.Millisecond, 502)

		Expect(snap.Backends["b"].StatusCodes).To(Equal(map[int]int64{200: 1}))
	})

	It("should allow snapshots to be encoded while outcomes are recorded", func() {
		var wg sync.WaitGroup
		stop := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					metrics.RecordOutcome("b", time.Millisecond, 200)
				}
			}
		}()

		for i := 0; i < 200; i++ {
			_, err := json.Marshal(metrics.Snapshot())
			Expect(err).NotTo(HaveOccurred())
		}

		close(stop)
		wg.Wait()
	})
})
