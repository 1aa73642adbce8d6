package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgerelay/edgerelay/internal/backend"
	"github.com/edgerelay/edgerelay/internal/handler"
	"github.com/edgerelay/edgerelay/internal/router"
)

func TestHandler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Handler Suite")
}

type panicStrategy struct{}

func (panicStrategy) Select() *backend.Backend {
	panic("selection blew up")
}

var _ = Describe("LoadBalancerHandler", func() {
	var (
		h           *handler.LoadBalancerHandler
		registry    *backend.Registry
		backends    []*backend.Backend
		mockBackend *httptest.Server
		log         *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))

		mockBackend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("backend1"))
		}))

		backends = []*backend.Backend{
			backend.New(mustParseURL(mockBackend.URL)),
		}
		registry = backend.NewRegistry(backends)
		registry.MarkHealthy(backends[0], time.Millisecond)

		strat := router.NewRoundRobin(registry)
		h = handler.NewLoadBalancerHandler(log, strat, nil, 2, 2*time.Second)
	})

	AfterEach(func() {
		mockBackend.Close()
	})

	Describe("ServeHTTP", func() {
		It("should proxy the request to the backend and relay the response", func() {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			body, err := io.ReadAll(w.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("backend1"))
		})

		It("should identify the chosen backend in a response header", func() {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			Expect(w.Header().Get("X-Backend-Server")).To(Equal(mockBackend.URL))
		})

		Context("with no healthy backends", func() {
			BeforeEach(func() {
				registry.MarkUnhealthy(backends[0])
			})

			It("should return 503 Service Unavailable", func() {
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			})
		})

		Context("when the chosen backend is unreachable", func() {
			BeforeEach(func() {
				// Close the backend but leave it marked healthy, as happens
				// when it dies between two probe cycles.
				mockBackend.Close()
			})

			It("should return 502 Bad Gateway", func() {
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				Expect(w.Code).To(Equal(http.StatusBadGateway))
			})

			It("should not flip the backend's health flag", func() {
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				Expect(registry.IsHealthy(backends[0])).To(BeTrue())
			})
		})

		Context("when request handling panics", func() {
			BeforeEach(func() {
				h = handler.NewLoadBalancerHandler(log, panicStrategy{}, nil, 2, 2*time.Second)
			})

			It("should convert the panic to a 502 instead of crashing", func() {
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				w := httptest.NewRecorder()

				Expect(func() { h.ServeHTTP(w, req) }).NotTo(Panic())
				Expect(w.Code).To(Equal(http.StatusBadGateway))
			})
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
