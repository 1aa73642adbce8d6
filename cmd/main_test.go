package main

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/edgerelay/edgerelay/config"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("buildRegistry", func() {
	var (
		log *slog.Logger
		cfg *config.Config
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
		cfg = &config.Config{
			Backends: []config.BackendConfig{
				{URL: "http://127.0.0.1:8080"},
				{URL: "http://127.0.0.1:8081"},
			},
		}
	})

	It("should build a registry with all configured backends in order", func() {
		registry, err := buildRegistry(cfg, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(registry.Len()).To(Equal(2))

		backends := registry.Backends()
		Expect(backends[0].URL().String()).To(Equal("http://127.0.0.1:8080"))
		Expect(backends[1].URL().String()).To(Equal("http://127.0.0.1:8081"))
	})

	It("should skip unparseable URLs but keep the rest", func() {
		cfg.Backends = append([]config.BackendConfig{{URL: "://bad"}}, cfg.Backends...)

		registry, err := buildRegistry(cfg, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(registry.Len()).To(Equal(2))
	})

	It("should fail with a descriptive error when no backend URL is usable", func() {
		cfg.Backends = []config.BackendConfig{{URL: "://bad"}}

		_, err := buildRegistry(cfg, log)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no usable backend URLs"))
	})
})

var _ = Describe("setupRouter", func() {
	It("should route to the proxy handler and metrics endpoint", func() {
		mux := setupRouter(nil, nil)
		Expect(mux).NotTo(BeNil())
	})
})
