// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including the listen address, backend URLs, health check period, proxy
// timeout, and the bounded concurrency limit for request handling.
package config
