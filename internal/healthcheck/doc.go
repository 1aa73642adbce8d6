// Package healthcheck implements the periodic health monitor for backend
// servers. It is the sole writer of health state in the registry; request
// handlers never flip health on their own failures.
package healthcheck
