// Package api serves the resource store and search engine over HTTP.
package api

import "github.com/prometheus/client_golang/prometheus"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
}
