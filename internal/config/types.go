// Package config loads ldgraph settings from ldgraph.toml, LDGRAPH_
// environment variables and command-line flags.
package config

import "time"

// Config is the ldgraph configuration. The TOML layout uses one section per
// component.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
	API     APIConfig     `mapstructure:"api"`
	Loader  LoaderConfig  `mapstructure:"loader"`
	Prefix  PrefixConfig  `mapstructure:"prefix"`
}

// StorageConfig selects the graph backend.
type StorageConfig struct {
	// Backend is "memory" or "badger".
	Backend string `mapstructure:"backend"`
	// Dir is the Badger data directory.
	Dir string `mapstructure:"dir"`
	// Graph is the name of the graph resources are written to.
	Graph string `mapstructure:"graph"`
}

// SearchConfig configures the full-text index.
type SearchConfig struct {
	// IndexPath is the SQLite index file. Empty keeps the index in memory.
	IndexPath string `mapstructure:"index_path"`
	// IndexConfig is a YAML file of indexed resource types.
	IndexConfig string `mapstructure:"index_config"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoaderConfig configures remote document loading.
type LoaderConfig struct {
	// Timeout bounds each remote context request. Caching follows the
	// responses' Cache-Control headers.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PrefixConfig is the local prefix term added to stored document contexts.
type PrefixConfig struct {
	Term string `mapstructure:"term"`
	IRI  string `mapstructure:"iri"`
}
