package config

import (
	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/geoknoesis/ldgraph/store"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
			Dir:     "ldgraph-data",
			Graph:   "default",
		},
		API: APIConfig{
			Listen: ":8080",
		},
		Loader: LoaderConfig{
			Timeout: jsonld.DefaultFetchTimeout,
		},
		Prefix: PrefixConfig{
			Term: store.DefaultPrefixTerm,
			IRI:  store.DefaultPrefixIRI,
		},
	}
}

// setViperDefaults registers NewDefaultConfig values under their dotted keys.
func setViperDefaults(v viperSetter) {
	d := NewDefaultConfig()

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.graph", d.Storage.Graph)

	v.SetDefault("search.index_path", d.Search.IndexPath)
	v.SetDefault("search.index_config", d.Search.IndexConfig)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("loader.timeout", d.Loader.Timeout)

	v.SetDefault("prefix.term", d.Prefix.Term)
	v.SetDefault("prefix.iri", d.Prefix.IRI)
}

type viperSetter interface {
	SetDefault(key string, value any)
}
