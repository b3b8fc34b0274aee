package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/geoknoesis/ldgraph/rdf"
)

// InitViper creates a *viper.Viper holding the defaults, the config file and
// LDGRAPH_ environment variables. With an empty configFile, ldgraph.toml is
// looked up in the working directory and may be absent.
//
// Precedence, highest first: flags bound with BindFlags, environment
// (LDGRAPH_STORAGE_BACKEND, LDGRAPH_API_LISTEN, ...), config file, defaults.
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ldgraph")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config: %w: reading config: %v", rdf.ErrConfiguration, err)
		}
	}

	v.SetEnvPrefix("LDGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// flagKeys maps persistent CLI flags to config keys.
var flagKeys = map[string]string{
	"backend": "storage.backend",
	"dir":     "storage.dir",
	"graph":   "storage.graph",
	"index":   "search.index_path",
	"listen":  "api.listen",
}

// BindFlags binds the known flags present in fs to their config keys.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind --%s: %w", name, err)
		}
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w: %v", rdf.ErrConfiguration, err)
	}
	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendBadger:
		if cfg.Storage.Dir == "" {
			return nil, fmt.Errorf("config: %w: badger backend needs storage.dir", rdf.ErrConfiguration)
		}
	default:
		return nil, fmt.Errorf("config: %w: unknown storage backend %q", rdf.ErrConfiguration, cfg.Storage.Backend)
	}
	if cfg.Storage.Graph == "" {
		return nil, fmt.Errorf("config: %w: storage.graph is empty", rdf.ErrConfiguration)
	}
	return &cfg, nil
}
