package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/internal/config"
	"github.com/geoknoesis/ldgraph/internal/logger"
	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/geoknoesis/ldgraph/search"
	"github.com/geoknoesis/ldgraph/store"
)

// app holds the components a command works with.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	store    *store.Store
}

func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	v, err := config.InitViper(flags.configFile)
	if err != nil {
		return nil, err
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithDebug(flags.debug),
		logger.WithFormat(logger.FormatPretty),
		logger.WithComponent(cmd.Name()),
	)

	ds, err := openDataset(cfg, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	loader := jsonld.NewStaticLoader(jsonld.NewHTTPLoader(
		jsonld.WithFetchTimeout(cfg.Loader.Timeout),
		jsonld.WithLoaderLogger(log),
	))
	st, err := store.Open(ds, cfg.Storage.Graph,
		store.WithLoader(loader),
		store.WithPrefix(cfg.Prefix.Term, cfg.Prefix.IRI),
		store.WithLogger(log),
		store.WithRegisterer(registry),
	)
	if err != nil {
		ds.Close()
		return nil, err
	}
	log.Debug("store opened", "backend", cfg.Storage.Backend, "graph", cfg.Storage.Graph)

	return &app{cfg: cfg, logger: log, registry: registry, store: st}, nil
}

func openDataset(cfg *config.Config, log *slog.Logger) (graph.Dataset, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		ds, err := graph.OpenBadger(graph.BadgerOptions{Dir: cfg.Storage.Dir, Logger: log})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger dataset: %w", err)
		}
		return ds, nil
	default:
		return graph.NewMemoryDataset(), nil
	}
}

// openEngine builds a search engine over the store's graph, registers the
// configured index types and rebuilds the index.
func (a *app) openEngine(cmd *cobra.Command) (*search.Engine, error) {
	engine, err := search.New(a.store.Graph(),
		search.WithIndexPath(a.cfg.Search.IndexPath),
		search.WithLogger(a.logger),
		search.WithRegisterer(a.registry),
	)
	if err != nil {
		return nil, err
	}
	if a.cfg.Search.IndexConfig != "" {
		configs, err := search.LoadConfigFile(a.cfg.Search.IndexConfig)
		if err != nil {
			engine.Close()
			return nil, err
		}
		for _, c := range configs {
			engine.AddIndex(c)
		}
	}
	if err := engine.Rebuild(cmd.Context()); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return engine, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
