package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ResourceGetter reads stored resources.
type ResourceGetter interface {
	Get(ctx context.Context, uri string) (map[string]any, error)
}

// ResourceSearcher answers full-text queries with caller-facing resources.
type ResourceSearcher interface {
	Resources(ctx context.Context, query string) ([]map[string]any, error)
}

// Server is the HTTP API over a store and a search engine.
type Server struct {
	config   Config
	store    ResourceGetter
	searcher ResourceSearcher
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server. searcher may be nil, in which case
// /search answers 503.
func NewServer(config Config, store ResourceGetter, searcher ResourceSearcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		store:    store,
		searcher: searcher,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/search", s.handleSearch)
	app.Get("/resource", s.handleResource)
	if config.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
