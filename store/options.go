package store

import (
	"log/slog"

	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/prometheus/client_golang/prometheus"
)

// Default local prefix term appended to every stored document's context.
const (
	DefaultPrefixTerm = "ldg"
	DefaultPrefixIRI  = "https://geoknoesis.com/ns/ldgraph#"
)

type options struct {
	processor  jsonld.Processor
	loader     jsonld.DocumentLoader
	newID      func() string
	prefixTerm string
	prefixIRI  string
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// Option configures a Store.
type Option func(*options)

// WithProcessor sets the JSON-LD processor. It takes precedence over WithLoader.
func WithProcessor(p jsonld.Processor) Option {
	return func(o *options) { o.processor = p }
}

// WithLoader sets the document loader used by the default processor.
func WithLoader(l jsonld.DocumentLoader) Option {
	return func(o *options) { o.loader = l }
}

// WithIDGenerator replaces the blank node identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithPrefix sets the local prefix term appended to document contexts.
func WithPrefix(term, iri string) Option {
	return func(o *options) {
		if term != "" && iri != "" {
			o.prefixTerm = term
			o.prefixIRI = iri
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers store metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func defaultOptions() options {
	return options{
		prefixTerm: DefaultPrefixTerm,
		prefixIRI:  DefaultPrefixIRI,
		logger:     slog.New(slog.DiscardHandler),
	}
}
