// Package search keeps a full-text index over selected resource types and
// projects matching resources from the live graph.
//
// The index holds (uri, type, text) rows only. Values returned by Search and
// Resources are always read from the graph at query time.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/mapper"
	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	index      Index
	indexPath  string
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// Option configures an Engine.
type Option func(*options)

// WithIndex sets the full-text index. It takes precedence over WithIndexPath.
func WithIndex(idx Index) Option {
	return func(o *options) { o.index = idx }
}

// WithIndexPath stores the SQLite index in a file instead of memory.
func WithIndexPath(path string) Option {
	return func(o *options) { o.indexPath = path }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers search metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Engine indexes typed subjects of a graph and answers text queries.
type Engine struct {
	g       graph.Graph
	index   Index
	logger  *slog.Logger
	metrics *metrics

	cfgMu   sync.RWMutex
	configs map[string]IndexedResource

	// writeMu serializes index writers.
	writeMu sync.Mutex
}

// New returns an engine over g.
func New(g graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("search: %w: nil graph", rdf.ErrConfiguration)
	}
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("search: metrics: %w", err)
	}
	idx := o.index
	if idx == nil {
		if idx, err = NewSQLiteIndex(o.indexPath); err != nil {
			return nil, err
		}
	}
	return &Engine{
		g:       g,
		index:   idx,
		logger:  o.logger,
		metrics: m,
		configs: make(map[string]IndexedResource),
	}, nil
}

// AddIndex registers cfg, replacing any configuration for the same type.
// Existing index rows are not touched.
func (e *Engine) AddIndex(cfg IndexedResource) {
	e.cfgMu.Lock()
	e.configs[cfg.Type] = cfg
	e.cfgMu.Unlock()
	e.logger.Debug("index registered", "type", cfg.Type, "indexed", len(cfg.Indexed), "projected", len(cfg.Projected))
}

func (e *Engine) config(typ string) (IndexedResource, bool) {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	cfg, ok := e.configs[typ]
	return cfg, ok
}

// UpdateIndex appends one row per candidate subject with a registered type.
// Without arguments every subject with an rdf:type triple is a candidate.
func (e *Engine) UpdateIndex(ctx context.Context, subjects ...rdf.Term) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.updateIndex(ctx, subjects)
}

func (e *Engine) updateIndex(ctx context.Context, subjects []rdf.Term) error {
	if len(subjects) == 0 {
		var err error
		subjects, err = graph.Subjects(ctx, e.g, graph.Pattern{P: rdf.RDFType})
		if err != nil {
			return fmt.Errorf("search: typed subjects: %w", err)
		}
	}
	var appended int
	for _, s := range subjects {
		typ, cfg, ok, err := e.resolveType(ctx, s)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		text, err := e.text(ctx, s, cfg)
		if err != nil {
			return err
		}
		if err := e.index.Append(ctx, Row{URI: s.String(), Type: typ, Text: text}); err != nil {
			return err
		}
		e.metrics.appended()
		appended++
	}
	e.logger.Debug("index updated", "candidates", len(subjects), "rows", appended)
	return nil
}

// Rebuild drops every index row and re-indexes all typed subjects.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.index.Clear(ctx); err != nil {
		return err
	}
	return e.updateIndex(ctx, nil)
}

// resolveType returns the first type of s, in lexical order, with a
// registered configuration.
func (e *Engine) resolveType(ctx context.Context, s rdf.Term) (string, IndexedResource, bool, error) {
	triples, err := e.g.Match(ctx, graph.Pattern{S: s, P: rdf.RDFType})
	if err != nil {
		return "", IndexedResource{}, false, fmt.Errorf("search: types of %s: %w", s, err)
	}
	types := make([]string, 0, len(triples))
	for _, t := range triples {
		if iri, ok := t.O.(rdf.IRI); ok {
			types = append(types, iri.Value)
		}
	}
	sort.Strings(types)
	for _, typ := range types {
		if cfg, ok := e.config(typ); ok {
			return typ, cfg, true, nil
		}
	}
	return "", IndexedResource{}, false, nil
}

func (e *Engine) text(ctx context.Context, s rdf.Term, cfg IndexedResource) (string, error) {
	var parts []string
	for _, pred := range cfg.Indexed {
		values, err := e.values(ctx, s, pred)
		if err != nil {
			return "", err
		}
		if len(values) > 0 {
			parts = append(parts, strings.Join(values, ","))
		}
	}
	return strings.Join(parts, " "), nil
}

func (e *Engine) values(ctx context.Context, s rdf.Term, pred string) ([]string, error) {
	p := rdf.IRI{Value: pred}
	triples, err := e.g.Match(ctx, graph.Pattern{S: s, P: p})
	if err != nil {
		return nil, fmt.Errorf("search: values of %s %s: %w", s, pred, err)
	}
	values := make([]string, len(triples))
	for i, t := range triples {
		values[i] = rdf.LexicalForm(t.O)
	}
	return values, nil
}

// Search matches query against the index and projects each hit with a
// registered type as {"id", "type", <local name>: value}. A predicate with
// one object gives a string, more give a []string, none omit the field.
func (e *Engine) Search(ctx context.Context, query string) ([]map[string]any, error) {
	e.metrics.queried("search")
	rows, err := e.index.Match(ctx, query)
	if err != nil {
		return nil, err
	}
	results := []map[string]any{}
	seen := make(map[Row]bool)
	for _, row := range rows {
		key := Row{URI: row.URI, Type: row.Type}
		if seen[key] {
			continue
		}
		seen[key] = true
		cfg, ok := e.config(row.Type)
		if !ok {
			continue
		}
		result := map[string]any{"id": row.URI, "type": row.Type}
		for _, pred := range cfg.Projected {
			values, err := e.values(ctx, mapper.SubjectTerm(row.URI), pred)
			if err != nil {
				return nil, err
			}
			switch len(values) {
			case 0:
			case 1:
				result[localName(pred)] = values[0]
			default:
				result[localName(pred)] = values
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Resources matches query and returns caller-facing resources: the
// configured "@context" when set, "id", and each projected predicate's
// values joined with commas. The type is resolved from the graph.
func (e *Engine) Resources(ctx context.Context, query string) ([]map[string]any, error) {
	e.metrics.queried("resources")
	rows, err := e.index.Match(ctx, query)
	if err != nil {
		return nil, err
	}
	results := []map[string]any{}
	seen := make(map[string]bool)
	for _, row := range rows {
		if seen[row.URI] {
			continue
		}
		seen[row.URI] = true
		s := mapper.SubjectTerm(row.URI)
		_, cfg, ok, err := e.resolveType(ctx, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result := map[string]any{"id": row.URI}
		if cfg.Context != nil {
			result["@context"] = cfg.Context
		}
		for _, pred := range cfg.Projected {
			values, err := e.values(ctx, s, pred)
			if err != nil {
				return nil, err
			}
			if len(values) > 0 {
				result[localName(pred)] = strings.Join(values, ",")
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Close closes the index.
func (e *Engine) Close() error {
	return e.index.Close()
}

func localName(pred string) string {
	if frag := (rdf.IRI{Value: pred}).Fragment(); frag != "" {
		return frag
	}
	return pred
}
