// Package store persists JSON-LD resources in a triple graph.
//
// A Put replaces every triple of every subject the document describes,
// including nested nodes, so a stored resource always reflects the latest
// document rather than a merge of versions. Query translates example-style
// criteria into graph constraints.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/geoknoesis/ldgraph/mapper"
	"github.com/geoknoesis/ldgraph/rdf"
)

// Store is a resource store over one graph.
type Store struct {
	g          graph.Graph
	ds         graph.Dataset
	proc       jsonld.Processor
	mapper     *mapper.Mapper
	prefixTerm string
	prefixIRI  string
	logger     *slog.Logger
	metrics    *metrics

	// mu serializes writers. Readers do not take it.
	mu sync.Mutex
}

// New returns a store writing to g.
func New(g graph.Graph, opts ...Option) (*Store, error) {
	if g == nil {
		return nil, fmt.Errorf("store: %w: nil graph", rdf.ErrConfiguration)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.processor == nil {
		loader := o.loader
		if loader == nil {
			loader = jsonld.NewStaticLoader(jsonld.NewHTTPLoader(jsonld.WithLoaderLogger(o.logger)))
		}
		o.processor = jsonld.NewProcessor(loader, jsonld.WithProcessorLogger(o.logger))
	}
	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("store: metrics: %w", err)
	}
	mapperOpts := []mapper.Option{mapper.WithLogger(o.logger)}
	if o.newID != nil {
		mapperOpts = append(mapperOpts, mapper.WithIDGenerator(o.newID))
	}
	return &Store{
		g:          g,
		proc:       o.processor,
		mapper:     mapper.New(o.processor, mapperOpts...),
		prefixTerm: o.prefixTerm,
		prefixIRI:  o.prefixIRI,
		logger:     o.logger,
		metrics:    m,
	}, nil
}

// Open returns a store writing to the named graph of ds. The store owns ds
// and closes it on Close.
func Open(ds graph.Dataset, name string, opts ...Option) (*Store, error) {
	if ds == nil {
		return nil, fmt.Errorf("store: %w: nil dataset", rdf.ErrConfiguration)
	}
	g, err := ds.Graph(name)
	if err != nil {
		return nil, fmt.Errorf("store: graph %q: %w", name, err)
	}
	s, err := New(g, opts...)
	if err != nil {
		return nil, err
	}
	s.ds = ds
	return s, nil
}

// Graph returns the graph the store writes to.
func (s *Store) Graph() graph.Graph { return s.g }

// Put stores doc, replacing all triples of every subject it describes.
// The caller's map is not modified.
func (s *Store) Put(ctx context.Context, doc map[string]any) (err error) {
	start := time.Now()
	defer func() { s.metrics.observe("put", start, err) }()

	expanded, err := s.proc.Expand(ctx, s.withContext(doc), jsonld.Options{})
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	scratch := graph.NewMemory()
	if _, err := s.mapper.InsertAll(ctx, scratch, expanded); err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	triples, err := scratch.Match(ctx, graph.Pattern{})
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	subjects, err := graph.Subjects(ctx, scratch, graph.Pattern{})
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, subject := range subjects {
		if err := s.clear(ctx, subject); err != nil {
			return fmt.Errorf("store: put: replace %s: %w", subject, err)
		}
	}
	if err := s.g.Add(ctx, triples...); err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	s.metrics.wrote(len(triples))
	s.logger.Debug("resource stored", "id", documentID(doc), "subjects", len(subjects), "triples", len(triples))
	return nil
}

// clear removes the triples of subject. For an IRI subject the blank nodes
// of its previous description go too: the new document relabels them, so
// they would otherwise linger unreachable.
func (s *Store) clear(ctx context.Context, subject rdf.Term) error {
	if _, ok := subject.(rdf.IRI); ok {
		prior, err := s.g.Closure(ctx, subject)
		if err != nil {
			return err
		}
		seen := make(map[rdf.Term]bool)
		for _, t := range prior {
			if _, blank := t.S.(rdf.BlankNode); !blank || seen[t.S] {
				continue
			}
			seen[t.S] = true
			if err := s.g.Remove(ctx, graph.Pattern{S: t.S}); err != nil {
				return err
			}
		}
	}
	return s.g.Remove(ctx, graph.Pattern{S: subject})
}

// withContext copies doc and sets its context to the document's own context
// (or the default one), the security context and the local prefix term.
func (s *Store) withContext(doc map[string]any) map[string]any {
	out := maps.Clone(doc)
	if out == nil {
		out = map[string]any{}
	}
	var contexts []any
	switch existing := doc["@context"].(type) {
	case nil:
		contexts = append(contexts, jsonld.DefaultContext())
	case []any:
		contexts = append(contexts, existing...)
	default:
		contexts = append(contexts, existing)
	}
	contexts = append(contexts, jsonld.SecurityV1URL, map[string]any{s.prefixTerm: s.prefixIRI})
	out["@context"] = contexts
	return out
}

func documentID(doc map[string]any) any {
	if id, ok := doc["@id"]; ok {
		return id
	}
	return doc["id"]
}

// Get returns the compacted document for uri, or nil when nothing is stored.
func (s *Store) Get(ctx context.Context, uri string) (doc map[string]any, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("get", start, err) }()
	doc, err = s.mapper.Extract(ctx, s.g, mapper.SubjectTerm(uri))
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", uri, err)
	}
	return doc, nil
}

// IsStored reports whether any triple has uri as subject.
func (s *Store) IsStored(ctx context.Context, uri string) (bool, error) {
	ok, err := s.g.Contains(ctx, graph.Pattern{S: mapper.SubjectTerm(uri)})
	if err != nil {
		return false, fmt.Errorf("store: is stored %s: %w", uri, err)
	}
	return ok, nil
}

// Remove deletes the triples whose subject is uri. Nested nodes it referred
// to are left in place.
func (s *Store) Remove(ctx context.Context, uri string) (err error) {
	start := time.Now()
	defer func() { s.metrics.observe("remove", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.g.Remove(ctx, graph.Pattern{S: mapper.SubjectTerm(uri)}); err != nil {
		return fmt.Errorf("store: remove %s: %w", uri, err)
	}
	s.logger.Debug("resource removed", "id", uri)
	return nil
}

// Query returns the stored resources matching every property of criteria.
// Criteria are expanded with the ActivityStreams context as default.
func (s *Store) Query(ctx context.Context, criteria map[string]any) (results []map[string]any, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("query", start, err) }()

	subject, constraints, err := s.translate(ctx, criteria)
	if err != nil {
		return nil, err
	}
	subjects, err := s.selectSubjects(ctx, subject, constraints)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	for _, match := range subjects {
		if _, blank := match.(rdf.BlankNode); blank {
			continue
		}
		doc, err := s.mapper.Extract(ctx, s.g, match)
		if err != nil {
			return nil, fmt.Errorf("store: query: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	s.logger.Debug("query evaluated", "constraints", len(constraints), "results", len(results))
	return results, nil
}

// QueryOne returns the first Query result, or nil.
func (s *Store) QueryOne(ctx context.Context, criteria map[string]any) (map[string]any, error) {
	results, err := s.Query(ctx, criteria)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// translate expands criteria into an optional subject and a constraint list.
func (s *Store) translate(ctx context.Context, criteria map[string]any) (rdf.Term, []graph.Constraint, error) {
	expanded, err := s.proc.Expand(ctx, criteria, jsonld.Options{ExpandContext: jsonld.DefaultContext()})
	if err != nil {
		return nil, nil, fmt.Errorf("store: query: %w", err)
	}
	if len(expanded) == 0 {
		return nil, nil, fmt.Errorf("store: query: %w: criteria expand to nothing", rdf.ErrMalformedCriteria)
	}
	node, ok := expanded[0].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("store: query: %w: unexpected %T", rdf.ErrMalformedCriteria, expanded[0])
	}

	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var subject rdf.Term
	var constraints []graph.Constraint
	for _, key := range keys {
		value := node[key]
		switch {
		case key == "@id":
			id, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("store: query: %w: @id %T", rdf.ErrMalformedCriteria, value)
			}
			subject = mapper.SubjectTerm(id)
		case key == "@type":
			types, _ := value.([]any)
			for _, t := range types {
				typeIRI, ok := t.(string)
				if !ok {
					return nil, nil, fmt.Errorf("store: query: %w: @type %T", rdf.ErrMalformedCriteria, t)
				}
				constraints = append(constraints, graph.Constraint{Predicate: rdf.RDFType, Object: rdf.IRI{Value: typeIRI}})
			}
		case strings.HasPrefix(key, "@"):
			return nil, nil, fmt.Errorf("store: query: %w: keyword %s", rdf.ErrMalformedCriteria, key)
		default:
			values, _ := value.([]any)
			for _, item := range values {
				object, err := criterionObject(item)
				if err != nil {
					return nil, nil, fmt.Errorf("store: query: %s: %w", key, err)
				}
				constraints = append(constraints, graph.Constraint{Predicate: rdf.IRI{Value: key}, Object: object})
			}
		}
	}
	return subject, constraints, nil
}

func criterionObject(item any) (rdf.Term, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: value %T", rdf.ErrMalformedCriteria, item)
	}
	if _, ok := obj["@value"]; ok {
		lit, err := mapper.Literal(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rdf.ErrMalformedCriteria, err)
		}
		return lit, nil
	}
	if id, ok := obj["@id"].(string); ok && len(obj) == 1 {
		return rdf.IRI{Value: id}, nil
	}
	return nil, fmt.Errorf("%w: only literal and IRI values are supported", rdf.ErrMalformedCriteria)
}

func (s *Store) selectSubjects(ctx context.Context, subject rdf.Term, constraints []graph.Constraint) ([]rdf.Term, error) {
	if subject == nil {
		return s.g.Select(ctx, constraints)
	}
	if len(constraints) == 0 {
		ok, err := s.g.Contains(ctx, graph.Pattern{S: subject})
		if err != nil || !ok {
			return nil, err
		}
		return []rdf.Term{subject}, nil
	}
	for _, c := range constraints {
		ok, err := s.g.Contains(ctx, graph.Pattern{S: subject, P: c.Predicate, O: c.Object})
		if err != nil || !ok {
			return nil, err
		}
	}
	return []rdf.Term{subject}, nil
}

// Close releases the dataset when the store owns one.
func (s *Store) Close() error {
	if s.ds == nil {
		return nil
	}
	if err := s.ds.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
