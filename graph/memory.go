package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/geoknoesis/ldgraph/rdf"
)

// Memory is an in-memory Graph. It is safe for concurrent use; reads run in
// parallel and writes are exclusive.
type Memory struct {
	mu          sync.RWMutex
	triples     map[rdf.Triple]struct{}
	bySubject   map[rdf.Term]map[rdf.Triple]struct{}
	byPredicate map[rdf.IRI]map[rdf.Triple]struct{}
}

// NewMemory returns an empty in-memory graph.
func NewMemory() *Memory {
	return &Memory{
		triples:     make(map[rdf.Triple]struct{}),
		bySubject:   make(map[rdf.Term]map[rdf.Triple]struct{}),
		byPredicate: make(map[rdf.IRI]map[rdf.Triple]struct{}),
	}
}

// Len returns the number of triples.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.triples)
}

func (m *Memory) Add(ctx context.Context, triples ...rdf.Triple) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triples {
		if _, ok := m.triples[t]; ok {
			continue
		}
		m.triples[t] = struct{}{}
		index(m.bySubject, t.S, t)
		index(m.byPredicate, t.P, t)
	}
	return nil
}

func (m *Memory) Remove(ctx context.Context, p Pattern) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for t := range m.candidates(p) {
		if !p.Matches(t) {
			continue
		}
		delete(m.triples, t)
		unindex(m.bySubject, t.S, t)
		unindex(m.byPredicate, t.P, t)
	}
	return nil
}

func (m *Memory) Contains(ctx context.Context, p Pattern) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for t := range m.candidates(p) {
		if p.Matches(t) {
			return true, nil
		}
	}
	return false, nil
}

// Match returns the matching triples sorted by their N-Triples rendering.
func (m *Memory) Match(ctx context.Context, p Pattern) ([]rdf.Triple, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var out []rdf.Triple
	for t := range m.candidates(p) {
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	m.mu.RUnlock()
	sortTriples(out)
	return out, nil
}

func (m *Memory) Select(ctx context.Context, constraints []Constraint) ([]rdf.Term, error) {
	return SelectSubjects(ctx, m, constraints)
}

func (m *Memory) Closure(ctx context.Context, subject rdf.Term) ([]rdf.Triple, error) {
	return BoundedDescription(ctx, m, subject)
}

// candidates picks the smallest index that covers p. Callers hold mu.
func (m *Memory) candidates(p Pattern) map[rdf.Triple]struct{} {
	switch {
	case p.S != nil:
		return m.bySubject[p.S]
	case p.P.Value != "":
		return m.byPredicate[p.P]
	default:
		return m.triples
	}
}

func index[K comparable](idx map[K]map[rdf.Triple]struct{}, key K, t rdf.Triple) {
	set, ok := idx[key]
	if !ok {
		set = make(map[rdf.Triple]struct{})
		idx[key] = set
	}
	set[t] = struct{}{}
}

func unindex[K comparable](idx map[K]map[rdf.Triple]struct{}, key K, t rdf.Triple) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, t)
	if len(set) == 0 {
		delete(idx, key)
	}
}

// MemoryDataset is a Dataset of in-memory graphs.
type MemoryDataset struct {
	mu     sync.Mutex
	graphs map[string]*Memory
	closed bool
}

// NewMemoryDataset returns an empty in-memory dataset.
func NewMemoryDataset() *MemoryDataset {
	return &MemoryDataset{graphs: make(map[string]*Memory)}
}

// Graph returns the named graph, creating it on first use.
func (d *MemoryDataset) Graph(name string) (Graph, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("graph: %w: dataset closed", rdf.ErrConfiguration)
	}
	g, ok := d.graphs[name]
	if !ok {
		g = NewMemory()
		d.graphs[name] = g
	}
	return g, nil
}

// Close releases every graph.
func (d *MemoryDataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.graphs = nil
	return nil
}
