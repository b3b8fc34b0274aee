// Package mapper converts between expanded JSON-LD node trees and triples.
package mapper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/google/uuid"
)

// Mapper inserts expanded nodes into a graph and extracts compacted
// documents back out of it.
type Mapper struct {
	proc   jsonld.Processor
	newID  func() string
	logger *slog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithIDGenerator replaces the blank node identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Mapper) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New returns a Mapper that compacts extracted documents with proc.
func New(proc jsonld.Processor, opts ...Option) *Mapper {
	m := &Mapper{
		proc:   proc,
		newID:  newBlankID,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newBlankID() string {
	return "b" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SubjectTerm maps a document identifier to a term: "_:" identifiers are
// blank nodes, everything else is an IRI.
func SubjectTerm(id string) rdf.Term {
	if label, ok := strings.CutPrefix(id, "_:"); ok {
		return rdf.BlankNode{ID: label}
	}
	return rdf.IRI{Value: id}
}

// scope relabels blank nodes for one insert call so identifiers never leak
// between calls.
type scope struct {
	labels map[string]rdf.BlankNode
	newID  func() string
}

func (m *Mapper) newScope() *scope {
	return &scope{labels: make(map[string]rdf.BlankNode), newID: m.newID}
}

func (s *scope) fresh() rdf.BlankNode {
	return rdf.BlankNode{ID: s.newID()}
}

func (s *scope) term(id string) rdf.Term {
	label, ok := strings.CutPrefix(id, "_:")
	if !ok {
		return rdf.IRI{Value: id}
	}
	b, seen := s.labels[label]
	if !seen {
		b = s.fresh()
		s.labels[label] = b
	}
	return b
}

// Insert adds the triples of one expanded node, and of every node nested in
// it, to g and returns the node's subject. Triples are added as they are
// produced, so a failure leaves the ones before it in g.
func (m *Mapper) Insert(ctx context.Context, g graph.Graph, node map[string]any) (rdf.Term, error) {
	return m.insert(ctx, g, m.newScope(), node)
}

// InsertAll inserts the nodes of one expanded document. All nodes share one
// blank node scope, so a label used by two of them names the same node.
func (m *Mapper) InsertAll(ctx context.Context, g graph.Graph, nodes []any) ([]rdf.Term, error) {
	sc := m.newScope()
	subjects := make([]rdf.Term, 0, len(nodes))
	for _, item := range nodes {
		node, ok := item.(map[string]any)
		if !ok {
			return subjects, fmt.Errorf("mapper: expected node object, got %T", item)
		}
		subject, err := m.insert(ctx, g, sc, node)
		if err != nil {
			return subjects, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

func (m *Mapper) insert(ctx context.Context, g graph.Graph, sc *scope, node map[string]any) (rdf.Term, error) {
	var subject rdf.Term
	if id, ok := node["@id"].(string); ok {
		subject = sc.term(id)
	} else {
		subject = sc.fresh()
	}

	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	count := 0
	for _, key := range keys {
		value := node[key]
		switch key {
		case "@id", "@index":
			continue
		case "@type":
			for _, t := range asArray(value) {
				typeIRI, ok := t.(string)
				if !ok {
					return nil, fmt.Errorf("mapper: @type value %T is not a string", t)
				}
				if err := g.Add(ctx, rdf.Triple{S: subject, P: rdf.RDFType, O: rdf.IRI{Value: typeIRI}}); err != nil {
					return nil, fmt.Errorf("mapper: %w", err)
				}
				count++
			}
			continue
		}
		if strings.HasPrefix(key, "@") {
			return nil, &rdf.ConstructError{Construct: key, Fragment: value}
		}

		predicate := rdf.IRI{Value: key}
		for _, item := range asArray(value) {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("mapper: %s: expected value object, got %T", key, item)
			}
			object, skip, err := m.object(ctx, g, sc, obj)
			if err != nil {
				return nil, err
			}
			if skip {
				continue
			}
			if err := g.Add(ctx, rdf.Triple{S: subject, P: predicate, O: object}); err != nil {
				return nil, fmt.Errorf("mapper: %w", err)
			}
			count++
		}
	}
	m.logger.Debug("node inserted", "subject", subject.String(), "triples", count)
	return subject, nil
}

// object converts one value object. skip is true for empty lists.
func (m *Mapper) object(ctx context.Context, g graph.Graph, sc *scope, obj map[string]any) (rdf.Term, bool, error) {
	if list, ok := obj["@list"]; ok {
		if len(asArray(list)) > 0 {
			return nil, false, &rdf.ConstructError{Construct: "@list", Fragment: obj}
		}
		return nil, true, nil
	}
	if _, ok := obj["@value"]; ok {
		lit, err := Literal(obj)
		return lit, false, err
	}
	if id, ok := obj["@id"].(string); ok && len(obj) == 1 {
		return sc.term(id), false, nil
	}
	subject, err := m.insert(ctx, g, sc, obj)
	return subject, false, err
}

// Literal converts a JSON-LD value object ({"@value": ...} with optional
// "@type" or "@language") to a literal.
func Literal(obj map[string]any) (rdf.Literal, error) {
	value := obj["@value"]
	datatype, _ := obj["@type"].(string)
	lang, _ := obj["@language"].(string)

	switch {
	case datatype == "@json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(value); err != nil {
			return rdf.Literal{}, fmt.Errorf("mapper: JSON literal: %w", err)
		}
		return rdf.Literal{Lexical: strings.TrimSuffix(buf.String(), "\n"), Datatype: rdf.RDFJSON}, nil
	case lang != "":
		lexical, ok := value.(string)
		if !ok {
			return rdf.Literal{}, fmt.Errorf("mapper: language-tagged value %T is not a string", value)
		}
		return rdf.Literal{Lexical: lexical, Lang: lang}, nil
	case datatype != "":
		lit, err := rdf.NewTypedLiteral(value, datatype)
		if err != nil {
			return rdf.Literal{}, fmt.Errorf("mapper: %w", err)
		}
		return lit, nil
	default:
		lit, err := rdf.NewLiteral(value)
		if err != nil {
			return rdf.Literal{}, fmt.Errorf("mapper: %w", err)
		}
		return lit, nil
	}
}

func asArray(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

// Extract rebuilds the document describing subject from its bounded
// description in g. It returns nil when g holds nothing about subject.
func (m *Mapper) Extract(ctx context.Context, g graph.Graph, subject rdf.Term) (map[string]any, error) {
	triples, err := g.Closure(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("mapper: closure: %w", err)
	}
	if len(triples) == 0 {
		return nil, nil
	}

	bySubject := make(map[rdf.Term][]rdf.Triple)
	for _, t := range triples {
		bySubject[t.S] = append(bySubject[t.S], t)
	}
	others := make([]rdf.Term, 0, len(bySubject))
	for s := range bySubject {
		if s != subject {
			others = append(others, s)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		return rdf.FormatTerm(others[i]) < rdf.FormatTerm(others[j])
	})

	nodes := make([]any, 0, len(bySubject))
	if own, ok := bySubject[subject]; ok {
		nodes = append(nodes, flatNode(subject, own))
	}
	for _, s := range others {
		nodes = append(nodes, flatNode(s, bySubject[s]))
	}

	compacted, err := m.proc.Compact(ctx, map[string]any{"@graph": nodes}, jsonld.CompactionContext(), jsonld.Options{})
	if err != nil {
		return nil, fmt.Errorf("mapper: compact %s: %w", subject, err)
	}
	compacted["@context"] = jsonld.CompactionContext()
	return compacted, nil
}

// flatNode renders the triples of one subject as a node object with full
// IRIs as keys. Multi-valued predicates become arrays.
func flatNode(subject rdf.Term, triples []rdf.Triple) map[string]any {
	node := map[string]any{"@id": nodeID(subject)}
	var types []any
	values := make(map[string][]any)
	var order []string
	for _, t := range triples {
		if t.P == rdf.RDFType {
			types = append(types, rdf.LexicalForm(t.O))
			continue
		}
		if _, ok := values[t.P.Value]; !ok {
			order = append(order, t.P.Value)
		}
		values[t.P.Value] = append(values[t.P.Value], toJSON(t.O))
	}
	if len(types) == 1 {
		node["@type"] = types[0]
	} else if len(types) > 1 {
		node["@type"] = types
	}
	for _, p := range order {
		if vs := values[p]; len(vs) == 1 {
			node[p] = vs[0]
		} else {
			node[p] = vs
		}
	}
	return node
}

func nodeID(t rdf.Term) string {
	if b, ok := t.(rdf.BlankNode); ok {
		return b.String()
	}
	return rdf.LexicalForm(t)
}

// toJSON converts an object term to its JSON-LD value.
func toJSON(t rdf.Term) any {
	switch v := t.(type) {
	case rdf.BlankNode:
		return v.String()
	case rdf.Literal:
		return literalJSON(v)
	case rdf.IRI:
		return map[string]any{"@id": v.Value}
	default:
		return nil
	}
}

func literalJSON(lit rdf.Literal) any {
	switch {
	case lit.Datatype == rdf.RDFJSON:
		var parsed any
		if err := json.Unmarshal([]byte(lit.Lexical), &parsed); err == nil {
			return map[string]any{"@value": parsed, "@type": "@json"}
		}
		return map[string]any{"@value": lit.Lexical, "@type": lit.Datatype.Value}
	case lit.Lang != "":
		return map[string]any{"@value": lit.Lexical, "@language": lit.Lang}
	case lit.IsNative():
		return lit.Native()
	default:
		return map[string]any{"@value": lit.Lexical, "@type": lit.Datatype.Value}
	}
}
