// Package graph defines the triple store the resource layer writes to, with
// an in-memory implementation and a BadgerDB-backed one.
//
// Graph covers single-graph access: pattern matching, removal, conjunctive
// subject selection and bounded descriptions. Dataset hands out named graphs
// that share one backing store.
package graph

import (
	"context"
	"sort"

	"github.com/geoknoesis/ldgraph/rdf"
)

// Pattern selects triples. A nil S or O and a zero P match anything.
type Pattern struct {
	S rdf.Term
	P rdf.IRI
	O rdf.Term
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t rdf.Triple) bool {
	if p.S != nil && p.S != t.S {
		return false
	}
	if p.P.Value != "" && p.P != t.P {
		return false
	}
	if p.O != nil && p.O != t.O {
		return false
	}
	return true
}

// Constraint requires a (subject, Predicate, Object) triple for a selected subject.
type Constraint struct {
	Predicate rdf.IRI
	Object    rdf.Term
}

// Matcher is the read primitive the generic helpers build on.
type Matcher interface {
	Match(ctx context.Context, p Pattern) ([]rdf.Triple, error)
}

// Graph is an unordered set of triples.
type Graph interface {
	Matcher
	// Add inserts triples. Existing triples are left untouched.
	Add(ctx context.Context, triples ...rdf.Triple) error
	// Remove deletes every triple matching p.
	Remove(ctx context.Context, p Pattern) error
	// Contains reports whether any triple matches p.
	Contains(ctx context.Context, p Pattern) (bool, error)
	// Select returns the subjects that satisfy every constraint, in the
	// order the first constraint's matches are found. With no constraints
	// every subject is returned.
	Select(ctx context.Context, constraints []Constraint) ([]rdf.Term, error)
	// Closure returns the triples of subject plus, recursively, those of
	// every blank node reachable from it as an object.
	Closure(ctx context.Context, subject rdf.Term) ([]rdf.Triple, error)
}

// Dataset hands out named graphs backed by one store.
type Dataset interface {
	Graph(name string) (Graph, error)
	Close() error
}

// SelectSubjects evaluates constraints against any Matcher.
func SelectSubjects(ctx context.Context, m Matcher, constraints []Constraint) ([]rdf.Term, error) {
	first := Pattern{}
	if len(constraints) > 0 {
		first = Pattern{P: constraints[0].Predicate, O: constraints[0].Object}
	}
	triples, err := m.Match(ctx, first)
	if err != nil {
		return nil, err
	}
	candidates := distinctSubjects(triples)
	if len(constraints) <= 1 {
		return candidates, nil
	}

	out := candidates[:0]
	for _, subject := range candidates {
		ok := true
		for _, c := range constraints[1:] {
			found, err := m.Match(ctx, Pattern{S: subject, P: c.Predicate, O: c.Object})
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, subject)
		}
	}
	return out, nil
}

// BoundedDescription collects the triples of subject and of every blank
// node reachable from it through object positions. Cycles are followed once.
func BoundedDescription(ctx context.Context, m Matcher, subject rdf.Term) ([]rdf.Triple, error) {
	var out []rdf.Triple
	visited := map[rdf.Term]bool{subject: true}
	queue := []rdf.Term{subject}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		triples, err := m.Match(ctx, Pattern{S: current})
		if err != nil {
			return nil, err
		}
		for _, t := range triples {
			out = append(out, t)
			if b, ok := t.O.(rdf.BlankNode); ok && !visited[b] {
				visited[b] = true
				queue = append(queue, b)
			}
		}
	}
	return out, nil
}

// Subjects returns the distinct subjects of the triples matching p, in match order.
func Subjects(ctx context.Context, m Matcher, p Pattern) ([]rdf.Term, error) {
	triples, err := m.Match(ctx, p)
	if err != nil {
		return nil, err
	}
	return distinctSubjects(triples), nil
}

func distinctSubjects(triples []rdf.Triple) []rdf.Term {
	seen := make(map[rdf.Term]bool, len(triples))
	var out []rdf.Term
	for _, t := range triples {
		if seen[t.S] {
			continue
		}
		seen[t.S] = true
		out = append(out, t.S)
	}
	return out
}

func sortTriples(triples []rdf.Triple) {
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].String() < triples[j].String()
	})
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
