package graph_test

import (
	"context"
	"testing"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice   = rdf.IRI{Value: "https://example.com/alice"}
	bob     = rdf.IRI{Value: "https://example.com/bob"}
	note    = rdf.IRI{Value: "https://example.com/note"}
	name    = rdf.IRI{Value: "https://example.com/ns#name"}
	knows   = rdf.IRI{Value: "https://example.com/ns#knows"}
	address = rdf.IRI{Value: "https://example.com/ns#address"}
	city    = rdf.IRI{Value: "https://example.com/ns#city"}
	person  = rdf.IRI{Value: "https://example.com/ns#Person"}
	noteT   = rdf.IRI{Value: "https://example.com/ns#Note"}
)

type graphFactory func(t *testing.T) graph.Graph

func backends() map[string]graphFactory {
	return map[string]graphFactory{
		"memory": func(t *testing.T) graph.Graph { return graph.NewMemory() },
		"badger": func(t *testing.T) graph.Graph {
			ds, err := graph.OpenBadger(graph.BadgerOptions{InMemory: true})
			require.NoError(t, err)
			t.Cleanup(func() { ds.Close() })
			g, err := ds.Graph("test")
			require.NoError(t, err)
			return g
		},
	}
}

func seed(t *testing.T, g graph.Graph) {
	t.Helper()
	addr := rdf.BlankNode{ID: "addr"}
	require.NoError(t, g.Add(context.Background(),
		rdf.Triple{S: alice, P: rdf.RDFType, O: person},
		rdf.Triple{S: alice, P: name, O: rdf.Literal{Lexical: "Alice"}},
		rdf.Triple{S: alice, P: knows, O: bob},
		rdf.Triple{S: alice, P: address, O: addr},
		rdf.Triple{S: addr, P: city, O: rdf.Literal{Lexical: "Paris", Lang: "fr"}},
		rdf.Triple{S: bob, P: rdf.RDFType, O: person},
		rdf.Triple{S: bob, P: name, O: rdf.Literal{Lexical: "Bob"}},
		rdf.Triple{S: note, P: rdf.RDFType, O: noteT},
		rdf.Triple{S: note, P: name, O: rdf.Literal{Lexical: "Alice"}},
	))
}

func TestGraphConformance(t *testing.T) {
	for backend, newGraph := range backends() {
		t.Run(backend, func(t *testing.T) {
			t.Run("MatchBySubject", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				triples, err := g.Match(context.Background(), graph.Pattern{S: alice})
				require.NoError(t, err)
				assert.Len(t, triples, 4)
				for _, tr := range triples {
					assert.Equal(t, alice, tr.S)
				}
			})

			t.Run("MatchByPredicateAndObject", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				triples, err := g.Match(context.Background(), graph.Pattern{P: rdf.RDFType, O: person})
				require.NoError(t, err)
				require.Len(t, triples, 2)
				assert.Equal(t, alice, triples[0].S)
				assert.Equal(t, bob, triples[1].S)
			})

			t.Run("MatchAllIsSorted", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				triples, err := g.Match(context.Background(), graph.Pattern{})
				require.NoError(t, err)
				require.Len(t, triples, 9)
				for i := 1; i < len(triples); i++ {
					assert.Less(t, triples[i-1].String(), triples[i].String())
				}
			})

			t.Run("AddIsIdempotent", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				seed(t, g)
				triples, err := g.Match(context.Background(), graph.Pattern{})
				require.NoError(t, err)
				assert.Len(t, triples, 9)
			})

			t.Run("Contains", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				ctx := context.Background()
				ok, err := g.Contains(ctx, graph.Pattern{S: alice, P: name, O: rdf.Literal{Lexical: "Alice"}})
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = g.Contains(ctx, graph.Pattern{S: alice, P: name, O: rdf.Literal{Lexical: "Alice", Lang: "en"}})
				require.NoError(t, err)
				assert.False(t, ok)

				ok, err = g.Contains(ctx, graph.Pattern{S: bob})
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = g.Contains(ctx, graph.Pattern{S: rdf.IRI{Value: "https://example.com/nobody"}})
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("RemoveSubject", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				ctx := context.Background()
				require.NoError(t, g.Remove(ctx, graph.Pattern{S: alice}))

				ok, err := g.Contains(ctx, graph.Pattern{S: alice})
				require.NoError(t, err)
				assert.False(t, ok)

				// Only triples whose subject is alice go away.
				ok, err = g.Contains(ctx, graph.Pattern{S: rdf.BlankNode{ID: "addr"}})
				require.NoError(t, err)
				assert.True(t, ok)
				triples, err := g.Match(ctx, graph.Pattern{P: rdf.RDFType})
				require.NoError(t, err)
				assert.Len(t, triples, 2)
			})

			t.Run("RemoveByPredicate", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				ctx := context.Background()
				require.NoError(t, g.Remove(ctx, graph.Pattern{P: name}))
				triples, err := g.Match(ctx, graph.Pattern{P: name})
				require.NoError(t, err)
				assert.Empty(t, triples)
				triples, err = g.Match(ctx, graph.Pattern{})
				require.NoError(t, err)
				assert.Len(t, triples, 6)
			})

			t.Run("Select", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				ctx := context.Background()

				subjects, err := g.Select(ctx, []graph.Constraint{
					{Predicate: rdf.RDFType, Object: person},
				})
				require.NoError(t, err)
				assert.Equal(t, []rdf.Term{alice, bob}, subjects)

				subjects, err = g.Select(ctx, []graph.Constraint{
					{Predicate: rdf.RDFType, Object: person},
					{Predicate: name, Object: rdf.Literal{Lexical: "Alice"}},
				})
				require.NoError(t, err)
				assert.Equal(t, []rdf.Term{alice}, subjects)

				subjects, err = g.Select(ctx, []graph.Constraint{
					{Predicate: name, Object: rdf.Literal{Lexical: "Alice"}},
				})
				require.NoError(t, err)
				assert.Equal(t, []rdf.Term{alice, note}, subjects)

				subjects, err = g.Select(ctx, []graph.Constraint{
					{Predicate: name, Object: rdf.Literal{Lexical: "Nobody"}},
				})
				require.NoError(t, err)
				assert.Empty(t, subjects)

				subjects, err = g.Select(ctx, nil)
				require.NoError(t, err)
				assert.Len(t, subjects, 4)
			})

			t.Run("Closure", func(t *testing.T) {
				g := newGraph(t)
				seed(t, g)
				triples, err := g.Closure(context.Background(), alice)
				require.NoError(t, err)
				require.Len(t, triples, 5)
				assert.Equal(t, rdf.BlankNode{ID: "addr"}, triples[4].S)

				// bob is an IRI object, so its description is not included.
				for _, tr := range triples {
					assert.NotEqual(t, bob, tr.S)
				}

				empty, err := g.Closure(context.Background(), rdf.IRI{Value: "https://example.com/none"})
				require.NoError(t, err)
				assert.Empty(t, empty)
			})

			t.Run("ClosureCycle", func(t *testing.T) {
				g := newGraph(t)
				a, b := rdf.BlankNode{ID: "a"}, rdf.BlankNode{ID: "b"}
				require.NoError(t, g.Add(context.Background(),
					rdf.Triple{S: note, P: knows, O: a},
					rdf.Triple{S: a, P: knows, O: b},
					rdf.Triple{S: b, P: knows, O: a},
				))
				triples, err := g.Closure(context.Background(), note)
				require.NoError(t, err)
				assert.Len(t, triples, 3)
			})

			t.Run("CanceledContext", func(t *testing.T) {
				g := newGraph(t)
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				require.ErrorIs(t, g.Add(ctx, rdf.Triple{S: alice, P: name, O: bob}), context.Canceled)
				_, err := g.Match(ctx, graph.Pattern{})
				require.ErrorIs(t, err, context.Canceled)
			})
		})
	}
}

func TestDatasetsIsolateNamedGraphs(t *testing.T) {
	badgerDS, err := graph.OpenBadger(graph.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	datasets := map[string]graph.Dataset{
		"memory": graph.NewMemoryDataset(),
		"badger": badgerDS,
	}
	for backend, ds := range datasets {
		t.Run(backend, func(t *testing.T) {
			defer ds.Close()
			ctx := context.Background()
			one, err := ds.Graph("one")
			require.NoError(t, err)
			two, err := ds.Graph("two")
			require.NoError(t, err)

			require.NoError(t, one.Add(ctx, rdf.Triple{S: alice, P: name, O: rdf.Literal{Lexical: "Alice"}}))
			ok, err := two.Contains(ctx, graph.Pattern{S: alice})
			require.NoError(t, err)
			assert.False(t, ok)

			again, err := ds.Graph("one")
			require.NoError(t, err)
			ok, err = again.Contains(ctx, graph.Pattern{S: alice})
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, ds.Close())
			_, err = ds.Graph("one")
			require.ErrorIs(t, err, rdf.ErrConfiguration)
			assert.EqualError(t, err, "graph: ldgraph: not configured: dataset closed")
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ds, err := graph.OpenBadger(graph.BadgerOptions{Dir: dir})
	require.NoError(t, err)
	g, err := ds.Graph("")
	require.NoError(t, err)
	require.NoError(t, g.Add(ctx,
		rdf.Triple{S: alice, P: name, O: rdf.Literal{Lexical: "42", Datatype: rdf.XSDInteger}},
		rdf.Triple{S: alice, P: address, O: rdf.BlankNode{ID: "x"}},
	))
	require.NoError(t, ds.Close())

	ds, err = graph.OpenBadger(graph.BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer ds.Close()
	g, err = ds.Graph("")
	require.NoError(t, err)
	triples, err := g.Match(ctx, graph.Pattern{S: alice})
	require.NoError(t, err)
	require.Len(t, triples, 2)
	assert.Equal(t, rdf.Literal{Lexical: "42", Datatype: rdf.XSDInteger}, triples[1].O)
	assert.Equal(t, rdf.BlankNode{ID: "x"}, triples[0].O)
}

func TestOpenBadgerRequiresDir(t *testing.T) {
	_, err := graph.OpenBadger(graph.BadgerOptions{})
	require.ErrorIs(t, err, rdf.ErrConfiguration)
}

func TestBadgerRejectsInvalidGraphName(t *testing.T) {
	ds, err := graph.OpenBadger(graph.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	defer ds.Close()
	_, err = ds.Graph("bad\x00name")
	require.ErrorIs(t, err, rdf.ErrConfiguration)
}
