package mapper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/jsonld"
	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const as = jsonld.ActivityStreamsNS

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
}

func newTestMapper() *Mapper {
	return New(jsonld.NewProcessor(jsonld.NewStaticLoader(nil)), WithIDGenerator(counterIDs()))
}

func iri(v string) rdf.IRI { return rdf.IRI{Value: v} }

func TestInsertNode(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()

	node := map[string]any{
		"@id":   "https://example.com/obj-1",
		"@type": []any{as + "Note"},
		as + "name": []any{
			map[string]any{"@value": "My label"},
		},
		as + "attributedTo": []any{
			map[string]any{"@id": "https://example.com/alice"},
		},
		as + "totalItems": []any{
			map[string]any{"@value": float64(3), "@type": rdf.XSDNamespace + "nonNegativeInteger"},
		},
		as + "content": []any{
			map[string]any{"@value": "Bonjour", "@language": "fr"},
		},
		"@index": "ignored",
	}
	subject, err := m.Insert(ctx, g, node)
	require.NoError(t, err)
	assert.Equal(t, iri("https://example.com/obj-1"), subject)

	triples, err := g.Match(ctx, graph.Pattern{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []rdf.Triple{
		{S: subject, P: rdf.RDFType, O: iri(as + "Note")},
		{S: subject, P: iri(as + "name"), O: rdf.Literal{Lexical: "My label"}},
		{S: subject, P: iri(as + "attributedTo"), O: iri("https://example.com/alice")},
		{S: subject, P: iri(as + "totalItems"), O: rdf.Literal{Lexical: "3", Datatype: iri(rdf.XSDNamespace + "nonNegativeInteger")}},
		{S: subject, P: iri(as + "content"), O: rdf.Literal{Lexical: "Bonjour", Lang: "fr"}},
	}, triples)
}

func TestInsertNestedAndBlankNodes(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()

	node := map[string]any{
		"@type": []any{as + "Note"},
		as + "attachment": []any{
			map[string]any{
				"@type":    []any{as + "Image"},
				as + "url": []any{map[string]any{"@id": "https://example.com/a.png"}},
			},
		},
	}
	subject, err := m.Insert(ctx, g, node)
	require.NoError(t, err)
	assert.Equal(t, rdf.BlankNode{ID: "b1"}, subject)

	triples, err := g.Match(ctx, graph.Pattern{P: iri(as + "attachment")})
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, rdf.BlankNode{ID: "b2"}, triples[0].O)

	ok, err := g.Contains(ctx, graph.Pattern{S: rdf.BlankNode{ID: "b2"}, P: rdf.RDFType, O: iri(as + "Image")})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInsertAllSharesBlankScope(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()

	nodes := []any{
		map[string]any{
			"@id":         "https://example.com/a",
			as + "object": []any{map[string]any{"@id": "_:shared"}},
		},
		map[string]any{
			"@id":       "_:shared",
			as + "name": []any{map[string]any{"@value": "inner"}},
		},
	}
	subjects, err := m.InsertAll(ctx, g, nodes)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, iri("https://example.com/a"), subjects[0])
	assert.Equal(t, rdf.BlankNode{ID: "b1"}, subjects[1])

	ok, err := g.Contains(ctx, graph.Pattern{S: iri("https://example.com/a"), P: iri(as + "object"), O: subjects[1]})
	require.NoError(t, err)
	assert.True(t, ok)

	// A second call relabels the same document label to a new node.
	again, err := m.InsertAll(ctx, g, nodes)
	require.NoError(t, err)
	assert.NotEqual(t, subjects[1], again[1])
}

func TestInsertRejectsNonEmptyList(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()

	list := map[string]any{"@list": []any{map[string]any{"@id": "https://example.com/i1"}}}
	node := map[string]any{
		"@id":               "https://example.com/coll",
		as + "orderedItems": []any{list},
	}
	_, err := m.Insert(ctx, g, node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rdf.ErrUnsupportedConstruct))

	var ce *rdf.ConstructError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "@list", ce.Construct)
	assert.Equal(t, list, ce.Fragment)
}

func TestInsertSkipsEmptyList(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()

	_, err := m.Insert(ctx, g, map[string]any{
		"@id":               "https://example.com/coll",
		"@type":             []any{as + "OrderedCollection"},
		as + "orderedItems": []any{map[string]any{"@list": []any{}}},
	})
	require.NoError(t, err)
	triples, err := g.Match(ctx, graph.Pattern{})
	require.NoError(t, err)
	assert.Len(t, triples, 1)
}

func TestInsertRejectsUnsupportedKeywords(t *testing.T) {
	for _, keyword := range []string{"@reverse", "@graph", "@included"} {
		t.Run(keyword, func(t *testing.T) {
			_, err := newTestMapper().Insert(context.Background(), graph.NewMemory(), map[string]any{
				"@id":   "https://example.com/x",
				keyword: []any{},
			})
			var ce *rdf.ConstructError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, keyword, ce.Construct)
		})
	}
}

func TestInsertJSONLiteral(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	_, err := newTestMapper().Insert(ctx, g, map[string]any{
		"@id": "https://example.com/x",
		"https://example.com/ns#data": []any{
			map[string]any{"@value": map[string]any{"b": "<&>", "a": float64(1)}, "@type": "@json"},
		},
	})
	require.NoError(t, err)
	triples, err := g.Match(ctx, graph.Pattern{})
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, rdf.Literal{Lexical: `{"a":1,"b":"<&>"}`, Datatype: rdf.RDFJSON}, triples[0].O)
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()
	note := iri("https://example.com/obj-1")
	require.NoError(t, g.Add(ctx,
		rdf.Triple{S: note, P: rdf.RDFType, O: iri(as + "Note")},
		rdf.Triple{S: note, P: iri(as + "name"), O: rdf.Literal{Lexical: "My label"}},
		rdf.Triple{S: note, P: iri(as + "attributedTo"), O: iri("https://example.com/alice")},
		rdf.Triple{S: note, P: iri(as + "published"), O: rdf.Literal{Lexical: "2024-01-01T00:00:00Z", Datatype: iri(rdf.XSDNamespace + "dateTime")}},
		rdf.Triple{S: note, P: iri(as + "sensitive"), O: rdf.Literal{Lexical: "false", Datatype: rdf.XSDBoolean}},
	))

	doc, err := m.Extract(ctx, g, note)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "https://example.com/obj-1", doc["id"])
	assert.Equal(t, "Note", doc["type"])
	assert.Equal(t, "My label", doc["name"])
	assert.Equal(t, "https://example.com/alice", doc["attributedTo"])
	assert.Equal(t, "2024-01-01T00:00:00Z", doc["published"])
	assert.Equal(t, false, doc["sensitive"])
	assert.Equal(t, jsonld.CompactionContext(), doc["@context"])
}

func TestExtractMultiValued(t *testing.T) {
	ctx := context.Background()
	g := graph.NewMemory()
	m := newTestMapper()
	note := iri("https://example.com/obj-2")
	require.NoError(t, g.Add(ctx,
		rdf.Triple{S: note, P: rdf.RDFType, O: iri(as + "Note")},
		rdf.Triple{S: note, P: rdf.RDFType, O: iri(as + "Article")},
		rdf.Triple{S: note, P: iri(as + "to"), O: iri("https://example.com/a")},
		rdf.Triple{S: note, P: iri(as + "to"), O: iri("https://example.com/b")},
	))

	doc, err := m.Extract(ctx, g, note)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"Note", "Article"}, doc["type"])
	assert.ElementsMatch(t, []any{"https://example.com/a", "https://example.com/b"}, doc["to"])
}

func TestExtractMissing(t *testing.T) {
	doc, err := newTestMapper().Extract(context.Background(), graph.NewMemory(), iri("https://example.com/none"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFlatNodeConversions(t *testing.T) {
	s := iri("https://example.com/s")
	node := flatNode(s, []rdf.Triple{
		{S: s, P: rdf.RDFType, O: iri(as + "Note")},
		{S: s, P: iri(as + "attachment"), O: rdf.BlankNode{ID: "b9"}},
		{S: s, P: iri(as + "content"), O: rdf.Literal{Lexical: "hola", Lang: "es"}},
		{S: s, P: iri(as + "width"), O: rdf.Literal{Lexical: "640", Datatype: rdf.XSDInteger}},
		{S: s, P: iri(as + "height"), O: rdf.Literal{Lexical: "480", Datatype: iri(rdf.XSDNamespace + "nonNegativeInteger")}},
		{S: s, P: iri(as + "url"), O: iri("https://example.com/img")},
	})
	assert.Equal(t, map[string]any{
		"@id":             "https://example.com/s",
		"@type":           as + "Note",
		as + "attachment": "_:b9",
		as + "content":    map[string]any{"@value": "hola", "@language": "es"},
		as + "width":      float64(640),
		as + "height":     map[string]any{"@value": "480", "@type": rdf.XSDNamespace + "nonNegativeInteger"},
		as + "url":        map[string]any{"@id": "https://example.com/img"},
	}, node)
}

func TestSubjectTerm(t *testing.T) {
	assert.Equal(t, rdf.BlankNode{ID: "x"}, SubjectTerm("_:x"))
	assert.Equal(t, iri("https://example.com/x"), SubjectTerm("https://example.com/x"))
}
