package rdf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Well-known vocabulary IRIs.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

var (
	// RDFType is rdf:type.
	RDFType = IRI{Value: RDFNamespace + "type"}
	// RDFJSON is the datatype of JSON literals.
	RDFJSON = IRI{Value: RDFNamespace + "JSON"}
	// RDFLangString is the datatype of language-tagged strings.
	RDFLangString = IRI{Value: RDFNamespace + "langString"}

	XSDString  = IRI{Value: XSDNamespace + "string"}
	XSDBoolean = IRI{Value: XSDNamespace + "boolean"}
	XSDInteger = IRI{Value: XSDNamespace + "integer"}
	XSDDouble  = IRI{Value: XSDNamespace + "double"}
	XSDDecimal = IRI{Value: XSDNamespace + "decimal"}
	XSDFloat   = IRI{Value: XSDNamespace + "float"}
	XSDLong    = IRI{Value: XSDNamespace + "long"}
	XSDInt     = IRI{Value: XSDNamespace + "int"}
)

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlankNode:
		return "blank"
	case TermLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a value that can appear in RDF statements.
//
// The set of implementations is closed: IRI, BlankNode and Literal.
// The unexported method keeps other packages from adding variants, so a
// switch over the three types is exhaustive.
type Term interface {
	Kind() TermKind
	String() string
	term()
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// Fragment returns the part after the last '#', or "" when there is none.
func (i IRI) Fragment() string {
	idx := strings.LastIndexByte(i.Value, '#')
	if idx < 0 {
		return ""
	}
	return i.Value[idx+1:]
}

func (IRI) term() {}

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier, without the "_:" prefix.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

func (BlankNode) term() {}

// Literal represents an RDF literal.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns a string representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

func (Literal) term() {}

// IsNative reports whether the literal converts to a JSON scalar without
// losing its datatype.
func (l Literal) IsNative() bool {
	if l.Lang != "" {
		return false
	}
	switch l.Datatype {
	case IRI{}, XSDString, XSDBoolean, XSDInteger, XSDDouble, XSDDecimal, XSDFloat, XSDLong, XSDInt:
		return true
	default:
		return false
	}
}

// Native converts the literal to a JSON-compatible scalar: string, bool or
// float64. Literals with other datatypes, and malformed numeric or boolean
// lexical forms, yield their lexical form.
func (l Literal) Native() any {
	if l.Lang != "" {
		return l.Lexical
	}
	switch l.Datatype {
	case XSDBoolean:
		if b, err := strconv.ParseBool(l.Lexical); err == nil {
			return b
		}
	case XSDInteger, XSDDouble, XSDDecimal, XSDFloat, XSDLong, XSDInt:
		if f, err := strconv.ParseFloat(l.Lexical, 64); err == nil {
			return f
		}
	}
	return l.Lexical
}

// NewLiteral builds a literal from a decoded JSON scalar.
func NewLiteral(value any) (Literal, error) {
	switch v := value.(type) {
	case string:
		return Literal{Lexical: v}, nil
	case bool:
		return Literal{Lexical: strconv.FormatBool(v), Datatype: XSDBoolean}, nil
	case float64:
		return numberLiteral(v), nil
	case float32:
		return numberLiteral(float64(v)), nil
	case int:
		return Literal{Lexical: strconv.Itoa(v), Datatype: XSDInteger}, nil
	case int64:
		return Literal{Lexical: strconv.FormatInt(v, 10), Datatype: XSDInteger}, nil
	default:
		return Literal{}, fmt.Errorf("rdf: unsupported literal value %T", value)
	}
}

// NewTypedLiteral builds a literal with an explicit datatype. The value is
// rendered with the same lexical rules as NewLiteral.
func NewTypedLiteral(value any, datatype string) (Literal, error) {
	lit, err := NewLiteral(value)
	if err != nil {
		return Literal{}, err
	}
	lit.Datatype = IRI{Value: datatype}
	return lit, nil
}

func numberLiteral(v float64) Literal {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return Literal{Lexical: strconv.FormatFloat(v, 'f', -1, 64), Datatype: XSDInteger}
	}
	// Canonical xsd:double: 1.5E0, 1.0E21, -2.5E-7.
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'E', -1, 64), "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return Literal{Lexical: mantissa + "E" + strconv.Itoa(n), Datatype: XSDDouble}
}

// LexicalForm returns the plain string form of a term: the IRI value, the
// blank node identifier or the literal's lexical form.
func LexicalForm(t Term) string {
	switch v := t.(type) {
	case IRI:
		return v.Value
	case BlankNode:
		return v.ID
	case Literal:
		return v.Lexical
	default:
		return ""
	}
}

// Triple is an RDF triple.
type Triple struct {
	// S is the subject.
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
}

// String renders the triple as an N-Triples statement without the final dot.
func (t Triple) String() string {
	return FormatTerm(t.S) + " " + FormatTerm(t.P) + " " + FormatTerm(t.O)
}
