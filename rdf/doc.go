// Package rdf provides the term model shared by the ldgraph packages.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// Author: Stephane Fellah (stephanef@geoknoesis.com)
// Geosemantic-AI expert with 30 years of experience
//
// It covers three concerns:
//   - Terms: a closed union of IRI, BlankNode and Literal, plus Triple.
//   - Literals: NewLiteral and Literal.Native convert between JSON scalars
//     and RDF literals.
//   - Errors: sentinel errors and ErrorCode values shared by every package,
//     see Code.
//
// TripleReader and TripleWriter read and write N-Triples, which the CLI uses
// to import and export graphs.
//
// Example (exporting triples):
//
//	w := rdf.NewTripleWriter(os.Stdout)
//	for _, t := range triples {
//	    if err := w.Write(t); err != nil {
//	        // handle error
//	    }
//	}
//	if err := w.Close(); err != nil {
//	    // handle error
//	}
package rdf
