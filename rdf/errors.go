package rdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates the graph, dataset or index is unavailable.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeUnsupportedConstruct indicates a JSON-LD construct the mapping rejects.
	ErrCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"
	// ErrCodeDocumentFetch indicates a remote context or document could not be loaded.
	ErrCodeDocumentFetch ErrorCode = "DOCUMENT_FETCH"
	// ErrCodeMalformedCriteria indicates query criteria with an unexpected shape.
	ErrCodeMalformedCriteria ErrorCode = "MALFORMED_CRITERIA"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal indicates any other failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var (
	// ErrConfiguration indicates the store, graph or index is not usable.
	ErrConfiguration = errors.New("ldgraph: not configured")
	// ErrUnsupportedConstruct indicates a JSON-LD construct that cannot be mapped to triples.
	ErrUnsupportedConstruct = errors.New("ldgraph: unsupported construct")
	// ErrDocumentFetch indicates a failed remote document or context fetch.
	ErrDocumentFetch = errors.New("ldgraph: document fetch failed")
	// ErrMalformedCriteria indicates criteria that do not expand to literal or IRI values.
	ErrMalformedCriteria = errors.New("ldgraph: malformed criteria")
)

// Code returns the error code for an error.
// Returns empty string for nil errors.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrConfiguration):
		return ErrCodeConfiguration
	case errors.Is(err, ErrUnsupportedConstruct):
		return ErrCodeUnsupportedConstruct
	case errors.Is(err, ErrDocumentFetch):
		return ErrCodeDocumentFetch
	case errors.Is(err, ErrMalformedCriteria):
		return ErrCodeMalformedCriteria
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}
	return ErrCodeInternal
}

// ConstructError reports a JSON-LD fragment that the triple mapping rejects.
type ConstructError struct {
	Construct string // JSON-LD keyword, e.g. "@list"
	Fragment  any    // Offending value object
}

func (e *ConstructError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrUnsupportedConstruct.Error(), e.Construct)
	if excerpt := e.excerpt(); excerpt != "" {
		msg += "\n  " + excerpt
	}
	return msg
}

func (e *ConstructError) excerpt() string {
	if e.Fragment == nil {
		return ""
	}
	const maxExcerptLen = 120
	data, err := json.Marshal(e.Fragment)
	if err != nil {
		return fmt.Sprintf("%v", e.Fragment)
	}
	if len(data) > maxExcerptLen {
		return string(data[:maxExcerptLen]) + "..."
	}
	return string(data)
}

func (e *ConstructError) Unwrap() error { return ErrUnsupportedConstruct }
