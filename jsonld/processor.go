package jsonld

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geoknoesis/ldgraph/rdf"
	ld "github.com/piprate/json-gold/ld"
)

// Options configures a single expand or compact call.
type Options struct {
	// Base resolves relative IRIs.
	Base string
	// ProcessingMode controls JSON-LD version semantics: "json-ld-1.0" or "json-ld-1.1".
	ProcessingMode string
	// ExpandContext provides an external context for expansion.
	ExpandContext any
	// SafeMode toggles strict JSON-LD error handling.
	SafeMode bool
	// DocumentLoader overrides the processor's loader for this call.
	DocumentLoader DocumentLoader
}

// Processor exposes the JSON-LD algorithms the store relies on.
type Processor interface {
	Expand(ctx context.Context, input any, opts Options) ([]any, error)
	Compact(ctx context.Context, input any, context any, opts Options) (map[string]any, error)
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*goldProcessor)

// WithProcessorLogger sets the logger used for document loads.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *goldProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

type goldProcessor struct {
	loader DocumentLoader
	logger *slog.Logger
}

// NewProcessor returns a json-gold backed processor that resolves remote
// contexts through loader. A nil loader serves only the embedded contexts.
func NewProcessor(loader DocumentLoader, opts ...ProcessorOption) Processor {
	if loader == nil {
		loader = NewStaticLoader(nil)
	}
	p := &goldProcessor{
		loader: loader,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *goldProcessor) Expand(ctx context.Context, input any, opts Options) ([]any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	loader := p.documentLoader(ctx, opts)
	proc := ld.NewJsonLdProcessor()
	var result interface{}
	result, err := proc.Expand(input, p.newGoldOptions(opts, loader))
	if err != nil {
		return nil, translateError("expand", loader, err)
	}
	switch v := result.(type) {
	case []interface{}:
		return v, nil
	case nil:
		return []any{}, nil
	default:
		return nil, fmt.Errorf("jsonld: unexpected expand result %T", result)
	}
}

func (p *goldProcessor) Compact(ctx context.Context, input any, context any, opts Options) (map[string]any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	loader := p.documentLoader(ctx, opts)
	proc := ld.NewJsonLdProcessor()
	var result interface{}
	result, err := proc.Compact(input, context, p.newGoldOptions(opts, loader))
	if err != nil {
		return nil, translateError("compact", loader, err)
	}
	compacted, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("jsonld: unexpected compact result %T", result)
	}
	return compacted, nil
}

func (p *goldProcessor) documentLoader(ctx context.Context, opts Options) *jsonGoldDocumentLoader {
	inner := p.loader
	if opts.DocumentLoader != nil {
		inner = opts.DocumentLoader
	}
	return &jsonGoldDocumentLoader{ctx: ctx, inner: inner, logger: p.logger}
}

func (p *goldProcessor) newGoldOptions(opts Options, loader *jsonGoldDocumentLoader) *ld.JsonLdOptions {
	goldOpts := ld.NewJsonLdOptions(opts.Base)
	if opts.ProcessingMode != "" {
		goldOpts.ProcessingMode = opts.ProcessingMode
	}
	if opts.ExpandContext != nil {
		goldOpts.ExpandContext = opts.ExpandContext
	}
	goldOpts.SafeMode = opts.SafeMode
	goldOpts.DocumentLoader = loader
	return goldOpts
}

// jsonGoldDocumentLoader adapts a DocumentLoader to json-gold, which drops
// the loader's error when reporting a failed context. The first failure is
// kept so callers still see ErrDocumentFetch with its cause.
type jsonGoldDocumentLoader struct {
	ctx    context.Context
	inner  DocumentLoader
	logger *slog.Logger
	err    error
}

func (l *jsonGoldDocumentLoader) LoadDocument(iri string) (*ld.RemoteDocument, error) {
	remote, err := l.inner.LoadDocument(l.ctx, iri)
	if err != nil {
		l.logger.Debug("document load failed", "url", iri, "error", err)
		if l.err == nil {
			l.err = err
		}
		return nil, err
	}
	l.logger.Debug("document loaded", "url", iri)
	return &ld.RemoteDocument{
		DocumentURL: remote.DocumentURL,
		Document:    remote.Document,
		ContextURL:  remote.ContextURL,
	}, nil
}

func translateError(op string, loader *jsonGoldDocumentLoader, err error) error {
	if loader.err != nil {
		if errors.Is(loader.err, rdf.ErrDocumentFetch) {
			return fmt.Errorf("jsonld: %s: %w", op, loader.err)
		}
		return fmt.Errorf("jsonld: %s: %w: %w", op, rdf.ErrDocumentFetch, loader.err)
	}
	var ldErr *ld.JsonLdError
	if errors.As(err, &ldErr) {
		switch ldErr.Code {
		case ld.LoadingDocumentFailed, ld.LoadingRemoteContextFailed:
			return fmt.Errorf("jsonld: %s: %w: %v", op, rdf.ErrDocumentFetch, err)
		}
	}
	return fmt.Errorf("jsonld: %s: %w", op, err)
}
