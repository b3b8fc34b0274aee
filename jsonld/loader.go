package jsonld

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/piprate/json-gold/ld"
)

// DocumentLoader resolves remote contexts and documents.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, url string) (RemoteDocument, error)
}

// RemoteDocument represents a fetched JSON-LD document.
type RemoteDocument struct {
	DocumentURL string
	Document    any
	ContextURL  string
}

// StaticLoader serves registered documents from memory and falls back to
// another loader for everything else.
type StaticLoader struct {
	mu   sync.RWMutex
	docs map[string][]byte
	next DocumentLoader
}

// NewStaticLoader returns a loader preloaded with the ActivityStreams and
// security v1 contexts. next may be nil, in which case unknown URLs fail.
func NewStaticLoader(next DocumentLoader) *StaticLoader {
	l := &StaticLoader{docs: make(map[string][]byte, len(embeddedContexts)), next: next}
	for url, doc := range embeddedContexts {
		l.docs[url] = doc
	}
	return l
}

// Register makes doc available under url, replacing any previous document.
func (l *StaticLoader) Register(url string, doc []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[url] = doc
}

// LoadDocument implements DocumentLoader.
func (l *StaticLoader) LoadDocument(ctx context.Context, url string) (RemoteDocument, error) {
	l.mu.RLock()
	raw, ok := l.docs[trimFragment(url)]
	l.mu.RUnlock()
	if !ok {
		if l.next == nil {
			return RemoteDocument{}, fmt.Errorf("%w: %s: not available offline", rdf.ErrDocumentFetch, url)
		}
		return l.next.LoadDocument(ctx, url)
	}
	// Parse on every call: json-gold may hold on to the returned maps.
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return RemoteDocument{}, fmt.Errorf("%w: %s: %v", rdf.ErrDocumentFetch, url, err)
	}
	return RemoteDocument{DocumentURL: url, Document: doc}, nil
}

func trimFragment(url string) string {
	if idx := strings.IndexByte(url, '#'); idx >= 0 {
		return url[:idx]
	}
	return url
}

// DefaultFetchTimeout bounds a single remote document request.
const DefaultFetchTimeout = 30 * time.Second

// HTTPLoader fetches documents over HTTP with json-gold's RFC 7234 caching
// loader, which handles content negotiation, context Link headers and
// Cache-Control expiry. Only http and https URLs are fetched.
type HTTPLoader struct {
	logger *slog.Logger

	// mu guards inner, whose cache is not safe for concurrent use.
	mu    sync.Mutex
	inner *ld.RFC7324CachingDocumentLoader
}

type httpOptions struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*httpOptions)

// WithHTTPClient sets the HTTP client. WithFetchTimeout is ignored when set.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = client }
}

// WithFetchTimeout sets the timeout of the default HTTP client.
func WithFetchTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) { o.timeout = d }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) HTTPOption {
	return func(o *httpOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewHTTPLoader returns a caching HTTP document loader.
func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	o := httpOptions{
		timeout: DefaultFetchTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	client := o.client
	if client == nil {
		client = &http.Client{Timeout: o.timeout}
	}
	return &HTTPLoader{
		logger: o.logger,
		inner:  ld.NewRFC7324CachingDocumentLoader(client),
	}
}

// LoadDocument implements DocumentLoader. The request itself is bounded by
// the client timeout; ctx is checked before fetching.
func (l *HTTPLoader) LoadDocument(ctx context.Context, rawURL string) (RemoteDocument, error) {
	if err := ctx.Err(); err != nil {
		return RemoteDocument{}, fmt.Errorf("%w: %s: %w", rdf.ErrDocumentFetch, rawURL, err)
	}
	// The json-gold loader reads anything that is not http(s) from disk.
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return RemoteDocument{}, fmt.Errorf("%w: %s: unsupported URL", rdf.ErrDocumentFetch, rawURL)
	}

	l.mu.Lock()
	remote, err := l.inner.LoadDocument(rawURL)
	l.mu.Unlock()
	if err != nil {
		l.logger.Debug("document fetch failed", "url", rawURL, "error", err)
		return RemoteDocument{}, fmt.Errorf("%w: %s: %w", rdf.ErrDocumentFetch, rawURL, err)
	}
	return RemoteDocument{
		DocumentURL: remote.DocumentURL,
		Document:    remote.Document,
		ContextURL:  remote.ContextURL,
	}, nil
}
