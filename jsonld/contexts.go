package jsonld

import (
	_ "embed"
)

// Well-known context and vocabulary locations.
const (
	// ActivityStreamsURL is the ActivityStreams 2.0 context document.
	ActivityStreamsURL = "https://www.w3.org/ns/activitystreams"
	// ActivityStreamsNS is the ActivityStreams 2.0 vocabulary namespace.
	ActivityStreamsNS = "https://www.w3.org/ns/activitystreams#"
	// SecurityV1URL is the security vocabulary v1 context document.
	SecurityV1URL = "https://w3c-ccg.github.io/security-vocab/contexts/security-v1.jsonld"
	// SecurityV1AltURL is the w3id redirect for SecurityV1URL.
	SecurityV1AltURL = "https://w3id.org/security/v1"
)

var (
	//go:embed contexts/activitystreams.jsonld
	activityStreamsContext []byte
	//go:embed contexts/security-v1.jsonld
	securityV1Context []byte
)

// embeddedContexts maps each well-known URL to its bundled document.
var embeddedContexts = map[string][]byte{
	ActivityStreamsURL:             activityStreamsContext,
	ActivityStreamsURL + ".jsonld": activityStreamsContext,
	SecurityV1URL:                  securityV1Context,
	SecurityV1AltURL:               securityV1Context,
}

// DefaultContext is the context attached to documents that carry none.
func DefaultContext() any {
	return ActivityStreamsURL
}

// CompactionContext returns the context used when rendering stored resources:
// ActivityStreams, security v1, and ActivityStreams as default vocabulary.
// Each call returns a fresh value that callers may modify.
func CompactionContext() []any {
	return []any{
		ActivityStreamsURL,
		SecurityV1URL,
		map[string]any{"@vocab": ActivityStreamsNS},
	}
}
