package processor

import (
	"fmt"
	"sync"

	"github.com/piprate/json-gold/ld"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

// ProcessorOpt represents an option for JSON-LD processing.
type ProcessorOpt func(*ProcessorOptions)

// ProcessorOptions holds configuration for JSON-LD processing.
type ProcessorOptions struct {
	documentLoader ld.DocumentLoader
}

// WithDocumentLoader sets the document loader for JSON-LD processing.
// The loader is wrapped with Synchronized once, when the option is built, so
// every validation run through this option shares one lock.
func WithDocumentLoader(loader ld.DocumentLoader) ProcessorOpt {
	synced := Synchronized(loader)
	return func(p *ProcessorOptions) {
		p.documentLoader = synced
	}
}

// SynchronizedLoader serializes calls to a document loader. json-gold's
// caching loaders keep a plain map, so concurrent expansions must not reach
// them unguarded.
type SynchronizedLoader struct {
	mu     sync.Mutex
	loader ld.DocumentLoader
}

// Synchronized wraps loader in a SynchronizedLoader. A loader that is already
// synchronized is returned as is.
func Synchronized(loader ld.DocumentLoader) ld.DocumentLoader {
	if loader == nil {
		return nil
	}
	if s, ok := loader.(*SynchronizedLoader); ok {
		return s
	}
	return &SynchronizedLoader{loader: loader}
}

// LoadDocument implements ld.DocumentLoader.
func (s *SynchronizedLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loader.LoadDocument(u)
}

// defaultDocumentLoader is a shared caching loader to prevent repeated fetches across calls.
var defaultDocumentLoader = Synchronized(ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil)))

// ValidateJSONLD expands the document to check that its @context resolves and
// that it is well-formed JSON-LD. The document itself is not modified, and
// concurrent calls are safe.
func ValidateJSONLD(doc jsonmap.JSONMap, opts ...ProcessorOpt) error {
	if doc == nil {
		return fmt.Errorf("failed to validate JSON-LD: document is nil")
	}

	options := &ProcessorOptions{documentLoader: defaultDocumentLoader}
	for _, opt := range opts {
		opt(options)
	}
	if options.documentLoader == nil {
		options.documentLoader = defaultDocumentLoader
	}

	jsonldOptions := ld.NewJsonLdOptions("")
	jsonldOptions.DocumentLoader = options.documentLoader

	proc := ld.NewJsonLdProcessor()
	if _, err := proc.Expand(map[string]interface{}(doc.Clone()), jsonldOptions); err != nil {
		return fmt.Errorf("failed to expand JSON-LD document: %w", err)
	}

	return nil
}
