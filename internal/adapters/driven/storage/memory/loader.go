package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader serves documents registered by location. Replacing a location's
// document simulates an edit on disk for reload tests.
type Loader struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	fails map[string]error
	opens map[string]int
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{
		docs:  make(map[string]*Document),
		fails: make(map[string]error),
		opens: make(map[string]int),
	}
}

// Put registers doc at location, replacing any previous document.
func (l *Loader) Put(location string, doc *Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[location] = doc
	delete(l.fails, location)
}

// Fail makes opening location return err until the next Put.
func (l *Loader) Fail(location string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails[location] = err
}

// Opens returns how many times location was opened successfully.
func (l *Loader) Opens(location string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opens[location]
}

// Open returns the document registered at location.
func (l *Loader) Open(ctx context.Context, location string) (driven.ComposedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.fails[location]; ok {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, location, err)
	}
	doc, ok := l.docs[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such document", domain.ErrDocumentUnavailable, location)
	}
	l.opens[location]++
	return doc, nil
}
