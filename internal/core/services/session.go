package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.StageService = (*Session)(nil)

var sessionLog = logger.For("session")

// engine is everything derived from one opened document. It is replaced as
// a whole on reload.
type engine struct {
	// calls counts queries in progress; the document closes once they drain.
	calls sync.WaitGroup

	doc       driven.ComposedDocument
	stack     *LayerStack
	tree      *StageTreeModel
	resolver  *OpinionResolver
	sampler   *ValueSampler
	panel     *PropertyPanel
	inspector *PrimInspector
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSettings applies engine settings (worker count, cache toggle).
func WithSettings(settings domain.AppSettings) SessionOption {
	return func(s *Session) {
		s.settings = settings
	}
}

// WithCache uses the given cache instead of creating one.
func WithCache(cache *ResolutionCache) SessionOption {
	return func(s *Session) {
		s.cache = cache
	}
}

// Session owns an opened document and the engine built over it.
// Presentation adapters hold the Session; it stays valid across reloads.
type Session struct {
	id       string
	location string
	loader   driven.DocumentLoader
	settings domain.AppSettings
	cache    *ResolutionCache

	mu     sync.RWMutex
	engine *engine
	closed bool
}

// OpenSession opens location with loader and builds the engine over it.
func OpenSession(
	ctx context.Context, loader driven.DocumentLoader, location string, opts ...SessionOption,
) (*Session, error) {
	s := &Session{
		id:       uuid.NewString(),
		location: location,
		loader:   loader,
		settings: domain.DefaultAppSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		var cacheOpts []CacheOption
		if !s.settings.Engine.Cache {
			cacheOpts = append(cacheOpts, WithCacheDisabled())
		}
		s.cache = NewResolutionCache(cacheOpts...)
	}

	doc, stack, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.engine = s.assemble(doc, stack)
	sessionLog.Debug("opened %s as session %s", location, s.id)
	return s, nil
}

// ID identifies the session.
func (s *Session) ID() string { return s.id }

// Location is the document location the session was opened from.
func (s *Session) Location() string { return s.location }

// Cache returns the session's resolution cache.
func (s *Session) Cache() *ResolutionCache { return s.cache }

// Reload reopens the document. On failure the current document stays in
// use and the error is returned; on success every cache is cleared and the
// previous document is closed once the calls still running on it return.
func (s *Session) Reload(ctx context.Context) error {
	if _, err := s.current(); err != nil {
		return err
	}

	doc, stack, err := s.open(ctx)
	if err != nil {
		sessionLog.Warn("reload of %s failed: %v", s.location, err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = doc.Close()
		return domain.ErrSessionClosed
	}
	old := s.engine
	s.cache.InvalidateAll()
	s.engine = s.assemble(doc, stack)
	s.mu.Unlock()

	old.calls.Wait()
	if err := old.doc.Close(); err != nil {
		sessionLog.Warn("close previous document: %v", err)
	}
	sessionLog.Debug("reloaded %s", s.location)
	return nil
}

// Close releases the document after the calls in progress return.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	e := s.engine
	s.mu.Unlock()

	s.cache.InvalidateAll()
	e.calls.Wait()
	return e.doc.Close()
}

// LayerFiles returns the layer identifiers that name files on disk.
func (s *Session) LayerFiles() []string {
	e, err := s.current()
	if err != nil {
		return nil
	}
	var files []string
	for _, layer := range e.stack.Layers() {
		if info, err := os.Stat(layer.Identifier); err == nil && !info.IsDir() {
			files = append(files, layer.Identifier)
		}
	}
	return files
}

// Layers returns all layers, strongest first.
func (s *Session) Layers() []domain.Layer {
	e, err := s.current()
	if err != nil {
		return nil
	}
	return e.stack.Layers()
}

// Layer returns the layer with the given identifier.
func (s *Session) Layer(id string) (domain.Layer, error) {
	e, err := s.current()
	if err != nil {
		return domain.Layer{}, err
	}
	return e.stack.Layer(id)
}

// ColorOf returns the display colour of a layer in the stack.
func (s *Session) ColorOf(id string) (string, error) {
	e, err := s.current()
	if err != nil {
		return "", err
	}
	return e.stack.ColorOf(id)
}

// Node returns the prim header at path.
func (s *Session) Node(ctx context.Context, path domain.Path) (domain.Node, error) {
	e, release, err := s.acquire()
	if err != nil {
		return domain.Node{}, err
	}
	defer release()
	return e.tree.Node(ctx, path)
}

// ChildrenOf returns the child paths of path in composed order.
func (s *Session) ChildrenOf(ctx context.Context, path domain.Path) ([]domain.Path, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.tree.ChildrenOf(ctx, path)
}

// PropertiesOf returns the property names of path.
func (s *Session) PropertiesOf(ctx context.Context, path domain.Path) ([]string, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.tree.PropertiesOf(ctx, path)
}

// PropertyInfos returns the properties of path with kinds and types.
func (s *Session) PropertyInfos(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.tree.PropertyInfos(ctx, path)
}

// Resolve returns the contributing layers of a property, strongest first.
func (s *Session) Resolve(ctx context.Context, path domain.Path, property string) (domain.ResolvedOpinionSet, bool, error) {
	e, release, err := s.acquire()
	if err != nil {
		return domain.ResolvedOpinionSet{}, false, err
	}
	defer release()
	return e.resolver.Resolve(ctx, path, property)
}

// Sample returns the winning value of a property at t.
func (s *Session) Sample(
	ctx context.Context, path domain.Path, property string, t domain.TimeCode,
) (domain.SampledValue, bool, error) {
	e, release, err := s.acquire()
	if err != nil {
		return domain.SampledValue{}, false, err
	}
	defer release()
	return e.sampler.Sample(ctx, path, property, t)
}

// Rows resolves and samples every property of path at t.
func (s *Session) Rows(ctx context.Context, path domain.Path, t domain.TimeCode) ([]domain.PropertyRow, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.panel.Rows(ctx, path, t)
}

// PrimStack returns the layer specs for path, strongest first.
func (s *Session) PrimStack(ctx context.Context, path domain.Path) ([]domain.PrimSpecRef, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.inspector.PrimStack(ctx, path)
}

// LayerOpinion returns one layer's raw opinion for a property.
func (s *Session) LayerOpinion(
	ctx context.Context, layerID string, path domain.Path, property string,
) (*domain.Opinion, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.inspector.LayerOpinion(ctx, layerID, path, property)
}

// Metadata returns prim or property metadata.
func (s *Session) Metadata(ctx context.Context, path domain.Path, property, layerID string) (domain.Metadata, error) {
	e, release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return e.inspector.Metadata(ctx, path, property, layerID)
}

// TimeRange returns the stage's authored playback range.
func (s *Session) TimeRange(ctx context.Context) (domain.TimeRange, error) {
	e, release, err := s.acquire()
	if err != nil {
		return domain.TimeRange{}, err
	}
	defer release()
	return e.inspector.TimeRange(ctx)
}

func (s *Session) current() (*engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	return s.engine, nil
}

// acquire returns the current engine and holds it open until release.
func (s *Session) acquire() (*engine, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, domain.ErrSessionClosed
	}
	e := s.engine
	e.calls.Add(1)
	return e, e.calls.Done, nil
}

// open loads the document and its layer stack.
func (s *Session) open(ctx context.Context) (driven.ComposedDocument, *LayerStack, error) {
	doc, err := s.loader.Open(ctx, s.location)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentUnavailable) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, s.location, err)
	}

	specs, err := doc.Layers(ctx)
	if err != nil {
		_ = doc.Close()
		return nil, nil, fmt.Errorf("%w: read layers: %v", domain.ErrDocumentUnavailable, err)
	}
	stack, err := NewLayerStack(specs)
	if err != nil {
		_ = doc.Close()
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}
	return doc, stack, nil
}

// assemble builds an engine over doc bound to the cache's current
// generation. Reload calls it after invalidating, under s.mu.
func (s *Session) assemble(doc driven.ComposedDocument, stack *LayerStack) *engine {
	view := s.cache.View()
	tree := NewStageTreeModel(doc)
	resolver := NewOpinionResolver(doc, stack, view)
	sampler := NewValueSampler(doc, resolver, view)
	return &engine{
		doc:       doc,
		stack:     stack,
		tree:      tree,
		resolver:  resolver,
		sampler:   sampler,
		panel:     NewPropertyPanel(tree, resolver, sampler, s.settings.Engine.Workers),
		inspector: NewPrimInspector(doc, stack),
	}
}
