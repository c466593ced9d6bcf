package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
)

// Ensure Document implements the interface.
var _ driven.ComposedDocument = (*Document)(nil)

// Query names passed to hooks and counters.
const (
	QueryLayers     = "Layers"
	QueryHasNode    = "HasNode"
	QueryNode       = "Node"
	QueryChildren   = "Children"
	QueryProperties = "Properties"
	QueryPrimSpec   = "PrimSpec"
	QueryHasOpinion = "HasOpinion"
	QueryOpinion    = "Opinion"
	QueryMetadata   = "Metadata"
	QueryTimeRange  = "TimeRange"
)

// Hook runs before every query. A non-nil error is returned to the caller.
type Hook func(ctx context.Context, query string) error

type propSpec struct {
	kind     domain.PropertyKind
	typeName string
	def      *domain.Value
	samples  []domain.TimeSample
	metadata domain.Metadata
}

type primSpec struct {
	specifier domain.Specifier
	typeName  string
	children  []domain.Path
	props     map[string]*propSpec
	metadata  domain.Metadata
}

type layerData struct {
	spec  domain.LayerSpec
	prims map[domain.Path]*primSpec
}

// Document is an in-memory composed document. Its content is immutable
// once built; only counters and the hook change.
type Document struct {
	layers    []*layerData
	byID      map[string]*layerData
	timeRange domain.TimeRange

	counts sync.Map // query -> *atomic.Int64
	keyed  sync.Map // query\x00key -> *atomic.Int64
	closes atomic.Int64

	hookMu sync.RWMutex
	hook   Hook
}

// SetHook installs a hook run before every query. Pass nil to remove it.
func (d *Document) SetHook(h Hook) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.hook = h
}

// Queries returns how many times the named query ran.
func (d *Document) Queries(query string) int64 {
	if c, ok := d.counts.Load(query); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// OpinionQueries returns how many HasOpinion calls were made for
// (path, property) across all layers.
func (d *Document) OpinionQueries(path domain.Path, property string) int64 {
	if c, ok := d.keyed.Load(QueryHasOpinion + "\x00" + string(path) + "\x00" + property); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// ChildQueries returns how many Children calls were made for path.
func (d *Document) ChildQueries(path domain.Path) int64 {
	if c, ok := d.keyed.Load(QueryChildren + "\x00" + string(path)); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// Closes returns how many times Close was called.
func (d *Document) Closes() int64 {
	return d.closes.Load()
}

// Layers returns the layer stack, strongest first.
func (d *Document) Layers(ctx context.Context) ([]domain.LayerSpec, error) {
	if err := d.query(ctx, QueryLayers, ""); err != nil {
		return nil, err
	}
	specs := make([]domain.LayerSpec, len(d.layers))
	for i, l := range d.layers {
		specs[i] = l.spec
	}
	return specs, nil
}

// HasNode reports whether any layer holds a spec for path.
func (d *Document) HasNode(ctx context.Context, path domain.Path) (bool, error) {
	if err := d.query(ctx, QueryHasNode, ""); err != nil {
		return false, err
	}
	return d.exists(path), nil
}

// Node returns the composed prim header at path.
func (d *Document) Node(ctx context.Context, path domain.Path) (*domain.Node, error) {
	if err := d.query(ctx, QueryNode, ""); err != nil {
		return nil, err
	}
	if !d.exists(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}

	node := &domain.Node{Path: path}
	if path.IsRoot() {
		return node, nil
	}
	for _, l := range d.layers {
		prim, ok := l.prims[path]
		if !ok {
			continue
		}
		if node.TypeName == "" {
			node.TypeName = prim.typeName
		}
		if node.Specifier == "" || node.Specifier == domain.SpecifierOver {
			node.Specifier = prim.specifier
		}
	}
	return node, nil
}

// Children returns child paths in strongest-first order of first appearance.
func (d *Document) Children(ctx context.Context, path domain.Path) ([]domain.Path, error) {
	if err := d.query(ctx, QueryChildren, string(path)); err != nil {
		return nil, err
	}
	if !d.exists(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}

	seen := make(map[domain.Path]bool)
	children := []domain.Path{}
	for _, l := range d.layers {
		prim, ok := l.prims[path]
		if !ok {
			continue
		}
		for _, c := range prim.children {
			if !seen[c] {
				seen[c] = true
				children = append(children, c)
			}
		}
	}
	return children, nil
}

// Properties returns the composed properties of path in dictionary order.
// Kind and type come from the strongest layer declaring each property.
func (d *Document) Properties(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error) {
	if err := d.query(ctx, QueryProperties, ""); err != nil {
		return nil, err
	}
	if !d.exists(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}

	byName := make(map[string]domain.PropertyInfo)
	for _, l := range d.layers {
		prim, ok := l.prims[path]
		if !ok {
			continue
		}
		for name, p := range prim.props {
			if _, ok := byName[name]; !ok {
				byName[name] = domain.PropertyInfo{Name: name, Kind: p.kind, TypeName: p.typeName}
			}
		}
	}

	infos := make([]domain.PropertyInfo, 0, len(byName))
	for _, info := range byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// PrimSpec reports the spec a single layer holds for path.
func (d *Document) PrimSpec(ctx context.Context, layerID string, path domain.Path) (domain.PrimSpecRef, bool, error) {
	if err := d.query(ctx, QueryPrimSpec, ""); err != nil {
		return domain.PrimSpecRef{}, false, err
	}
	l, err := d.layer(layerID)
	if err != nil {
		return domain.PrimSpecRef{}, false, err
	}
	prim, ok := l.prims[path]
	if !ok || path.IsRoot() {
		return domain.PrimSpecRef{}, false, nil
	}
	return domain.PrimSpecRef{
		Path:      path,
		Specifier: prim.specifier,
		TypeName:  prim.typeName,
	}, true, nil
}

// HasOpinion reports whether the layer authors a value for the property.
func (d *Document) HasOpinion(ctx context.Context, layerID string, path domain.Path, property string) (bool, error) {
	if err := d.query(ctx, QueryHasOpinion, string(path)+"\x00"+property); err != nil {
		return false, err
	}
	l, err := d.layer(layerID)
	if err != nil {
		return false, err
	}
	p := l.prop(path, property)
	return p != nil && (p.def != nil || len(p.samples) > 0), nil
}

// Opinion returns the layer's authored value(s) for the property.
func (d *Document) Opinion(ctx context.Context, layerID string, path domain.Path, property string) (*domain.Opinion, error) {
	if err := d.query(ctx, QueryOpinion, ""); err != nil {
		return nil, err
	}
	l, err := d.layer(layerID)
	if err != nil {
		return nil, err
	}
	p := l.prop(path, property)
	if p == nil || (p.def == nil && len(p.samples) == 0) {
		return nil, fmt.Errorf("%w: %s.%s in %s", domain.ErrNotFound, path, property, layerID)
	}

	op := &domain.Opinion{
		LayerID:  layerID,
		Path:     path,
		Property: property,
		Kind:     p.kind,
		TypeName: p.typeName,
		Samples:  slices.Clone(p.samples),
	}
	if p.def != nil {
		v := *p.def
		op.Default = &v
	}
	return op, nil
}

// Metadata returns the metadata a layer authors on a prim or property.
func (d *Document) Metadata(ctx context.Context, layerID string, path domain.Path, property string) (domain.Metadata, error) {
	if err := d.query(ctx, QueryMetadata, ""); err != nil {
		return nil, err
	}
	l, err := d.layer(layerID)
	if err != nil {
		return nil, err
	}

	var md domain.Metadata
	if property == "" {
		if prim, ok := l.prims[path]; ok {
			md = prim.metadata
		}
	} else if p := l.prop(path, property); p != nil {
		md = p.metadata
	}

	out := make(domain.Metadata, len(md))
	for i, field := range md {
		field.LayerID = layerID
		out[i] = field
	}
	return out, nil
}

// TimeRange returns the authored playback range.
func (d *Document) TimeRange(ctx context.Context) (domain.TimeRange, error) {
	if err := d.query(ctx, QueryTimeRange, ""); err != nil {
		return domain.TimeRange{}, err
	}
	return d.timeRange, nil
}

// Close counts the call. The document stays readable.
func (d *Document) Close() error {
	d.closes.Add(1)
	return nil
}

func (d *Document) query(ctx context.Context, query, key string) error {
	counter(&d.counts, query).Add(1)
	if key != "" {
		counter(&d.keyed, query+"\x00"+key).Add(1)
	}

	d.hookMu.RLock()
	hook := d.hook
	d.hookMu.RUnlock()
	if hook != nil {
		if err := hook(ctx, query); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (d *Document) exists(path domain.Path) bool {
	if path.IsRoot() {
		return true
	}
	for _, l := range d.layers {
		if _, ok := l.prims[path]; ok {
			return true
		}
	}
	return false
}

func (d *Document) layer(id string) (*layerData, error) {
	l, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: layer %s", domain.ErrNotFound, id)
	}
	return l, nil
}

func (l *layerData) prop(path domain.Path, property string) *propSpec {
	prim, ok := l.prims[path]
	if !ok {
		return nil
	}
	return prim.props[property]
}

func counter(m *sync.Map, key string) *atomic.Int64 {
	if c, ok := m.Load(key); ok {
		return c.(*atomic.Int64)
	}
	c, _ := m.LoadOrStore(key, new(atomic.Int64))
	return c.(*atomic.Int64)
}
