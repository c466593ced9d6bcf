package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure StageTreeModel implements the interface.
var _ driving.StageTree = (*StageTreeModel)(nil)

var treeLog = logger.For("tree")

// nodeEntry is one arena slot. Fields are filled independently as the
// header, children and properties are first requested.
type nodeEntry struct {
	header     *domain.Node
	children   []domain.Path
	expanded   bool
	properties []domain.PropertyInfo
	listed     bool
}

// StageTreeModel is a lazily expanded view over the composed hierarchy.
// Nodes live in an arena keyed by path and are only ever added; the tree is
// rebuilt wholesale on reload.
type StageTreeModel struct {
	doc driven.ComposedDocument

	mu     sync.RWMutex
	arena  map[domain.Path]*nodeEntry
	flight singleflight.Group
}

// NewStageTreeModel creates an empty tree over doc.
func NewStageTreeModel(doc driven.ComposedDocument) *StageTreeModel {
	return &StageTreeModel{
		doc:   doc,
		arena: make(map[domain.Path]*nodeEntry),
	}
}

// Node returns the prim header at path, with Children and Properties filled
// from the arena when they have already been expanded.
func (t *StageTreeModel) Node(ctx context.Context, path domain.Path) (domain.Node, error) {
	t.mu.RLock()
	e := t.arena[path]
	var node domain.Node
	if e != nil && e.header != nil {
		node = t.snapshot(e)
	}
	t.mu.RUnlock()
	if e != nil && e.header != nil {
		return node, nil
	}

	_, err := t.share(ctx, "node\x00"+string(path), func(ctx context.Context) (any, error) {
		header, err := t.doc.Node(ctx, path)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.entry(path).header = header
		t.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return domain.Node{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot(t.arena[path]), nil
}

// ChildrenOf returns the child paths of path in composed order. The first
// call queries the document; later calls are served from the arena.
func (t *StageTreeModel) ChildrenOf(ctx context.Context, path domain.Path) ([]domain.Path, error) {
	t.mu.RLock()
	if e := t.arena[path]; e != nil && e.expanded {
		children := slices.Clone(e.children)
		t.mu.RUnlock()
		return children, nil
	}
	t.mu.RUnlock()

	v, err := t.share(ctx, "children\x00"+string(path), func(ctx context.Context) (any, error) {
		t.mu.RLock()
		if e := t.arena[path]; e != nil && e.expanded {
			t.mu.RUnlock()
			return e.children, nil
		}
		t.mu.RUnlock()

		children, err := t.doc.Children(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", path, err)
		}
		treeLog.Debug("expanded %s (%d children)", path, len(children))

		t.mu.Lock()
		e := t.entry(path)
		e.children = children
		e.expanded = true
		t.mu.Unlock()
		return children, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Path)), nil
}

// PropertyInfos returns the properties of path with kind and type.
func (t *StageTreeModel) PropertyInfos(ctx context.Context, path domain.Path) ([]domain.PropertyInfo, error) {
	t.mu.RLock()
	if e := t.arena[path]; e != nil && e.listed {
		props := slices.Clone(e.properties)
		t.mu.RUnlock()
		return props, nil
	}
	t.mu.RUnlock()

	v, err := t.share(ctx, "properties\x00"+string(path), func(ctx context.Context) (any, error) {
		t.mu.RLock()
		if e := t.arena[path]; e != nil && e.listed {
			t.mu.RUnlock()
			return e.properties, nil
		}
		t.mu.RUnlock()

		props, err := t.doc.Properties(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("list properties of %s: %w", path, err)
		}

		t.mu.Lock()
		e := t.entry(path)
		e.properties = props
		e.listed = true
		t.mu.Unlock()
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.PropertyInfo)), nil
}

// PropertiesOf returns the property names of path.
func (t *StageTreeModel) PropertiesOf(ctx context.Context, path domain.Path) ([]string, error) {
	infos, err := t.PropertyInfos(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// IsExpanded reports whether the children of path have been loaded.
func (t *StageTreeModel) IsExpanded(path domain.Path) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.arena[path]
	return e != nil && e.expanded
}

// Size returns the number of nodes held in the arena.
func (t *StageTreeModel) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.arena)
}

// share runs fn once for all concurrent callers of key. fn runs detached
// from ctx so its result reaches the arena even if every caller gives up;
// a caller whose ctx ends stops waiting.
func (t *StageTreeModel) share(
	ctx context.Context, key string, fn func(context.Context) (any, error),
) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	ch := t.flight.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// entry returns the arena slot for path, creating it. Callers hold t.mu.
func (t *StageTreeModel) entry(path domain.Path) *nodeEntry {
	e, ok := t.arena[path]
	if !ok {
		e = &nodeEntry{}
		t.arena[path] = e
	}
	return e
}

// snapshot copies an entry into a Node. Callers hold t.mu.
func (t *StageTreeModel) snapshot(e *nodeEntry) domain.Node {
	node := *e.header
	node.Children = slices.Clone(e.children)
	node.Properties = make([]string, 0, len(e.properties))
	for _, p := range e.properties {
		node.Properties = append(node.Properties, p.Name)
	}
	return node
}
