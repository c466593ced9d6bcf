package yamlstage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

var yamlLog = logger.For("yamlstage")

// Option configures a Loader.
type Option func(*Loader)

// WithSessionLayer adds a layer stronger than the root layer.
func WithSessionLayer(path string) Option {
	return func(l *Loader) {
		l.sessionLayer = path
	}
}

// Loader opens YAML layer files as composed documents. The root layer and
// every layer reachable through subLayers are read eagerly; composition
// queries are then answered from memory.
type Loader struct {
	sessionLayer string
}

// NewLoader creates a YAML stage loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open reads the root layer at location and its sublayers.
// Layers are ranked session, root, then sublayers depth-first in listed order.
func (l *Loader) Open(ctx context.Context, location string) (driven.ComposedDocument, error) {
	done := yamlLog.Timed("open " + location)
	defer done()

	root, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, location, err)
	}

	c := &composer{
		ctx:     ctx,
		builder: memory.NewBuilder(),
		seen:    make(map[string]bool),
	}

	if l.sessionLayer != "" {
		session, err := filepath.Abs(l.sessionLayer)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, l.sessionLayer, err)
		}
		if session == root {
			return nil, fmt.Errorf("%w: session layer %s is the root layer", domain.ErrInvalidInput, l.sessionLayer)
		}
		if _, err := c.add(session, domain.ArcSession, nil); err != nil {
			return nil, err
		}
	}

	rootFile, err := c.add(root, domain.ArcRoot, nil)
	if err != nil {
		return nil, err
	}
	if rootFile != nil {
		c.builder.TimeRange(timeRange(rootFile))
	}

	return c.builder.Build(), nil
}

// composer accumulates layers into a memory builder.
type composer struct {
	ctx     context.Context
	builder *memory.Builder
	seen    map[string]bool
}

// add reads the layer at path, authors it, then recurses into its sublayers.
// ancestors holds the chain of layers that led here, for cycle detection.
func (c *composer) add(path string, arc domain.Arc, ancestors []string) (*layerFile, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, err
	}
	for _, a := range ancestors {
		if a == path {
			return nil, fmt.Errorf("%w: sublayer cycle through %s", domain.ErrDocumentUnavailable, path)
		}
	}
	if c.seen[path] {
		yamlLog.Debug("skipping repeated sublayer %s", path)
		return nil, nil
	}
	c.seen[path] = true

	file, err := readLayer(path)
	if err != nil {
		return nil, err
	}

	lb := c.builder.Layer(path, arc).DisplayName(filepath.Base(path))
	for _, prim := range file.Prims {
		if err := author(lb, domain.RootPath, prim); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentUnavailable, path, err)
		}
	}

	chain := append(slices.Clone(ancestors), path)
	for _, sub := range file.SubLayers {
		subPath := sub
		if !filepath.IsAbs(subPath) {
			subPath = filepath.Join(filepath.Dir(path), sub)
		}
		if _, err := c.add(filepath.Clean(subPath), domain.ArcSublayer, chain); err != nil {
			return nil, err
		}
	}
	return file, nil
}

func readLayer(path string) (*layerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}
	var file layerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrDocumentUnavailable, path, err)
	}
	return &file, nil
}

// author writes one prim spec and its descendants into the layer.
func author(lb *memory.LayerBuilder, parent domain.Path, prim primFile) error {
	name, specifier, err := prim.spec()
	if err != nil {
		return fmt.Errorf("under %s: %w", parent, err)
	}
	path := parent.Child(name)
	if _, err := domain.ParsePath(string(path)); err != nil {
		return err
	}
	p := string(path)

	switch specifier {
	case domain.SpecifierDef:
		lb.Def(p, prim.Type)
	case domain.SpecifierClass:
		lb.Class(p, prim.Type)
	default:
		lb.Over(p)
	}

	for _, key := range sortedKeys(prim.Metadata) {
		lb.Meta(p, key, inferValue(prim.Metadata[key]))
	}

	for _, propName := range sortedKeys(prim.Properties) {
		if err := authorProperty(lb, p, propName, prim.Properties[propName]); err != nil {
			return fmt.Errorf("%s.%s: %w", p, propName, err)
		}
	}

	for _, child := range prim.Children {
		if err := author(lb, path, child); err != nil {
			return err
		}
	}
	return nil
}

func authorProperty(lb *memory.LayerBuilder, path, name string, prop propertyFile) error {
	if prop.isRelationship() {
		targets := make([]domain.Path, 0, len(prop.Targets))
		for _, t := range prop.Targets {
			target, err := domain.ParsePath(t)
			if err != nil {
				return err
			}
			targets = append(targets, target)
		}
		lb.Rel(path, name, targets...)
	} else {
		samples, err := prop.samples()
		if err != nil {
			return err
		}
		switch {
		case prop.hasDefault():
			v, err := domain.DecodeValue(prop.Type, prop.Default)
			if err != nil {
				return err
			}
			lb.Attr(path, name, prop.Type, v)
		case len(samples) == 0:
			lb.Declare(path, name, prop.Type)
		}
		if len(samples) > 0 {
			lb.Samples(path, name, prop.Type, samples...)
		}
	}

	for _, key := range sortedKeys(prop.Metadata) {
		lb.PropMeta(path, name, key, inferValue(prop.Metadata[key]))
	}
	return nil
}

func timeRange(root *layerFile) domain.TimeRange {
	var r domain.TimeRange
	if root.StartTimeCode != nil {
		r.Start = domain.TimeCode(*root.StartTimeCode)
	}
	if root.EndTimeCode != nil {
		r.End = domain.TimeCode(*root.EndTimeCode)
	}
	r.TimeCodesPerSecond = root.TimeCodesPerSecond
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
