package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

// Ensure OpinionResolver implements the interface.
var _ driving.OpinionResolver = (*OpinionResolver)(nil)

var resolveLog = logger.For("resolve")

// OpinionResolver determines, for a property, which layers hold an opinion
// and in what strength order.
type OpinionResolver struct {
	doc   driven.ComposedDocument
	stack *LayerStack
	cache *CacheView
}

// NewOpinionResolver creates a resolver. cache may be nil.
func NewOpinionResolver(doc driven.ComposedDocument, stack *LayerStack, cache *CacheView) *OpinionResolver {
	return &OpinionResolver{doc: doc, stack: stack, cache: cache}
}

// Resolve returns every layer authoring an opinion for (path, property),
// strongest first. found is false when no layer authors one.
func (r *OpinionResolver) Resolve(
	ctx context.Context, path domain.Path, property string,
) (domain.ResolvedOpinionSet, bool, error) {
	return r.cache.Resolution(ctx, path, property, func(ctx context.Context) (domain.ResolvedOpinionSet, bool, error) {
		return r.compute(ctx, path, property)
	})
}

func (r *OpinionResolver) compute(
	ctx context.Context, path domain.Path, property string,
) (domain.ResolvedOpinionSet, bool, error) {
	done := resolveLog.Timed(fmt.Sprintf("%s.%s", path, property))
	defer done()

	ok, err := r.doc.HasNode(ctx, path)
	if err != nil {
		return domain.ResolvedOpinionSet{}, false, err
	}
	if !ok {
		return domain.ResolvedOpinionSet{}, false, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, path)
	}

	set := domain.ResolvedOpinionSet{Path: path, Property: property}
	for _, layer := range r.stack.Layers() {
		if err := ctx.Err(); err != nil {
			return domain.ResolvedOpinionSet{}, false, err
		}
		has, err := r.doc.HasOpinion(ctx, layer.Identifier, path, property)
		if err != nil {
			return domain.ResolvedOpinionSet{}, false, fmt.Errorf("resolve %s.%s in %s: %w",
				path, property, layer.Identifier, err)
		}
		if has {
			set.Layers = append(set.Layers, layer)
		}
	}

	if len(set.Layers) == 0 {
		return domain.ResolvedOpinionSet{}, false, nil
	}
	return set, true, nil
}
