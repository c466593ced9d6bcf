package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

// Ensure ValueSampler implements the interface.
var _ driving.ValueSampler = (*ValueSampler)(nil)

// ValueSampler evaluates properties at time codes using the winning layer's
// opinion. Weaker layers never contribute to the value.
type ValueSampler struct {
	doc      driven.ComposedDocument
	resolver driving.OpinionResolver
	cache    *CacheView
}

// NewValueSampler creates a sampler. cache may be nil.
func NewValueSampler(doc driven.ComposedDocument, resolver driving.OpinionResolver, cache *CacheView) *ValueSampler {
	return &ValueSampler{doc: doc, resolver: resolver, cache: cache}
}

// Sample returns the value of (path, property) at t from the winning layer.
// found is false when no layer authors the property.
func (s *ValueSampler) Sample(
	ctx context.Context, path domain.Path, property string, t domain.TimeCode,
) (domain.SampledValue, bool, error) {
	return s.cache.Sample(ctx, path, property, t, func(ctx context.Context) (domain.SampledValue, bool, error) {
		return s.compute(ctx, path, property, t)
	})
}

func (s *ValueSampler) compute(
	ctx context.Context, path domain.Path, property string, t domain.TimeCode,
) (domain.SampledValue, bool, error) {
	set, found, err := s.resolver.Resolve(ctx, path, property)
	if err != nil || !found {
		return domain.SampledValue{}, false, err
	}
	winner := set.Winner()

	op, err := s.doc.Opinion(ctx, winner.Identifier, path, property)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.SampledValue{}, false, nil
	}
	if err != nil {
		return domain.SampledValue{}, false, fmt.Errorf("sample %s.%s: %w", path, property, err)
	}
	if !op.HasValue() {
		return domain.SampledValue{}, false, nil
	}

	value, source, err := evaluate(op, t)
	if err != nil {
		return domain.SampledValue{}, false, err
	}
	return domain.SampledValue{
		Path:     path,
		Property: property,
		Value:    value,
		Layer:    winner,
		Time:     t,
		Source:   source,
	}, true, nil
}

// evaluate applies the sampling rules to a single opinion:
// samples govern when present, otherwise the default is returned as is.
func evaluate(op *domain.Opinion, t domain.TimeCode) (domain.Value, domain.SampleSource, error) {
	if !op.IsTimeVarying() {
		if err := checkSampleable(op.TypeName, *op.Default); err != nil {
			return domain.Value{}, "", err
		}
		return *op.Default, domain.SourceDefault, nil
	}

	samples := op.Samples
	if !slices.IsSortedFunc(samples, compareSamples) {
		samples = slices.Clone(samples)
		slices.SortStableFunc(samples, compareSamples)
	}

	// First sample at or after t.
	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].Time >= t
	})

	var (
		value  domain.Value
		source domain.SampleSource
	)
	switch {
	case i < len(samples) && samples[i].Time == t:
		value, source = samples[i].Value, domain.SourceExact
	case i == 0:
		value, source = samples[0].Value, domain.SourceHeld
	case i == len(samples):
		value, source = samples[len(samples)-1].Value, domain.SourceHeld
	default:
		lo, hi := samples[i-1], samples[i]
		if err := checkSampleable(op.TypeName, lo.Value); err != nil {
			return domain.Value{}, "", err
		}
		alpha := float64(t-lo.Time) / float64(hi.Time-lo.Time)
		if v, ok := lerp(lo.Value, hi.Value, alpha); ok {
			return v, domain.SourceInterpolated, nil
		}
		value, source = lo.Value, domain.SourceHeld
	}

	if err := checkSampleable(op.TypeName, value); err != nil {
		return domain.Value{}, "", err
	}
	return value, source, nil
}

func compareSamples(a, b domain.TimeSample) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	default:
		return 0
	}
}
