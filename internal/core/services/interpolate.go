package services

import (
	"fmt"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// lerp linearly interpolates between a and b at alpha in [0, 1].
// ok is false when the pair has no linear rule (different kinds, lengths,
// or a held kind) and the caller should hold a.
func lerp(a, b domain.Value, alpha float64) (domain.Value, bool) {
	if a.Kind() != b.Kind() || !a.Interpolable() || !b.Interpolable() {
		return domain.Value{}, false
	}

	switch a.Kind() {
	case domain.KindFloat:
		x, _ := a.Float()
		y, _ := b.Float()
		return domain.FloatValue(mix(x, y, alpha)), true

	case domain.KindVector:
		x, y := a.Vector(), b.Vector()
		if len(x) != len(y) {
			return domain.Value{}, false
		}
		out := make([]float64, len(x))
		for i := range x {
			out[i] = mix(x[i], y[i], alpha)
		}
		return domain.VectorValue(out...), true

	case domain.KindArray:
		xs, ys := a.Elements(), b.Elements()
		if len(xs) != len(ys) {
			return domain.Value{}, false
		}
		out := make([]domain.Value, len(xs))
		for i := range xs {
			v, ok := lerp(xs[i], ys[i], alpha)
			if !ok {
				return domain.Value{}, false
			}
			out[i] = v
		}
		return domain.ArrayValue(out...), true
	}
	return domain.Value{}, false
}

func mix(x, y, alpha float64) float64 {
	return x + (y-x)*alpha
}

// checkSampleable returns ErrUnsupportedType for values without a sampling rule.
func checkSampleable(typeName string, v domain.Value) error {
	if v.Sampleable() {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, typeName)
}
