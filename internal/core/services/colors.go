package services

import (
	"crypto/sha256"
	"encoding/binary"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Saturation and lightness buckets a layer colour is picked from.
var (
	colorSaturations = []float64{0.35, 0.5, 0.65}
	colorLightnesses = []float64{0.35, 0.5, 0.65}
)

// LayerColor derives the "#rrggbb" tag of a layer from its identifier.
// It is a pure function: the same identifier yields the same colour in every
// run and process.
func LayerColor(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	h := binary.BigEndian.Uint64(sum[:8])

	hue := float64(h % 360)
	h /= 360
	sat := colorSaturations[h%uint64(len(colorSaturations))]
	h /= uint64(len(colorSaturations))
	light := colorLightnesses[h%uint64(len(colorLightnesses))]

	return colorful.Hsl(hue, sat, light).Clamped().Hex()
}
