// Package domain defines the core entities of usdinspect.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Layer: One contributor to a composed stage, ranked by strength
//   - Node: A prim in the composed hierarchy, addressed by Path
//   - Opinion: A single layer's authored value(s) for a property
//   - ResolvedOpinionSet: The contributing layers of a property, strongest first
//   - Value: A closed tagged variant over the supported value kinds
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
