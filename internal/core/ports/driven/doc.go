// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ComposedDocument: Read-only access to a composed stage and its layers
//   - DocumentLoader: Opens a ComposedDocument from a location
//   - ConfigStore: Application configuration
//
// The core never mutates a ComposedDocument. Every implementation must be
// safe for concurrent reads.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
