// Package services implements the opinion resolution and stage navigation
// engine behind the driving ports.
//
// Core components, leaves first:
//
//   - LayerStack: the ranked, immutable layers of a composed document
//   - OpinionResolver: which layers author a property, strongest first
//   - ValueSampler: a property's value at a time code, interpolated or held
//   - ResolutionCache: at-most-one computation per key, cleared on reload
//   - StageTreeModel: lazily expanded arena of prims keyed by path
//
// Session ties them to one open document and rebuilds them on reload.
// PropertyPanel and PrimInspector serve presentation adapters.
//
// # Import Rules
//
//   - Can Import: domain, ports, logger
//   - Cannot Import: Any adapter package
package services
