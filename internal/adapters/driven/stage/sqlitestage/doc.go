// Package sqlitestage stores composed stages as SQLite bundles.
//
// A bundle is a single database file holding every layer of a stage: its
// prim specs, property opinions, time samples and metadata. Bundles are
// written with Export from any driven.ComposedDocument and opened read-only
// with Loader, so a stage assembled from many layer files can be shipped and
// inspected as one artefact.
//
// Composition queries run directly against the database; nothing is loaded
// eagerly beyond the layer table.
package sqlitestage
