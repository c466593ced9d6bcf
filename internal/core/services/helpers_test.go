package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

const stageLocation = "stage.yaml"

// buildStage builds the reference stage: layer A (rank 0) over layer B
// (rank 1).
//
//	/x.p  authored only by B, constant 5
//	/x.q  A samples {0: 1.0, 10: 2.0}, B constant 9
//	/x.r  declared, never authored
func buildStage() *memory.Document {
	b := memory.NewBuilder()
	b.Layer("A", domain.ArcRoot).
		Over("/x").
		Samples("/x", "q", "double",
			domain.TimeSample{Time: 0, Value: domain.FloatValue(1.0)},
			domain.TimeSample{Time: 10, Value: domain.FloatValue(2.0)},
		).
		Samples("/x", "label", "token",
			domain.TimeSample{Time: 0, Value: domain.TokenValue("start")},
			domain.TimeSample{Time: 10, Value: domain.TokenValue("end")},
		).
		Attr("/x", "blob", "dictionary", domain.OpaqueValue("{...}")).
		Meta("/x", "kind", domain.TokenValue("component")).
		Def("/x/child", "Mesh")
	b.Layer("B", domain.ArcSublayer).
		Def("/x", "Xform").
		Attr("/x", "p", "double", domain.FloatValue(5)).
		Attr("/x", "q", "double", domain.FloatValue(9)).
		Declare("/x", "r", "double").
		Rel("/x", "material:binding", "/looks/red").
		Meta("/x", "kind", domain.TokenValue("group")).
		Meta("/x", "instanceable", domain.BoolValue(false)).
		Def("/x/other", "Scope").
		Def("/y", "Xform")
	return b.TimeRange(domain.TimeRange{Start: 0, End: 10, TimeCodesPerSecond: 24}).Build()
}

// newEngine wires a resolver and sampler directly over doc.
func newEngine(t *testing.T, doc *memory.Document, cache *ResolutionCache) (*OpinionResolver, *ValueSampler) {
	t.Helper()
	specs, err := doc.Layers(context.Background())
	require.NoError(t, err)
	stack, err := NewLayerStack(specs)
	require.NoError(t, err)
	view := cache.View()
	resolver := NewOpinionResolver(doc, stack, view)
	return resolver, NewValueSampler(doc, resolver, view)
}

// openSession opens a session over doc through an in-memory loader.
func openSession(t *testing.T, doc *memory.Document, opts ...SessionOption) (*Session, *memory.Loader) {
	t.Helper()
	loader := memory.NewLoader()
	loader.Put(stageLocation, doc)
	session, err := OpenSession(context.Background(), loader, stageLocation, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session, loader
}
