package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
	"github.com/custodia-labs/usdinspect/internal/core/services"
)

const testLocation = "shot.yaml"

// newTestStage opens a session over a two-layer stage:
//
//	anim (root):  over /World/Cube  size samples {1: 1, 24: 2}
//	base (sub):   def /World Xform, def /World/Cube Cube size=1 tags=[hero], def /World/Light
func newTestStage(t *testing.T) driving.StageService {
	t.Helper()
	b := memory.NewBuilder()
	b.Layer("anim", domain.ArcRoot).
		Over("/World/Cube").
		Samples("/World/Cube", "size", "double",
			domain.TimeSample{Time: 1, Value: domain.FloatValue(1)},
			domain.TimeSample{Time: 24, Value: domain.FloatValue(2)})
	b.Layer("base", domain.ArcSublayer).
		Def("/World", "Xform").
		Meta("/World", "kind", domain.TokenValue("assembly")).
		Def("/World/Cube", "Cube").
		Attr("/World/Cube", "size", "double", domain.FloatValue(1)).
		Attr("/World/Cube", "tags", "token[]", domain.ArrayValue(domain.TokenValue("hero"))).
		Attr("/World/Cube", "notes", "dictionary", domain.OpaqueValue("{}")).
		Def("/World/Light", "DistantLight")
	b.TimeRange(domain.TimeRange{Start: 1, End: 24, TimeCodesPerSecond: 24})

	loader := memory.NewLoader()
	loader.Put(testLocation, b.Build())
	session, err := services.OpenSession(context.Background(), loader, testLocation)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Stage: newTestStage(t)})
	require.NoError(t, err)
	return server
}

// failingStage fails every document query with err.
type failingStage struct {
	driving.StageService
	err error
}

func (f *failingStage) ChildrenOf(context.Context, domain.Path) ([]domain.Path, error) {
	return nil, f.err
}

func (f *failingStage) Rows(context.Context, domain.Path, domain.TimeCode) ([]domain.PropertyRow, error) {
	return nil, f.err
}

func (f *failingStage) Resolve(context.Context, domain.Path, string) (domain.ResolvedOpinionSet, bool, error) {
	return domain.ResolvedOpinionSet{}, false, f.err
}

func (f *failingStage) Sample(context.Context, domain.Path, string, domain.TimeCode) (domain.SampledValue, bool, error) {
	return domain.SampledValue{}, false, f.err
}

func (f *failingStage) TimeRange(context.Context) (domain.TimeRange, error) {
	return domain.TimeRange{}, f.err
}
