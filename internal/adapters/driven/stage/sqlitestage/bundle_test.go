package sqlitestage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/stage/yamlstage"
	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driven"
	"github.com/custodia-labs/usdinspect/internal/core/services"
)

func sampleStage() *memory.Document {
	b := memory.NewBuilder()
	b.Layer("A", domain.ArcRoot).
		DisplayName("a.yaml").
		Over("/x").
		Samples("/x", "q", "double",
			domain.TimeSample{Time: 10, Value: domain.FloatValue(2)},
			domain.TimeSample{Time: 0, Value: domain.FloatValue(1)}).
		Attr("/x", "blob", "dictionary", domain.OpaqueValue("{a = 1}")).
		Meta("/x", "kind", domain.TokenValue("component")).
		Def("/x/child", "Mesh")
	b.Layer("B", domain.ArcSublayer).
		Def("/x", "Xform").
		Attr("/x", "p", "double", domain.FloatValue(5)).
		Attr("/x", "q", "double", domain.FloatValue(9)).
		Attr("/x", "tags", "token[]", domain.ArrayValue(domain.TokenValue("hero"), domain.TokenValue("prop"))).
		Attr("/x", "offset", "float3", domain.VectorValue(0, 1.5, -2)).
		Declare("/x", "r", "double").
		Rel("/x", "material:binding", "/looks/red").
		PropMeta("/x", "material:binding", "bindMaterialAs", domain.TokenValue("weakerThanDescendants")).
		Meta("/x", "kind", domain.TokenValue("group")).
		Meta("/x", "instanceable", domain.BoolValue(false)).
		Def("/x/other", "Scope").
		Def("/x/child", "").
		Def("/y", "Xform")
	b.TimeRange(domain.TimeRange{Start: 0, End: 10, TimeCodesPerSecond: 24})
	return b.Build()
}

func exportAndOpen(t *testing.T, src driven.ComposedDocument) (driven.ComposedDocument, ExportStats) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stage.usdb")
	stats, err := Export(context.Background(), src, path)
	require.NoError(t, err)

	doc, err := NewLoader().Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc, stats
}

// assertSameDocument walks both documents and compares every query.
func assertSameDocument(t *testing.T, want, got driven.ComposedDocument) {
	t.Helper()
	ctx := context.Background()

	wantLayers, err := want.Layers(ctx)
	require.NoError(t, err)
	gotLayers, err := got.Layers(ctx)
	require.NoError(t, err)
	require.Equal(t, wantLayers, gotLayers)

	wantRange, err := want.TimeRange(ctx)
	require.NoError(t, err)
	gotRange, err := got.TimeRange(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantRange, gotRange)

	var walk func(path domain.Path)
	walk = func(path domain.Path) {
		wantNode, err := want.Node(ctx, path)
		require.NoError(t, err)
		gotNode, err := got.Node(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, wantNode, gotNode, "node %s", path)

		wantProps, err := want.Properties(ctx, path)
		require.NoError(t, err)
		gotProps, err := got.Properties(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, wantProps, gotProps, "properties of %s", path)

		for _, layer := range wantLayers {
			id := layer.Identifier
			wantSpec, wantOK, err := want.PrimSpec(ctx, id, path)
			require.NoError(t, err)
			gotSpec, gotOK, err := got.PrimSpec(ctx, id, path)
			require.NoError(t, err)
			assert.Equal(t, wantOK, gotOK, "spec of %s in %s", path, id)
			assert.Equal(t, wantSpec, gotSpec, "spec of %s in %s", path, id)

			wantMD, err := want.Metadata(ctx, id, path, "")
			require.NoError(t, err)
			gotMD, err := got.Metadata(ctx, id, path, "")
			require.NoError(t, err)
			assert.ElementsMatch(t, wantMD, gotMD, "metadata of %s in %s", path, id)

			for _, prop := range wantProps {
				wantHas, err := want.HasOpinion(ctx, id, path, prop.Name)
				require.NoError(t, err)
				gotHas, err := got.HasOpinion(ctx, id, path, prop.Name)
				require.NoError(t, err)
				assert.Equal(t, wantHas, gotHas, "opinion on %s.%s in %s", path, prop.Name, id)
				if wantHas {
					wantOp, err := want.Opinion(ctx, id, path, prop.Name)
					require.NoError(t, err)
					gotOp, err := got.Opinion(ctx, id, path, prop.Name)
					require.NoError(t, err)
					assert.Equal(t, wantOp, gotOp)
				}
			}
		}

		wantChildren, err := want.Children(ctx, path)
		require.NoError(t, err)
		gotChildren, err := got.Children(ctx, path)
		require.NoError(t, err)
		require.Equal(t, wantChildren, gotChildren, "children of %s", path)
		for _, child := range wantChildren {
			walk(child)
		}
	}
	walk(domain.RootPath)
}

func TestExport_MemoryStage(t *testing.T) {
	src := sampleStage()
	doc, stats := exportAndOpen(t, src)

	assertSameDocument(t, src, doc)
	assert.Equal(t, 2, stats.Layers)
	assert.Equal(t, 2, stats.Samples)
}

func TestExport_YAMLStage(t *testing.T) {
	src, err := yamlstage.NewLoader().Open(context.Background(),
		filepath.Join("..", "yamlstage", "testdata", "shot.yaml"))
	require.NoError(t, err)
	defer src.Close()

	doc, _ := exportAndOpen(t, src)
	assertSameDocument(t, src, doc)
}

func TestDocument_Queries(t *testing.T) {
	doc, _ := exportAndOpen(t, sampleStage())
	ctx := context.Background()

	children, err := doc.Children(ctx, "/x")
	require.NoError(t, err)
	assert.Equal(t, []domain.Path{"/x/child", "/x/other"}, children)

	node, err := doc.Node(ctx, "/x")
	require.NoError(t, err)
	assert.Equal(t, domain.SpecifierDef, node.Specifier, "over in A yields to def in B")
	assert.Equal(t, "Xform", node.TypeName)

	has, err := doc.HasOpinion(ctx, "B", "/x", "r")
	require.NoError(t, err)
	assert.False(t, has, "declared only")

	_, err = doc.Opinion(ctx, "B", "/x", "r")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	op, err := doc.Opinion(ctx, "A", "/x", "q")
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeCode{0, 10}, op.SampleTimes())

	rel, err := doc.Opinion(ctx, "B", "/x", "material:binding")
	require.NoError(t, err)
	assert.Equal(t, domain.PropertyRelationship, rel.Kind)
	require.NotNil(t, rel.Default)
	assert.Equal(t, domain.ArrayValue(domain.PathValue("/looks/red")), *rel.Default)
}

func TestDocument_Errors(t *testing.T) {
	doc, _ := exportAndOpen(t, sampleStage())
	ctx := context.Background()

	_, err := doc.Children(ctx, "/missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = doc.Node(ctx, "/missing")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, _, err = doc.PrimSpec(ctx, "C", "/x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = doc.Metadata(ctx, "C", "/x", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = doc.Children(cancelled, "/x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocument_ThroughSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.usdb")
	_, err := Export(context.Background(), sampleStage(), path)
	require.NoError(t, err)

	ctx := context.Background()
	session, err := services.OpenSession(ctx, NewLoader(), path)
	require.NoError(t, err)
	defer session.Close()

	v, found, err := session.Sample(ctx, "/x", "q", 5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.FloatValue(1.5), v.Value)
	assert.Equal(t, "A", v.Layer.Identifier)

	set, found, err := session.Resolve(ctx, "/x", "q")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, set.Layers, 2)
}

func TestExport_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.usdb")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	_, err := Export(context.Background(), sampleStage(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestExport_SourceFailureRemovesBundle(t *testing.T) {
	src := sampleStage()
	src.SetHook(func(_ context.Context, query string) error {
		if query == memory.QueryOpinion {
			return domain.ErrDocumentUnavailable
		}
		return nil
	})
	path := filepath.Join(t.TempDir(), "stage.usdb")

	_, err := Export(context.Background(), src, path)
	assert.ErrorIs(t, err, domain.ErrDocumentUnavailable)
	assert.NoFileExists(t, path)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	notSQLite := filepath.Join(dir, "text.usdb")
	require.NoError(t, os.WriteFile(notSQLite, []byte("hello"), 0o600))

	emptyDB := filepath.Join(dir, "empty.usdb")
	db, err := sql.Open("sqlite", emptyDB)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE other (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	tests := []struct {
		name     string
		location string
	}{
		{"missing file", filepath.Join(dir, "nope.usdb")},
		{"not sqlite", notSQLite},
		{"not a bundle", emptyDB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Open(context.Background(), tt.location)
			assert.ErrorIs(t, err, domain.ErrDocumentUnavailable)
		})
	}
}

func TestLoader_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stage.usdb")
	_, err := Export(context.Background(), sampleStage(), path)
	require.NoError(t, err)

	doc, err := NewLoader().Open(context.Background(), path)
	require.NoError(t, err)
	defer doc.Close()

	_, err = doc.(*Document).db.Exec("DELETE FROM layers")
	assert.Error(t, err)
}
