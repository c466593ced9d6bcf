package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/usdinspect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

func TestOpinionResolver_SingleWeakOpinion(t *testing.T) {
	resolver, _ := newEngine(t, buildStage(), NewResolutionCache())

	set, found, err := resolver.Resolve(context.Background(), "/x", "p")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, set.Layers, 1)
	assert.Equal(t, "B", set.Winner().Identifier)
	assert.Equal(t, 1, set.Winner().Rank)
}

func TestOpinionResolver_StrongestFirst(t *testing.T) {
	resolver, _ := newEngine(t, buildStage(), NewResolutionCache())

	set, found, err := resolver.Resolve(context.Background(), "/x", "q")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, set.Layers, 2)
	assert.Equal(t, "A", set.Winner().Identifier)
	assert.Equal(t, "B", set.Layers[1].Identifier)
	for i := 1; i < len(set.Layers); i++ {
		assert.True(t, set.Layers[i-1].Stronger(set.Layers[i]))
	}
}

func TestOpinionResolver_Absent(t *testing.T) {
	resolver, _ := newEngine(t, buildStage(), NewResolutionCache())

	tests := []struct {
		name     string
		property string
	}{
		{"declared but unauthored", "r"},
		{"never declared", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, found, err := resolver.Resolve(context.Background(), "/x", tt.property)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, set.Layers)
		})
	}
}

func TestOpinionResolver_NodeNotFound(t *testing.T) {
	resolver, _ := newEngine(t, buildStage(), NewResolutionCache())

	_, found, err := resolver.Resolve(context.Background(), "/missing", "p")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.False(t, found)
}

func TestOpinionResolver_Idempotent(t *testing.T) {
	for _, cache := range []*ResolutionCache{NewResolutionCache(), NewResolutionCache(WithCacheDisabled())} {
		resolver, _ := newEngine(t, buildStage(), cache)

		first, _, err := resolver.Resolve(context.Background(), "/x", "q")
		require.NoError(t, err)
		second, _, err := resolver.Resolve(context.Background(), "/x", "q")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestOpinionResolver_CacheTransparency(t *testing.T) {
	cached, _ := newEngine(t, buildStage(), NewResolutionCache())
	direct, _ := newEngine(t, buildStage(), NewResolutionCache(WithCacheDisabled()))
	ctx := context.Background()

	for _, property := range []string{"p", "q", "r", "label", "blob", "material:binding", "nope"} {
		for range 2 {
			a, foundA, errA := cached.Resolve(ctx, "/x", property)
			b, foundB, errB := direct.Resolve(ctx, "/x", property)
			assert.Equal(t, errA, errB, property)
			assert.Equal(t, foundA, foundB, property)
			assert.Equal(t, a, b, property)
		}
	}
}

func TestOpinionResolver_ConcurrentCallersQueryOnce(t *testing.T) {
	doc := buildStage()
	resolver, _ := newEngine(t, doc, NewResolutionCache())

	const callers = 64
	results := make([]domain.ResolvedOpinionSet, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, _, err := resolver.Resolve(context.Background(), "/x", "q")
			assert.NoError(t, err)
			results[i] = set
		}()
	}
	wg.Wait()

	// One resolution asks each of the two layers once.
	assert.Equal(t, int64(2), doc.OpinionQueries("/x", "q"))
	assert.Equal(t, int64(1), doc.Queries(memory.QueryHasNode))
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestOpinionResolver_ProviderErrorPropagates(t *testing.T) {
	doc := buildStage()
	doc.SetHook(func(_ context.Context, query string) error {
		if query == memory.QueryHasOpinion {
			return domain.ErrDocumentUnavailable
		}
		return nil
	})
	resolver, _ := newEngine(t, doc, NewResolutionCache())

	_, _, err := resolver.Resolve(context.Background(), "/x", "p")
	assert.ErrorIs(t, err, domain.ErrDocumentUnavailable)

	doc.SetHook(nil)
	_, found, err := resolver.Resolve(context.Background(), "/x", "p")
	require.NoError(t, err)
	assert.True(t, found)
}
