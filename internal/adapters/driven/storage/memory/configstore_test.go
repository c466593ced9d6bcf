package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("engine.workers", 2))
	require.NoError(t, store.Set("engine.workers", 8))

	val, ok := store.Get("engine.workers")
	assert.True(t, ok)
	assert.Equal(t, 8, val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("name", "value"))
	require.NoError(t, store.Set("number", 42))

	assert.Equal(t, "value", store.GetString("name"))
	assert.Empty(t, store.GetString("number"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_GetInt(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected int
	}{
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"float64 truncates", 3.9, 3},
		{"wrong type", "42", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("key", tt.value))
			assert.Equal(t, tt.expected, store.GetInt("key"))
		})
	}
}

func TestConfigStore_GetFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{"float64", 0.5, 0.5},
		{"float32", float32(0.25), 0.25},
		{"int widens", 30, 30},
		{"int64 widens", int64(24), 24},
		{"wrong type", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("key", tt.value))
			assert.InDelta(t, tt.expected, store.GetFloat("key"), 1e-9)
		})
	}

	assert.Zero(t, NewConfigStore().GetFloat("missing"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("on", true))
	require.NoError(t, store.Set("off", false))
	require.NoError(t, store.Set("text", "true"))

	assert.True(t, store.GetBool("on"))
	assert.False(t, store.GetBool("off"))
	assert.False(t, store.GetBool("text"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_SaveAndLoad(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("key", "value"))

	require.NoError(t, store.Save())
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())

	assert.Equal(t, 2, store.Saves())
	assert.Equal(t, "value", store.GetString("key"))
}

func TestConfigStore_Concurrency_SetAndGet(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key%d", i)))
	}
}
