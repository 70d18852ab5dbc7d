package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"coding.strict": false}
	store := NewConfigStore(seed)

	seed["coding.strict"] = true
	_, exists := store.Get("coding.strict")
	assert.True(t, exists)
	assert.False(t, store.GetBool("coding.strict"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":   "value",
		"i":   7,
		"i64": int64(8),
		"f":   9.0,
		"b":   true,
	})

	assert.Equal(t, "value", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i"))
	assert.Equal(t, 8, store.GetInt("i64"))
	assert.Equal(t, 9, store.GetInt("f"))
	assert.True(t, store.GetBool("b"))

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_SetAndKeys(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("b.key", 1))
	require.NoError(t, store.Set("a.key", "x"))
	require.NoError(t, store.Set("a.key", "y"))

	assert.Equal(t, []string{"a.key", "b.key"}, store.Keys())
	assert.Equal(t, "y", store.GetString("a.key"))
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("coding.history_size", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("coding.history_size")
		}()
	}
	wg.Wait()

	_, exists := store.Get("coding.history_size")
	assert.True(t, exists)
}
