package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBackend прогоняет общий набор проверок Backend.
// advance сдвигает время хранилища вперёд (для TTL).
func testBackend(t *testing.T, b Backend, advance func(time.Duration)) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, ok, err := b.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "k1", "v1"))
		require.NoError(t, b.Set(ctx, "k1", "v2"))

		v, ok, err := b.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", v)
	})

	t.Run("mget", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "m1", "a"))
		require.NoError(t, b.Set(ctx, "m3", "c"))

		values, err := b.MGet(ctx, []string{"m1", "m2", "m3"})
		require.NoError(t, err)
		require.Len(t, values, 3)
		require.NotNil(t, values[0])
		assert.Equal(t, "a", *values[0])
		assert.Nil(t, values[1])
		require.NotNil(t, values[2])
		assert.Equal(t, "c", *values[2])

		empty, err := b.MGet(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("setnx single winner", func(t *testing.T) {
		ok, err := b.SetNX(ctx, "lock1", "1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.SetNX(ctx, "lock1", "1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("setnx concurrent", func(t *testing.T) {
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := b.SetNX(ctx, "lock-race", "1", time.Minute)
				if err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("setnx after expiry", func(t *testing.T) {
		ok, err := b.SetNX(ctx, "lock2", "1", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		advance(2 * time.Second)

		_, present, err := b.Get(ctx, "lock2")
		require.NoError(t, err)
		assert.False(t, present, "expired key must not be visible")

		ok, err = b.SetNX(ctx, "lock2", "1", time.Second)
		require.NoError(t, err)
		assert.True(t, ok, "expired lock must be acquirable again")
	})

	t.Run("batch", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "b-del", "x"))

		err := b.Batch(ctx, []Op{
			SetOp("b-1", "one"),
			SetOp("b-2", "two"),
			DeleteOp("b-del"),
			DeleteOp("b-never-existed"),
		})
		require.NoError(t, err)

		values, err := b.MGet(ctx, []string{"b-1", "b-2", "b-del"})
		require.NoError(t, err)
		require.NotNil(t, values[0])
		require.NotNil(t, values[1])
		assert.Equal(t, "one", *values[0])
		assert.Equal(t, "two", *values[1])
		assert.Nil(t, values[2])
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, b.Ping(ctx))
	})
}
