package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredCache_WriteThroughAndPromote(t *testing.T) {
	ctx := context.Background()
	l1 := newTestMemory(t)
	l2 := newTestMemory(t)
	lc := NewLayeredCache(l1, l2, time.Minute)

	require.NoError(t, lc.Set(ctx, "k", payload{Name: "EMA(12)", Value: 103.08}, time.Hour))

	ok, err := l2.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	// Drop L1 and read again: the value comes from L2 and is promoted.
	require.NoError(t, l1.Delete(ctx, "k"))
	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "EMA(12)", got.Name)

	ok, err = l1.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLayeredCache_MissAndDelete(t *testing.T) {
	ctx := context.Background()
	lc := NewLayeredCache(newTestMemory(t), newTestMemory(t), 0)

	var got payload
	assert.ErrorIs(t, lc.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, lc.Set(ctx, "k", payload{}, time.Hour))
	require.NoError(t, lc.Delete(ctx, "k"))
	ok, err := lc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayeredCache_LocalTTL(t *testing.T) {
	lc := NewLayeredCache(newTestMemory(t), newTestMemory(t), time.Minute)
	assert.Equal(t, time.Minute, lc.localTTL(time.Hour))
	assert.Equal(t, time.Second, lc.localTTL(time.Second))
	assert.Equal(t, time.Minute, lc.localTTL(0))
}
