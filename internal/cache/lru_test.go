package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(1024)

	key := Key{Name: "snap-000001", Block: 0}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, []byte("hello"))

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(32)

	// Each block is 16 bytes; capacity holds two.
	block := make([]byte, 16)
	for i := 0; i < 3; i++ {
		c.Set(ctx, Key{Name: "b", Block: uint64(i)}, block)
	}

	assert.Equal(t, int64(32), c.Size())

	// Oldest block must be gone.
	_, ok := c.Get(ctx, Key{Name: "b", Block: 0})
	assert.False(t, ok)

	_, ok = c.Get(ctx, Key{Name: "b", Block: 2})
	assert.True(t, ok)
}

func TestLRURecencyOrder(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(32)

	block := make([]byte, 16)
	c.Set(ctx, Key{Name: "b", Block: 0}, block)
	c.Set(ctx, Key{Name: "b", Block: 1}, block)

	// Touch block 0 so block 1 becomes the eviction candidate.
	_, ok := c.Get(ctx, Key{Name: "b", Block: 0})
	require.True(t, ok)

	c.Set(ctx, Key{Name: "b", Block: 2}, block)

	_, ok = c.Get(ctx, Key{Name: "b", Block: 0})
	assert.True(t, ok)
	_, ok = c.Get(ctx, Key{Name: "b", Block: 1})
	assert.False(t, ok)
}

func TestLRUOversizedBlockNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(8)

	c.Set(ctx, Key{Name: "b", Block: 0}, make([]byte, 64))

	_, ok := c.Get(ctx, Key{Name: "b", Block: 0})
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Size())
}

func TestLRUInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(1024)

	for i := 0; i < 4; i++ {
		c.Set(ctx, Key{Name: "keep", Block: uint64(i)}, []byte{1})
		c.Set(ctx, Key{Name: "drop", Block: uint64(i)}, []byte{2})
	}

	c.Invalidate(func(key Key) bool { return key.Name == "drop" })

	for i := 0; i < 4; i++ {
		_, ok := c.Get(ctx, Key{Name: "keep", Block: uint64(i)})
		assert.True(t, ok, fmt.Sprintf("keep/%d evicted", i))

		_, ok = c.Get(ctx, Key{Name: "drop", Block: uint64(i)})
		assert.False(t, ok, fmt.Sprintf("drop/%d survived", i))
	}
}

func TestLRUUpdateExisting(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(64)

	key := Key{Name: "b", Block: 0}
	c.Set(ctx, key, []byte("short"))
	c.Set(ctx, key, []byte("a longer replacement value"))

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("a longer replacement value"), got)
	assert.Equal(t, int64(len("a longer replacement value")), c.Size())
}
