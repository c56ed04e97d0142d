// Package cache provides LRU caching for blob blocks.
//
// Remote blob stores (S3, MinIO) pay a round trip per read; the block
// cache keeps recently fetched blocks in memory so repeated snapshot
// reads hit local data. Local mmap-backed stores do not need it.
package cache

import "context"

// Key identifies a cached block. Keys must be stable across processes:
// the same blob name and block index always map to the same key.
type Key struct {
	// Name identifies the source blob.
	Name string
	// Block is the block index within the blob.
	Block uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must
	// treat b as immutable.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns hit/miss counters.
	Stats() (hits, misses int64)
}
