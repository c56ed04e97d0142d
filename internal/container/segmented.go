// Package container implements container data structures.
package container

import (
	"iter"
	"math/bits"
)

// DefaultSegmentSize is the per-segment element capacity used when the
// caller does not specify one.
const DefaultSegmentSize = 1024

// Segmented is an append-only segmented array. Elements are stored in
// fixed-capacity segments, so growth allocates a new segment instead of
// relocating existing elements: the address returned by Append stays
// valid and unchanged for the lifetime of the array.
//
// This is what makes it suitable as arena backing storage. A plain slice
// would invalidate every outstanding pointer on reallocation.
//
// Segmented is not safe for concurrent use; callers serialize access.
type Segmented[T any] struct {
	shift uint
	mask  uint32
	segs  [][]T
	len   int
}

// NewSegmented creates a segmented array whose segments hold segmentSize
// elements, rounded up to the next power of two. A segmentSize <= 0
// selects DefaultSegmentSize.
func NewSegmented[T any](segmentSize int) *Segmented[T] {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}

	// Round up to a power of two so index math is shift and mask.
	shift := uint(bits.Len(uint(segmentSize - 1)))

	return &Segmented[T]{
		shift: shift,
		mask:  uint32(1<<shift - 1),
	}
}

// SegmentSize returns the element capacity of a single segment.
func (s *Segmented[T]) SegmentSize() int { return 1 << s.shift }

// Len returns the number of appended elements.
func (s *Segmented[T]) Len() int { return s.len }

// Cap returns the number of element slots currently allocated.
func (s *Segmented[T]) Cap() int { return len(s.segs) << s.shift }

// Segments returns the number of allocated segments.
func (s *Segmented[T]) Segments() int { return len(s.segs) }

// AtCapacity reports whether the next Append must allocate a segment.
func (s *Segmented[T]) AtCapacity() bool { return s.len == s.Cap() }

// Append stores v and returns the address of the stored element. The
// address remains valid for the lifetime of the array: later appends
// never relocate earlier elements.
func (s *Segmented[T]) Append(v T) *T {
	if s.AtCapacity() {
		s.segs = append(s.segs, make([]T, 0, 1<<s.shift))
	}

	seg := &s.segs[len(s.segs)-1]
	*seg = append(*seg, v)
	s.len++

	return &(*seg)[len(*seg)-1]
}

// At returns the address of the element at index i.
func (s *Segmented[T]) At(i uint32) (*T, bool) {
	if int64(i) >= int64(s.len) {
		return nil, false
	}

	seg := s.segs[i>>s.shift]

	return &seg[i&s.mask], true
}

// All iterates elements in append order, yielding each index and the
// element's stable address.
func (s *Segmented[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		var i uint32
		for _, seg := range s.segs {
			for j := range seg {
				if !yield(i, &seg[j]) {
					return
				}
				i++
			}
		}
	}
}
