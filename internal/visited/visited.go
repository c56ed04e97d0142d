// Package visited provides traversal bookkeeping for node graphs.
package visited

// Set tracks visited node indices using a bitset and a dirty list, so a
// Reset costs O(visited) instead of O(capacity). Indices are dense per
// node kind, which keeps the bitset small.
type Set struct {
	bits  []uint64
	dirty []uint32
}

// New creates a set sized for capacity indices. The set grows on demand
// when an index beyond the capacity is visited.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]uint32, 0, 128),
	}
}

// Visit marks id as visited and reports whether it was unvisited before,
// making it a test-and-set for traversal loops.
func (s *Set) Visit(id uint32) bool {
	wordIdx := int(id >> 6)
	bitMask := uint64(1) << (id & 63)

	if wordIdx >= len(s.bits) {
		s.grow(wordIdx + 1)
	}

	if s.bits[wordIdx]&bitMask != 0 {
		return false
	}

	s.bits[wordIdx] |= bitMask
	s.dirty = append(s.dirty, id)

	return true
}

// Visited reports whether id has been visited.
func (s *Set) Visited(id uint32) bool {
	wordIdx := int(id >> 6)
	if wordIdx >= len(s.bits) {
		return false
	}

	return s.bits[wordIdx]&(uint64(1)<<(id&63)) != 0
}

// Reset clears every index visited since the last reset.
func (s *Set) Reset() {
	for _, id := range s.dirty {
		s.bits[id>>6] &^= uint64(1) << (id & 63)
	}
	s.dirty = s.dirty[:0]
}

func (s *Set) grow(newLen int) {
	newCap := len(s.bits) * 2
	if newCap < newLen {
		newCap = newLen
	}

	newBits := make([]uint64, newCap)
	copy(newBits, s.bits)
	s.bits = newBits
}
