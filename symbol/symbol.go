// Package symbol provides interned identifiers for lambda term graphs.
//
// A Table deduplicates spellings: interning the same name twice returns the
// same *Symbol, so downstream passes compare identities instead of strings.
// Symbols are owned by their Table and stay valid for the Table's lifetime.
// Node arenas reference symbols without taking ownership; keeping the Table
// alive while its symbols are referenced is the caller's job.
//
// A Table is safe for concurrent use. It is typically shared by every arena
// of a program, unlike the arenas themselves which expect a single builder.
package symbol

import (
	"iter"
	"sync"
)

// Symbol is an interned, immutable identifier.
type Symbol struct {
	name string
	idx  uint32
}

// Name returns the symbol's spelling.
func (s *Symbol) Name() string { return s.name }

// String implements fmt.Stringer.
func (s *Symbol) String() string { return s.name }

// Table interns symbols and owns them for its lifetime.
//
// The zero value is not usable; call NewTable.
type Table struct {
	mu     sync.RWMutex
	syms   []*Symbol
	byName map[string]*Symbol
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		byName: make(map[string]*Symbol),
	}
}

// Intern returns the symbol for name, creating it on first use.
// The returned pointer is stable: interning the same name again
// returns the identical *Symbol.
func (t *Table) Intern(name string) *Symbol {
	t.mu.RLock()
	s, ok := t.byName[name]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another goroutine may have interned name between the locks.
	if s, ok := t.byName[name]; ok {
		return s
	}

	s = &Symbol{name: name, idx: uint32(len(t.syms))}
	t.syms = append(t.syms, s)
	t.byName[name] = s

	return s
}

// Lookup returns the symbol for name if it has been interned.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byName[name]
	return s, ok
}

// At returns the symbol at interning index i.
func (t *Table) At(i uint32) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(i) >= len(t.syms) {
		return nil, false
	}

	return t.syms[i], true
}

// IndexOf returns the interning index of s. It reports false for nil
// and for symbols owned by a different table.
func (t *Table) IndexOf(s *Symbol) (uint32, bool) {
	if s == nil {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(s.idx) >= len(t.syms) || t.syms[s.idx] != s {
		return 0, false
	}

	return s.idx, true
}

// Len returns the number of interned symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.syms)
}

// All iterates symbols in interning order.
func (t *Table) All() iter.Seq2[uint32, *Symbol] {
	t.mu.RLock()
	syms := make([]*Symbol, len(t.syms))
	copy(syms, t.syms)
	t.mu.RUnlock()

	return func(yield func(uint32, *Symbol) bool) {
		for i, s := range syms {
			if !yield(uint32(i), s) {
				return
			}
		}
	}
}
