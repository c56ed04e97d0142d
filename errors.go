package termgo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is the panic value of a Make operation on a closed arena.
	ErrClosed = errors.New("termgo: arena is closed")

	// ErrBudgetExceeded is the panic value of a Make operation that would
	// exceed the arena's node budget. Running out of node storage is a
	// hard failure: factories never return errors, callers size budgets.
	ErrBudgetExceeded = errors.New("termgo: node budget exceeded")

	// ErrArenaFull is the panic value of a Make operation that would
	// exceed the per-kind index space (MaxNodeIndex nodes of one kind).
	ErrArenaFull = errors.New("termgo: node index space exhausted")

	// ErrInvalidRef is returned when resolving a ref that does not
	// identify a node in the target arena: the zero Ref, a ref whose
	// kind the arena does not store, or an out-of-range index.
	ErrInvalidRef = errors.New("termgo: invalid ref")

	// ErrForeignRef is returned when resolving a ref minted by a
	// different arena.
	ErrForeignRef = errors.New("termgo: ref belongs to a different arena")
)

// RefError reports a handle that failed validation against an arena.
//
// The underlying cause (ErrForeignRef or ErrInvalidRef) can be accessed
// via errors.Unwrap and matched with errors.Is.
type RefError struct {
	Ref   Ref
	Arena ArenaID
	cause error
}

func (e *RefError) Error() string {
	return fmt.Sprintf("resolve %s in arena %d: %s", e.Ref, e.Arena, e.cause)
}

func (e *RefError) Unwrap() error { return e.cause }

func newRefError(ref Ref, arena ArenaID, cause error) *RefError {
	return &RefError{Ref: ref, Arena: arena, cause: cause}
}
