package termgo

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/hupe1980/termgo/internal/container"
	"github.com/hupe1980/termgo/symbol"
)

// Arena IDs come from a process-global counter, so a ref minted by one
// arena can never validate against another.
var arenaIDs atomic.Uint32

func newArenaID() ArenaID { return ArenaID(arenaIDs.Add(1)) }

// arena carries the state shared by TermArena and StmtArena: identity,
// configuration, the cross-kind creation order, and budget accounting.
type arena struct {
	id       ArenaID
	opts     options
	order    []NodeID
	acquired int64
	closed   bool
}

func newArena(optFns []Option) arena {
	return arena{id: newArenaID(), opts: applyOptions(optFns)}
}

func (a *arena) ref(kind Kind, index uint32) Ref {
	return Ref{arena: a.id, node: newNodeID(kind, index)}
}

// appendNode is the single growth mechanism behind every factory: append
// v to s and return the address of the stored element plus its handle.
// Segments never relocate, so the address stays valid for the arena's
// lifetime no matter how many nodes follow.
func appendNode[T any](a *arena, s *container.Segmented[T], kind Kind, v T) (*T, Ref) {
	if a.closed {
		panic(ErrClosed)
	}
	if a.opts.maxNodes > 0 && len(a.order) >= a.opts.maxNodes {
		panic(fmt.Errorf("%w: arena %d at its cap of %d nodes", ErrBudgetExceeded, a.id, a.opts.maxNodes))
	}
	if s.Len() > MaxNodeIndex {
		panic(fmt.Errorf("%w: no %s index left", ErrArenaFull, kind))
	}

	if s.AtCapacity() {
		a.reserve(s.SegmentSize(), kind)
	}

	ptr := s.Append(v)
	r := a.ref(kind, uint32(s.Len()-1))
	a.order = append(a.order, r.node)
	a.opts.metrics.RecordMake(kind)

	return ptr, r
}

// reserve charges one segment's worth of node slots to the resource
// controller before the segment is allocated.
func (a *arena) reserve(n int, kind Kind) {
	if a.opts.resource != nil {
		if !a.opts.resource.TryAcquireNodes(int64(n)) {
			panic(fmt.Errorf("%w: controller rejected %d node slots", ErrBudgetExceeded, n))
		}
		a.acquired += int64(n)
	}

	a.opts.logger.Debug("segment allocated",
		"arena", uint32(a.id),
		"kind", kind.String(),
		"nodes", n,
	)
}

func (a *arena) close() {
	if a.closed {
		return
	}
	a.closed = true

	if a.opts.resource != nil && a.acquired > 0 {
		a.opts.resource.ReleaseNodes(a.acquired)
		a.acquired = 0
	}

	a.opts.logger.LogClose(a.id, len(a.order))
}

// TermArena owns Variable, Abstraction, and Application nodes.
//
// Nodes are created through the Make operations and live in segmented
// storage: a returned address stays valid and unchanged for the arena's
// lifetime, no matter how many nodes follow. Arenas are append-only;
// nodes are never removed or mutated after creation, and the whole arena
// is torn down together by Close.
//
// Links between nodes are non-owning. Factories never copy their
// arguments, so a term passed to two factories is shared, not duplicated.
// Arguments must be non-nil nodes of this arena; passing nodes of another
// arena or using addresses after Close is undefined behavior at the
// pointer level. Resolve refs with Term to get validation instead.
//
// A TermArena is not safe for concurrent use: a single builder appends.
// Concurrent readers are fine once building is done.
type TermArena struct {
	arena
	vars *container.Segmented[Variable]
	abs  *container.Segmented[Abstraction]
	apps *container.Segmented[Application]
}

// NewTermArena creates an empty term arena.
func NewTermArena(optFns ...Option) *TermArena {
	a := &TermArena{arena: newArena(optFns)}
	a.vars = container.NewSegmented[Variable](a.opts.segmentSize)
	a.abs = container.NewSegmented[Abstraction](a.opts.segmentSize)
	a.apps = container.NewSegmented[Application](a.opts.segmentSize)

	a.opts.logger.Debug("term arena created",
		"arena", uint32(a.id),
		"segment_size", a.vars.SegmentSize(),
	)

	return a
}

// ID returns the arena's process-unique identity.
func (a *TermArena) ID() ArenaID { return a.id }

// Len returns the number of nodes the arena holds across all kinds.
func (a *TermArena) Len() int { return len(a.order) }

// MakeVariable appends a variable node referencing sym and returns its
// stable address. The symbol stays owned by the caller.
func (a *TermArena) MakeVariable(sym *symbol.Symbol) *Variable {
	v, ref := appendNode(&a.arena, a.vars, KindVariable, Variable{sym: sym})
	v.ref = ref
	return v
}

// MakeAbstraction appends an abstraction node binding param over body and
// returns its stable address. Both links are non-owning.
func (a *TermArena) MakeAbstraction(param *Variable, body Term) *Abstraction {
	ab, ref := appendNode(&a.arena, a.abs, KindAbstraction, Abstraction{param: param, body: body})
	ab.ref = ref
	return ab
}

// MakeApplication appends an application node of left to right and
// returns its stable address. Both links are non-owning.
func (a *TermArena) MakeApplication(left, right Term) *Application {
	ap, ref := appendNode(&a.arena, a.apps, KindApplication, Application{left: left, right: right})
	ap.ref = ref
	return ap
}

// Term resolves ref to the node it identifies. Unlike raw node pointers,
// refs are validated: a ref minted by another arena fails with
// ErrForeignRef, and a malformed or out-of-range ref fails with
// ErrInvalidRef. Both surface as *RefError.
func (a *TermArena) Term(ref Ref) (Term, error) {
	t, err := a.resolveTerm(ref)
	a.opts.metrics.RecordResolve(ref.Kind(), err)
	if err != nil {
		a.opts.logger.LogResolve(ref, err)
		return nil, err
	}
	return t, nil
}

func (a *TermArena) resolveTerm(ref Ref) (Term, error) {
	if !ref.IsValid() {
		return nil, newRefError(ref, a.id, ErrInvalidRef)
	}
	if ref.Arena() != a.id {
		return nil, newRefError(ref, a.id, ErrForeignRef)
	}

	switch ref.Kind() {
	case KindVariable:
		if v, ok := a.vars.At(ref.Index()); ok {
			return v, nil
		}
	case KindAbstraction:
		if ab, ok := a.abs.At(ref.Index()); ok {
			return ab, nil
		}
	case KindApplication:
		if ap, ok := a.apps.At(ref.Index()); ok {
			return ap, nil
		}
	}

	return nil, newRefError(ref, a.id, ErrInvalidRef)
}

// Variables iterates variable nodes in creation order.
func (a *TermArena) Variables() iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		for _, v := range a.vars.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Abstractions iterates abstraction nodes in creation order.
func (a *TermArena) Abstractions() iter.Seq[*Abstraction] {
	return func(yield func(*Abstraction) bool) {
		for _, ab := range a.abs.All() {
			if !yield(ab) {
				return
			}
		}
	}
}

// Applications iterates application nodes in creation order.
func (a *TermArena) Applications() iter.Seq[*Application] {
	return func(yield func(*Application) bool) {
		for _, ap := range a.apps.All() {
			if !yield(ap) {
				return
			}
		}
	}
}

// Terms iterates every node in creation order across kinds. Links always
// point to earlier nodes, so the order is a valid replay order for
// downstream passes.
func (a *TermArena) Terms() iter.Seq[Term] {
	return func(yield func(Term) bool) {
		for _, id := range a.order {
			var t Term
			switch id.Kind() {
			case KindVariable:
				v, _ := a.vars.At(id.Index())
				t = v
			case KindAbstraction:
				ab, _ := a.abs.At(id.Index())
				t = ab
			case KindApplication:
				ap, _ := a.apps.At(id.Index())
				t = ap
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Stats returns a snapshot of arena occupancy.
func (a *TermArena) Stats() TermArenaStats {
	return TermArenaStats{
		Variables:    a.vars.Len(),
		Abstractions: a.abs.Len(),
		Applications: a.apps.Len(),
		Nodes:        len(a.order),
		Segments:     a.vars.Segments() + a.abs.Segments() + a.apps.Segments(),
		Capacity:     a.vars.Cap() + a.abs.Cap() + a.apps.Cap(),
	}
}

// Close releases the arena's budget reservations and invalidates the
// arena: every address it ever returned is dead, and later Make
// operations panic with ErrClosed. Close is idempotent.
func (a *TermArena) Close() error {
	a.close()
	return nil
}
