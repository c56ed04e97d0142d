package termgo

import (
	"iter"

	"github.com/hupe1980/termgo/internal/container"
)

// StmtArena owns Declaration and Evaluation nodes. It follows the same
// storage contract as TermArena: stable addresses, append-only growth,
// exclusive ownership of its nodes, a single builder.
//
// Statements link to term nodes owned by a TermArena. Those links are
// non-owning; the statement arena never manages term storage, and the
// referenced term arena must outlive the statements.
type StmtArena struct {
	arena
	decls *container.Segmented[Declaration]
	evals *container.Segmented[Evaluation]
}

// NewStmtArena creates an empty statement arena.
func NewStmtArena(optFns ...Option) *StmtArena {
	a := &StmtArena{arena: newArena(optFns)}
	a.decls = container.NewSegmented[Declaration](a.opts.segmentSize)
	a.evals = container.NewSegmented[Evaluation](a.opts.segmentSize)

	a.opts.logger.Debug("stmt arena created",
		"arena", uint32(a.id),
		"segment_size", a.decls.SegmentSize(),
	)

	return a
}

// ID returns the arena's process-unique identity.
func (a *StmtArena) ID() ArenaID { return a.id }

// Len returns the number of nodes the arena holds across all kinds.
func (a *StmtArena) Len() int { return len(a.order) }

// MakeDeclaration appends a declaration binding v to def and returns its
// stable address. Both links are non-owning.
func (a *StmtArena) MakeDeclaration(v *Variable, def Term) *Declaration {
	d, ref := appendNode(&a.arena, a.decls, KindDeclaration, Declaration{v: v, def: def})
	d.ref = ref
	return d
}

// MakeEvaluation appends an evaluation of t and returns its stable
// address. The link is non-owning.
func (a *StmtArena) MakeEvaluation(t Term) *Evaluation {
	e, ref := appendNode(&a.arena, a.evals, KindEvaluation, Evaluation{term: t})
	e.ref = ref
	return e
}

// Stmt resolves ref to the node it identifies, validating that the ref
// was minted by this arena. See TermArena.Term for the error contract.
func (a *StmtArena) Stmt(ref Ref) (Stmt, error) {
	s, err := a.resolveStmt(ref)
	a.opts.metrics.RecordResolve(ref.Kind(), err)
	if err != nil {
		a.opts.logger.LogResolve(ref, err)
		return nil, err
	}
	return s, nil
}

func (a *StmtArena) resolveStmt(ref Ref) (Stmt, error) {
	if !ref.IsValid() {
		return nil, newRefError(ref, a.id, ErrInvalidRef)
	}
	if ref.Arena() != a.id {
		return nil, newRefError(ref, a.id, ErrForeignRef)
	}

	switch ref.Kind() {
	case KindDeclaration:
		if d, ok := a.decls.At(ref.Index()); ok {
			return d, nil
		}
	case KindEvaluation:
		if e, ok := a.evals.At(ref.Index()); ok {
			return e, nil
		}
	}

	return nil, newRefError(ref, a.id, ErrInvalidRef)
}

// Declarations iterates declaration nodes in creation order.
func (a *StmtArena) Declarations() iter.Seq[*Declaration] {
	return func(yield func(*Declaration) bool) {
		for _, d := range a.decls.All() {
			if !yield(d) {
				return
			}
		}
	}
}

// Evaluations iterates evaluation nodes in creation order.
func (a *StmtArena) Evaluations() iter.Seq[*Evaluation] {
	return func(yield func(*Evaluation) bool) {
		for _, e := range a.evals.All() {
			if !yield(e) {
				return
			}
		}
	}
}

// Stmts iterates every node in creation order across kinds.
func (a *StmtArena) Stmts() iter.Seq[Stmt] {
	return func(yield func(Stmt) bool) {
		for _, id := range a.order {
			var s Stmt
			switch id.Kind() {
			case KindDeclaration:
				d, _ := a.decls.At(id.Index())
				s = d
			case KindEvaluation:
				e, _ := a.evals.At(id.Index())
				s = e
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Stats returns a snapshot of arena occupancy.
func (a *StmtArena) Stats() StmtArenaStats {
	return StmtArenaStats{
		Declarations: a.decls.Len(),
		Evaluations:  a.evals.Len(),
		Nodes:        len(a.order),
		Segments:     a.decls.Segments() + a.evals.Segments(),
		Capacity:     a.decls.Cap() + a.evals.Cap(),
	}
}

// Close releases the arena's budget reservations and invalidates the
// arena. See TermArena.Close.
func (a *StmtArena) Close() error {
	a.close()
	return nil
}
