package termgo

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/termgo/symbol"
)

func TestStmtFactories(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena()
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	id := terms.MakeAbstraction(x, x)
	name := terms.MakeVariable(syms.Intern("id"))

	decl := stmts.MakeDeclaration(name, id)
	eval := stmts.MakeEvaluation(id)

	assert.Same(t, name, decl.Var())
	assert.Same(t, id, decl.Definition())
	assert.Same(t, id, eval.Term(), "the definition and the evaluation share one node")

	assert.Equal(t, KindDeclaration, decl.Kind())
	assert.Equal(t, KindEvaluation, eval.Kind())
	assert.Equal(t, stmts.ID(), decl.Ref().Arena())
	assert.Equal(t, uint32(0), decl.Ref().Index())
	assert.Equal(t, uint32(0), eval.Ref().Index())
}

func TestStmtResolution(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena()
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	decl := stmts.MakeDeclaration(x, x)
	eval := stmts.MakeEvaluation(x)

	got, err := stmts.Stmt(decl.Ref())
	require.NoError(t, err)
	assert.Same(t, decl, got)

	got, err = stmts.Stmt(eval.Ref())
	require.NoError(t, err)
	assert.Same(t, eval, got)

	// A term arena ref carries a different arena ID.
	_, err = stmts.Stmt(x.Ref())
	require.ErrorIs(t, err, ErrForeignRef)

	_, err = stmts.Stmt(Ref{})
	require.ErrorIs(t, err, ErrInvalidRef)

	_, err = stmts.Stmt(Ref{arena: stmts.id, node: newNodeID(KindVariable, 0)})
	require.ErrorIs(t, err, ErrInvalidRef)

	_, err = stmts.Stmt(Ref{arena: stmts.id, node: newNodeID(KindDeclaration, 7)})
	require.ErrorIs(t, err, ErrInvalidRef)
}

func TestStmtsCreationOrder(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena()
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	d0 := stmts.MakeDeclaration(x, x)
	e0 := stmts.MakeEvaluation(x)
	d1 := stmts.MakeDeclaration(x, x)

	assert.Equal(t, []Stmt{d0, e0, d1}, slices.Collect(stmts.Stmts()))
	assert.Equal(t, []*Declaration{d0, d1}, slices.Collect(stmts.Declarations()))
	assert.Equal(t, []*Evaluation{e0}, slices.Collect(stmts.Evaluations()))
}

func TestStmtArenaStats(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena(WithSegmentSize(2))
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	stmts.MakeDeclaration(x, x)
	stmts.MakeEvaluation(x)
	stmts.MakeEvaluation(x)
	stmts.MakeEvaluation(x)

	st := stmts.Stats()
	assert.Equal(t, 1, st.Declarations)
	assert.Equal(t, 3, st.Evaluations)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 3, st.Segments)
	assert.Equal(t, 6, st.Capacity)
}

func TestStmtArenaCloseAndBudget(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	syms := symbol.NewTable()
	x := terms.MakeVariable(syms.Intern("x"))

	t.Run("budget", func(t *testing.T) {
		stmts := NewStmtArena(WithMaxNodes(1))
		defer stmts.Close()

		stmts.MakeEvaluation(x)
		requirePanicsWithErrorIs(t, ErrBudgetExceeded, func() {
			stmts.MakeDeclaration(x, x)
		})
	})

	t.Run("closed", func(t *testing.T) {
		stmts := NewStmtArena()
		require.NoError(t, stmts.Close())
		require.NoError(t, stmts.Close())

		requirePanicsWithErrorIs(t, ErrClosed, func() {
			stmts.MakeEvaluation(x)
		})
	})
}
