package termgo

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/termgo/resource"
	"github.com/hupe1980/termgo/symbol"
)

// requirePanicsWithErrorIs asserts that fn panics and that the panic
// value is an error matching target.
func requirePanicsWithErrorIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, target)
	}()
	fn()
}

// Addresses handed out by the factories must survive arbitrary growth:
// segments are added, never relocated.
func TestTermArenaStableAddresses(t *testing.T) {
	a := NewTermArena(WithSegmentSize(2))
	defer a.Close()
	syms := symbol.NewTable()

	vars := make([]*Variable, 0, 100)
	for i := 0; i < 100; i++ {
		vars = append(vars, a.MakeVariable(syms.Intern(fmt.Sprintf("v%d", i))))
	}

	for i, v := range vars {
		got, ok := a.vars.At(uint32(i))
		require.True(t, ok)
		assert.Same(t, v, got)
		assert.Equal(t, fmt.Sprintf("v%d", i), v.Symbol().Name())
		assert.Equal(t, uint32(i), v.Ref().Index())
	}
	assert.Equal(t, 50, a.vars.Segments())
}

func TestMakeAbstractionIdentity(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	id := a.MakeAbstraction(x, x)

	assert.Same(t, x, id.Param())
	assert.Same(t, x, id.Body())
	assert.Equal(t, KindAbstraction, id.Kind())
	assert.Equal(t, a.ID(), id.Ref().Arena())
}

// Factories never copy their arguments. A term passed to two parents is
// one node with two incoming links, and links must not be disturbed by
// later allocations.
func TestSharedSubterm(t *testing.T) {
	a := NewTermArena(WithSegmentSize(2))
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	y := a.MakeVariable(syms.Intern("y"))
	inner := a.MakeApplication(x, y)
	left := a.MakeApplication(inner, x)
	right := a.MakeApplication(y, inner)

	for i := 0; i < 64; i++ {
		a.MakeVariable(syms.Intern(fmt.Sprintf("z%d", i)))
	}

	assert.Same(t, inner, left.Left())
	assert.Same(t, inner, right.Right())
	assert.Same(t, x, inner.Left())
	assert.Same(t, y, inner.Right())
}

// Each kind owns its own dense index space; interleaving kinds must not
// leave gaps in any of them.
func TestPerKindIndexSpaces(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	syms := symbol.NewTable()

	v0 := a.MakeVariable(syms.Intern("v0"))
	ab0 := a.MakeAbstraction(v0, v0)
	ap0 := a.MakeApplication(v0, ab0)
	v1 := a.MakeVariable(syms.Intern("v1"))
	ab1 := a.MakeAbstraction(v1, ap0)

	assert.Equal(t, uint32(0), v0.Ref().Index())
	assert.Equal(t, uint32(1), v1.Ref().Index())
	assert.Equal(t, uint32(0), ab0.Ref().Index())
	assert.Equal(t, uint32(1), ab1.Ref().Index())
	assert.Equal(t, uint32(0), ap0.Ref().Index())
	assert.Equal(t, 5, a.Len())
}

func TestArenaIdentity(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	b := NewTermArena()
	defer b.Close()
	syms := symbol.NewTable()

	assert.NotEqual(t, a.ID(), b.ID())

	v := a.MakeVariable(syms.Intern("x"))
	assert.Equal(t, a.ID(), v.Ref().Arena())

	_, err := b.Term(v.Ref())
	require.ErrorIs(t, err, ErrForeignRef)

	var refErr *RefError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, v.Ref(), refErr.Ref)
	assert.Equal(t, b.ID(), refErr.Arena)
}

func TestTermResolution(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	id := a.MakeAbstraction(x, x)
	app := a.MakeApplication(id, x)

	t.Run("valid", func(t *testing.T) {
		for _, n := range []Term{x, id, app} {
			got, err := a.Term(n.Ref())
			require.NoError(t, err)
			assert.Same(t, n, got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			ref  Ref
		}{
			{name: "zero ref", ref: Ref{}},
			{name: "kind not stored here", ref: Ref{arena: a.id, node: newNodeID(KindDeclaration, 0)}},
			{name: "index out of range", ref: Ref{arena: a.id, node: newNodeID(KindVariable, 99)}},
			{name: "missing arena tag", ref: Ref{node: newNodeID(KindVariable, 0)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := a.Term(tt.ref)
				require.ErrorIs(t, err, ErrInvalidRef)
			})
		}
	})
}

// Terms yields nodes in creation order across kinds, which puts every
// link target before the node linking to it.
func TestTermsCreationOrder(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	id := a.MakeAbstraction(x, x)
	y := a.MakeVariable(syms.Intern("y"))
	app := a.MakeApplication(id, y)

	want := []Term{x, id, y, app}
	assert.Equal(t, want, slices.Collect(a.Terms()))

	seen := make(map[Term]bool)
	for tm := range a.Terms() {
		switch n := tm.(type) {
		case *Abstraction:
			assert.True(t, seen[n.Param()], "param must precede the abstraction")
			assert.True(t, seen[n.Body()], "body must precede the abstraction")
		case *Application:
			assert.True(t, seen[n.Left()], "left must precede the application")
			assert.True(t, seen[n.Right()], "right must precede the application")
		}
		seen[tm] = true
	}
}

func TestPerKindIterators(t *testing.T) {
	a := NewTermArena()
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	y := a.MakeVariable(syms.Intern("y"))
	id := a.MakeAbstraction(x, x)
	app := a.MakeApplication(x, y)

	assert.Equal(t, []*Variable{x, y}, slices.Collect(a.Variables()))
	assert.Equal(t, []*Abstraction{id}, slices.Collect(a.Abstractions()))
	assert.Equal(t, []*Application{app}, slices.Collect(a.Applications()))

	for range a.Variables() {
		break
	}
	for range a.Terms() {
		break
	}
}

func TestTermArenaStats(t *testing.T) {
	a := NewTermArena(WithSegmentSize(2))
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	y := a.MakeVariable(syms.Intern("y"))
	z := a.MakeVariable(syms.Intern("z"))
	a.MakeAbstraction(x, y)
	_ = z

	st := a.Stats()
	assert.Equal(t, 3, st.Variables)
	assert.Equal(t, 1, st.Abstractions)
	assert.Equal(t, 0, st.Applications)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 3, st.Segments, "two variable segments plus one abstraction segment")
	assert.Equal(t, 6, st.Capacity)
}

func TestTermArenaClose(t *testing.T) {
	a := NewTermArena()
	syms := symbol.NewTable()
	x := a.MakeVariable(syms.Intern("x"))

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "close must be idempotent")

	requirePanicsWithErrorIs(t, ErrClosed, func() {
		a.MakeVariable(syms.Intern("y"))
	})
	requirePanicsWithErrorIs(t, ErrClosed, func() {
		a.MakeAbstraction(x, x)
	})
}

func TestMaxNodesBudget(t *testing.T) {
	a := NewTermArena(WithMaxNodes(2))
	defer a.Close()
	syms := symbol.NewTable()

	x := a.MakeVariable(syms.Intern("x"))
	a.MakeAbstraction(x, x)

	// The cap counts nodes across kinds.
	requirePanicsWithErrorIs(t, ErrBudgetExceeded, func() {
		a.MakeVariable(syms.Intern("y"))
	})
	requirePanicsWithErrorIs(t, ErrBudgetExceeded, func() {
		a.MakeApplication(x, x)
	})
	assert.Equal(t, 2, a.Len(), "failed makes must not allocate")
}

// A shared controller bounds several arenas at once. Slots are reserved
// segment by segment and handed back on Close.
func TestResourceControllerBudget(t *testing.T) {
	ctrl := resource.NewController(resource.Config{MaxNodes: 8})
	syms := symbol.NewTable()

	a := NewTermArena(WithSegmentSize(4), WithResource(ctrl))
	for i := 0; i < 4; i++ {
		a.MakeVariable(syms.Intern(fmt.Sprintf("a%d", i)))
	}
	assert.Equal(t, int64(4), ctrl.NodesInUse())

	b := NewTermArena(WithSegmentSize(4), WithResource(ctrl))
	b.MakeVariable(syms.Intern("b0"))
	assert.Equal(t, int64(8), ctrl.NodesInUse())

	// Growing either arena needs a fifth segment slot block.
	requirePanicsWithErrorIs(t, ErrBudgetExceeded, func() {
		a.MakeVariable(syms.Intern("a4"))
	})

	require.NoError(t, b.Close())
	assert.Equal(t, int64(4), ctrl.NodesInUse())

	a.MakeVariable(syms.Intern("a4"))
	assert.Equal(t, int64(8), ctrl.NodesInUse())

	require.NoError(t, a.Close())
	assert.Zero(t, ctrl.NodesInUse())
}
