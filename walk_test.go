package termgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/termgo/symbol"
)

type nodeCollector struct {
	nodes []Node
}

func (c *nodeCollector) Visit(n Node) Visitor {
	c.nodes = append(c.nodes, n)
	return c
}

// Walk is pre-order with structural child order: parameter before body,
// left before right, variable before definition.
func TestWalkPreOrder(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena()
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	y := terms.MakeVariable(syms.Intern("y"))
	app := terms.MakeApplication(x, y)
	abs := terms.MakeAbstraction(x, app)
	name := terms.MakeVariable(syms.Intern("f"))
	decl := stmts.MakeDeclaration(name, abs)

	c := &nodeCollector{}
	Walk(c, decl)

	// x appears once: it is the parameter and also the application's
	// left operand, and shared nodes are visited on first reach only.
	assert.Equal(t, []Node{decl, name, abs, x, app, y}, c.nodes)
}

func TestWalkVisitsSharedSubtermOnce(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	y := terms.MakeVariable(syms.Intern("y"))
	inner := terms.MakeApplication(x, y)
	outer := terms.MakeApplication(inner, inner)

	c := &nodeCollector{}
	Walk(c, outer)

	assert.Equal(t, []Node{outer, inner, x, y}, c.nodes)
}

func TestWalkEvaluation(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	stmts := NewStmtArena()
	defer stmts.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	id := terms.MakeAbstraction(x, x)
	eval := stmts.MakeEvaluation(id)

	c := &nodeCollector{}
	Walk(c, eval)

	assert.Equal(t, []Node{eval, id, x}, c.nodes)
}

func TestWalkNilSafety(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	syms := symbol.NewTable()
	x := terms.MakeVariable(syms.Intern("x"))

	assert.NotPanics(t, func() { Walk(nil, x) })
	assert.NotPanics(t, func() { Walk(&nodeCollector{}, nil) })
	assert.NotPanics(t, func() { Inspect(nil, func(Node) bool { return true }) })
}

// Returning false from the Inspect callback prunes the node's children
// but not its siblings.
func TestInspectPrune(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	y := terms.MakeVariable(syms.Intern("y"))
	id := terms.MakeAbstraction(x, x)
	app := terms.MakeApplication(id, y)

	var kinds []Kind
	Inspect(app, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindAbstraction
	})

	// The abstraction's subtree (x) is skipped; the sibling y is not.
	assert.Equal(t, []Kind{KindApplication, KindAbstraction, KindVariable}, kinds)

	var names []string
	Inspect(app, func(n Node) bool {
		if v, ok := n.(*Variable); ok {
			names = append(names, v.Symbol().Name())
		}
		return n.Kind() != KindAbstraction
	})
	require.Equal(t, []string{"y"}, names)
}

// A visitor can swap itself out for subtrees; Walk threads the returned
// visitor through to the children.
func TestWalkVisitorSwap(t *testing.T) {
	terms := NewTermArena()
	defer terms.Close()
	syms := symbol.NewTable()

	x := terms.MakeVariable(syms.Intern("x"))
	y := terms.MakeVariable(syms.Intern("y"))
	app := terms.MakeApplication(x, y)
	abs := terms.MakeAbstraction(x, app)

	under := &nodeCollector{}
	var top swapVisitor
	top.under = under

	Walk(&top, abs)

	// The top visitor sees the root; everything below is recorded by
	// the visitor it handed back.
	assert.Equal(t, []Node{abs}, top.nodes)
	assert.Equal(t, []Node{x, app, y}, under.nodes)
}

type swapVisitor struct {
	nodes []Node
	under *nodeCollector
}

func (v *swapVisitor) Visit(n Node) Visitor {
	v.nodes = append(v.nodes, n)
	return v.under
}
