package termgo

import "github.com/hupe1980/termgo/symbol"

// Term is the interface implemented by all term nodes owned by a
// TermArena: Variable, Abstraction, and Application.
//
// Terms form a directed acyclic graph, not a tree: factories link to
// existing nodes instead of copying them, so a subterm may be shared by
// any number of parents.
type Term interface {
	// Kind identifies the concrete node type.
	Kind() Kind
	// Ref returns the node's arena-tagged handle.
	Ref() Ref

	termNode()
}

// Variable is a term referencing a symbol. The symbol is owned by the
// caller (typically a symbol.Table); the arena never manages it.
type Variable struct {
	ref Ref
	sym *symbol.Symbol
}

// Kind implements Term.
func (v *Variable) Kind() Kind { return KindVariable }

// Ref implements Term.
func (v *Variable) Ref() Ref { return v.ref }

// Symbol returns the caller-owned symbol the variable references.
func (v *Variable) Symbol() *symbol.Symbol { return v.sym }

func (*Variable) termNode() {}

// Abstraction is a lambda abstraction term. It links to its bound
// parameter variable and its body without owning either.
type Abstraction struct {
	ref   Ref
	param *Variable
	body  Term
}

// Kind implements Term.
func (a *Abstraction) Kind() Kind { return KindAbstraction }

// Ref implements Term.
func (a *Abstraction) Ref() Ref { return a.ref }

// Param returns the bound parameter variable.
func (a *Abstraction) Param() *Variable { return a.param }

// Body returns the abstraction body.
func (a *Abstraction) Body() Term { return a.body }

func (*Abstraction) termNode() {}

// Application is an application term linking two existing terms.
type Application struct {
	ref   Ref
	left  Term
	right Term
}

// Kind implements Term.
func (a *Application) Kind() Kind { return KindApplication }

// Ref implements Term.
func (a *Application) Ref() Ref { return a.ref }

// Left returns the term in function position.
func (a *Application) Left() Term { return a.left }

// Right returns the term in argument position.
func (a *Application) Right() Term { return a.right }

func (*Application) termNode() {}
