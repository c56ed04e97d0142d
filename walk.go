package termgo

import "github.com/hupe1980/termgo/internal/visited"

// Node is the interface shared by all arena nodes, term and statement
// alike. Every node knows its kind and its ref.
type Node interface {
	Kind() Kind
	Ref() Ref
}

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w.
type Visitor interface {
	Visit(n Node) (w Visitor)
}

// Walk traverses the graph rooted at n in depth-first pre-order: it
// calls v.Visit(n), and if the returned visitor is not nil, Walk is
// invoked recursively with that visitor for each child of n. Children
// are visited in structural order: parameter before body, left before
// right, variable before definition.
//
// Terms form a DAG, not a tree: a shared subterm is visited exactly
// once per Walk call, the first time it is reached. All nodes under n
// must belong to the same arena pair; Walk tracks visits per kind by
// node index.
func Walk(v Visitor, n Node) {
	w := walker{}
	w.walk(v, n)
}

// Inspect traverses the graph rooted at n in the same order as Walk,
// calling f for each node. If f returns false, the children of that
// node are skipped. Shared subterms are still inspected only once.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}

type inspector func(Node) bool

func (f inspector) Visit(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}

// walker carries one visited set per kind. Indices are dense within a
// kind, so five small bitsets cover the whole graph.
type walker struct {
	seen [KindEvaluation + 1]*visited.Set
}

func (w *walker) enter(n Node) bool {
	k := n.Kind()
	if k < KindVariable || k > KindEvaluation {
		return false
	}

	s := w.seen[k]
	if s == nil {
		s = visited.New(64)
		w.seen[k] = s
	}

	return s.Visit(n.Ref().Index())
}

func (w *walker) walk(v Visitor, n Node) {
	if v == nil || n == nil {
		return
	}
	if !w.enter(n) {
		return
	}
	if v = v.Visit(n); v == nil {
		return
	}

	switch t := n.(type) {
	case *Variable:
		// Leaf.

	case *Abstraction:
		if p := t.Param(); p != nil {
			w.walk(v, p)
		}
		if b := t.Body(); b != nil {
			w.walk(v, b)
		}

	case *Application:
		if l := t.Left(); l != nil {
			w.walk(v, l)
		}
		if r := t.Right(); r != nil {
			w.walk(v, r)
		}

	case *Declaration:
		if dv := t.Var(); dv != nil {
			w.walk(v, dv)
		}
		if def := t.Definition(); def != nil {
			w.walk(v, def)
		}

	case *Evaluation:
		if tm := t.Term(); tm != nil {
			w.walk(v, tm)
		}
	}
}
