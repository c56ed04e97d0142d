package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/termgo"
)

// varNames is the pool GrowTerms draws variable names from. A small
// pool keeps the symbol table busy deduplicating.
var varNames = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// GrowTerms appends n random term nodes to p and returns them in
// creation order. leafRatio is the probability that a step mints a
// variable; the remainder splits evenly between abstractions and
// applications whose children are drawn from the nodes grown so far.
// Children are linked, never copied, so the result is a DAG with
// heavy sharing, not a forest.
//
// The first node is always a variable. Variable names come from a
// 26-name pool, exercising symbol interning.
func (r *RNG) GrowTerms(p *termgo.Program, n int, leafRatio float64) []termgo.Term {
	r.mu.Lock()
	defer r.mu.Unlock()

	arena := p.TermArena()
	terms := make([]termgo.Term, 0, n)
	vars := make([]*termgo.Variable, 0, n/2+1)

	for len(terms) < n {
		var t termgo.Term
		switch {
		case len(vars) == 0 || r.rand.Float64() < leafRatio:
			v := p.Var(varNames[r.rand.Intn(len(varNames))])
			vars = append(vars, v)
			t = v
		case r.rand.Intn(2) == 0:
			param := vars[r.rand.Intn(len(vars))]
			body := terms[r.rand.Intn(len(terms))]
			t = arena.MakeAbstraction(param, body)
		default:
			left := terms[r.rand.Intn(len(terms))]
			right := terms[r.rand.Intn(len(terms))]
			t = arena.MakeApplication(left, right)
		}
		terms = append(terms, t)
	}

	return terms
}

// GrowStatements appends decls declarations and evals evaluations to
// p, each rooted at a random member of terms. Declaration names are
// "defN" in statement order.
func (r *RNG) GrowStatements(p *termgo.Program, terms []termgo.Term, decls, evals int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range decls {
		p.Declare(fmt.Sprintf("def%d", i), terms[r.rand.Intn(len(terms))])
	}
	for range evals {
		p.Evaluate(terms[r.rand.Intn(len(terms))])
	}
}

// GrowProgram grows terms random term nodes with a moderate leaf share
// and roots decls declarations and evals evaluations in them. It is
// the one-call fixture most benchmarks want.
func (r *RNG) GrowProgram(p *termgo.Program, terms, decls, evals int) {
	// GrowTerms and GrowStatements lock, so no lock is held here.
	grown := r.GrowTerms(p, terms, 0.4)
	r.GrowStatements(p, grown, decls, evals)
}

// Church builds the Church numeral n in p: λf.λx.f (f … (f x) …).
// The application spine is n nodes deep, making it a deterministic
// fixture for traversal depth.
func Church(p *termgo.Program, n int) *termgo.Abstraction {
	arena := p.TermArena()

	f := p.Var("f")
	x := p.Var("x")

	body := termgo.Term(x)
	for range n {
		body = arena.MakeApplication(f, body)
	}

	return arena.MakeAbstraction(f, arena.MakeAbstraction(x, body))
}

// Reachable returns the set of term nodes reachable from roots. It is
// the ground truth a compacting snapshot writer must preserve.
func Reachable(roots ...termgo.Term) map[termgo.Term]struct{} {
	live := make(map[termgo.Term]struct{})
	for _, root := range roots {
		termgo.Inspect(root, func(n termgo.Node) bool {
			if t, ok := n.(termgo.Term); ok {
				live[t] = struct{}{}
			}
			return true
		})
	}

	return live
}
