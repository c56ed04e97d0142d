// Package testutil provides testing utilities for termgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for growing random lambda programs with
// controlled shape and sharing, and for computing exact reachability
// over the resulting term graphs.
//
// # Random Program Growth
//
//	rng := testutil.NewRNG(seed)
//	p := termgo.NewProgram()
//	terms := rng.GrowTerms(p, 10_000, 0.4)
//	rng.GrowStatements(p, terms, 16, 64)
//
// # Exact Reachability (Ground Truth)
//
//	live := testutil.Reachable(decl.Var(), decl.Definition())
package testutil
