// Package termgo provides arena allocation for lambda calculus programs.
//
// Termgo stores the nodes of lambda terms (variables, abstractions,
// applications) and top-level statements (declarations, evaluations) in
// append-only arenas with stable addresses: a pointer returned by a Make
// operation stays valid and unchanged for the arena's lifetime, no
// matter how many nodes are created after it. Terms form DAGs, not
// trees; passing a term to two factories shares it instead of copying.
//
// # Quick Start
//
// Build a program with the fluent builder:
//
//	p := termgo.New().
//	    SegmentSize(4096).
//	    Logger(termgo.NewTextLogger(slog.LevelInfo)).
//	    MustBuild()
//	defer p.Close()
//
//	x := p.Var("x")
//	id := p.TermArena().MakeAbstraction(x, x) // λx.x
//	p.Declare("id", id)
//	p.Evaluate(id)
//
// Or use the arenas directly with a caller-owned symbol table:
//
//	syms := symbol.NewTable()
//	terms := termgo.NewTermArena()
//	defer terms.Close()
//
//	x := terms.MakeVariable(syms.Intern("x"))
//	fn := terms.MakeAbstraction(x, x)
//
// # Handles
//
// Raw node pointers are the fast path and carry no checks. Every node
// also has a Ref, a compact handle packing arena identity, kind, and
// index. Refs resolve through TermArena.Term and StmtArena.Stmt with
// validation: refs minted by another arena fail with ErrForeignRef,
// malformed or out-of-range refs with ErrInvalidRef.
//
// # Exhaustion
//
// Storage exhaustion is a hard failure: a Make operation that exceeds a
// MaxNodes budget, a resource.Controller grant, or the per-kind index
// space panics with a sentinel error. Everything else reports errors
// the ordinary way.
//
// # Persistence
//
// The snapshot package serializes programs to a checksummed binary
// format with optional LZ4 or ZSTD compression, to files or to any
// blobstore.Store (local disk, memory, S3, MinIO). The manifest package
// versions snapshot generations behind a CURRENT pointer.
//
//	err := snapshot.SaveFile(p, "program.trm1")
//	p2, err := snapshot.LoadFile("program.trm1")
//
// # Key Features
//
//   - Stable node addresses from segmented append-only storage
//   - Validated Ref handles alongside raw pointers
//   - DAG-safe traversal (Walk, Inspect)
//   - Shared node budgets and I/O throttling via resource.Controller
//   - Checksummed snapshots with LZ4/ZSTD compression and liveness
//     compaction
//   - Pluggable blob storage (local, memory, S3, MinIO) with block
//     caching
package termgo
