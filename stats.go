package termgo

// TermArenaStats is a snapshot of TermArena occupancy.
type TermArenaStats struct {
	// Variables, Abstractions, and Applications count nodes per kind.
	Variables    int
	Abstractions int
	Applications int
	// Nodes is the total across kinds.
	Nodes int
	// Segments and Capacity describe allocated storage.
	Segments int
	Capacity int
}

// StmtArenaStats is a snapshot of StmtArena occupancy.
type StmtArenaStats struct {
	// Declarations and Evaluations count nodes per kind.
	Declarations int
	Evaluations  int
	// Nodes is the total across kinds.
	Nodes int
	// Segments and Capacity describe allocated storage.
	Segments int
	Capacity int
}

// ProgramStats aggregates the stats of a program's arenas and its symbol
// table.
type ProgramStats struct {
	Terms   TermArenaStats
	Stmts   StmtArenaStats
	Symbols int
}

// Nodes returns the total node count across both arenas.
func (s ProgramStats) Nodes() int {
	return s.Terms.Nodes + s.Stmts.Nodes
}
