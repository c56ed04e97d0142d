package termgo

import "github.com/hupe1980/termgo/symbol"

// Program bundles the three stores a lambda program is built from: a
// symbol table, a term arena, and a statement arena. It exists for
// convenience; the arenas can just as well be used standalone with a
// caller-owned table.
//
// The zero Program is not usable. Construct one with NewProgram or the
// fluent builder (termgo.New().…().Build()).
//
// Like the arenas it wraps, a Program is single-builder: one goroutine
// appends, any number may read once building is done.
type Program struct {
	symbols *symbol.Table
	terms   *TermArena
	stmts   *StmtArena
}

// NewProgram creates a program with a fresh symbol table and empty
// arenas. The options apply to both arenas, so a MaxNodes budget is
// per arena, not per program. Use the fluent builder for a shared
// budget via Resource.
func NewProgram(optFns ...Option) *Program {
	return &Program{
		symbols: symbol.NewTable(),
		terms:   NewTermArena(optFns...),
		stmts:   NewStmtArena(optFns...),
	}
}

// Symbols returns the program's symbol table.
func (p *Program) Symbols() *symbol.Table { return p.symbols }

// TermArena returns the arena holding the program's term nodes.
func (p *Program) TermArena() *TermArena { return p.terms }

// StmtArena returns the arena holding the program's statement nodes.
func (p *Program) StmtArena() *StmtArena { return p.stmts }

// Var interns name in the program's symbol table and appends a variable
// node referencing it. Each call creates a new node; only the symbol is
// deduplicated.
func (p *Program) Var(name string) *Variable {
	return p.terms.MakeVariable(p.symbols.Intern(name))
}

// Declare appends a declaration binding a fresh variable named name to
// def. The definition is shared, not copied.
func (p *Program) Declare(name string, def Term) *Declaration {
	return p.stmts.MakeDeclaration(p.Var(name), def)
}

// Evaluate appends an evaluation of t. The term is shared, not copied.
func (p *Program) Evaluate(t Term) *Evaluation {
	return p.stmts.MakeEvaluation(t)
}

// Stats returns a snapshot of the program's occupancy.
func (p *Program) Stats() ProgramStats {
	return ProgramStats{
		Terms:   p.terms.Stats(),
		Stmts:   p.stmts.Stats(),
		Symbols: p.symbols.Len(),
	}
}

// Close closes both arenas, statements first since they link into term
// storage. The symbol table stays valid; symbols are caller-owned.
func (p *Program) Close() error {
	if p == nil {
		return nil
	}

	var firstErr error
	if p.stmts != nil {
		if err := p.stmts.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.terms != nil {
		if err := p.terms.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
