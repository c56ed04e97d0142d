package termgo

// Stmt is the interface implemented by all statement nodes owned by a
// StmtArena: Declaration and Evaluation.
//
// Statements link to term nodes without owning them; the same term may
// back any number of statements.
type Stmt interface {
	// Kind identifies the concrete node type.
	Kind() Kind
	// Ref returns the node's arena-tagged handle.
	Ref() Ref

	stmtNode()
}

// Declaration is a statement binding a variable to its definition.
type Declaration struct {
	ref Ref
	v   *Variable
	def Term
}

// Kind implements Stmt.
func (d *Declaration) Kind() Kind { return KindDeclaration }

// Ref implements Stmt.
func (d *Declaration) Ref() Ref { return d.ref }

// Var returns the declared variable.
func (d *Declaration) Var() *Variable { return d.v }

// Definition returns the term the variable is bound to.
func (d *Declaration) Definition() Term { return d.def }

func (*Declaration) stmtNode() {}

// Evaluation is a statement requesting evaluation of a term.
type Evaluation struct {
	ref  Ref
	term Term
}

// Kind implements Stmt.
func (e *Evaluation) Kind() Kind { return KindEvaluation }

// Ref implements Stmt.
func (e *Evaluation) Ref() Ref { return e.ref }

// Term returns the term to evaluate.
func (e *Evaluation) Term() Term { return e.term }

func (*Evaluation) stmtNode() {}
