package termgo

import "fmt"

// Kind identifies the concrete type of a node. The zero value is invalid
// so packed IDs can use it as a sentinel.
type Kind uint8

const (
	// KindInvalid is the zero Kind; never carried by a real node.
	KindInvalid Kind = iota
	// KindVariable is a variable term referencing a symbol.
	KindVariable
	// KindAbstraction is a lambda abstraction term.
	KindAbstraction
	// KindApplication is an application term.
	KindApplication
	// KindDeclaration is a declaration statement.
	KindDeclaration
	// KindEvaluation is an evaluation statement.
	KindEvaluation
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindAbstraction:
		return "abstraction"
	case KindApplication:
		return "application"
	case KindDeclaration:
		return "declaration"
	case KindEvaluation:
		return "evaluation"
	default:
		return "invalid"
	}
}

// IsTerm reports whether k is a term kind.
func (k Kind) IsTerm() bool {
	return k >= KindVariable && k <= KindApplication
}

// IsStmt reports whether k is a statement kind.
func (k Kind) IsStmt() bool {
	return k == KindDeclaration || k == KindEvaluation
}

// NodeID layout: [Kind: 4 bits][Index: 28 bits].
const (
	indexBits = 28
	indexMask = 1<<indexBits - 1

	// MaxNodeIndex is the largest per-kind node index an arena can hold.
	MaxNodeIndex = indexMask
)

// NodeID packs a node's kind and per-kind creation index into a single
// integer. The zero value is invalid.
type NodeID uint32

func newNodeID(k Kind, index uint32) NodeID {
	return NodeID(uint32(k)<<indexBits | index&indexMask)
}

// Kind extracts the node kind.
func (id NodeID) Kind() Kind { return Kind(id >> indexBits) }

// Index extracts the per-kind creation index.
func (id NodeID) Index() uint32 { return uint32(id) & indexMask }

// IsValid reports whether id identifies a node.
func (id NodeID) IsValid() bool { return id != 0 }

// String implements fmt.Stringer.
func (id NodeID) String() string {
	return fmt.Sprintf("%s:%d", id.Kind(), id.Index())
}

// ArenaID identifies an arena instance within the process. IDs are
// assigned from a global counter, so no two arenas share one. The zero
// value is invalid.
type ArenaID uint32

// IsValid reports whether the ID identifies an arena.
func (id ArenaID) IsValid() bool { return id != 0 }

// Ref is an arena-tagged node handle. Unlike a bare node pointer, a Ref
// can be validated: resolving it against an arena detects handles minted
// by a different arena instead of silently dereferencing foreign memory.
//
// The zero Ref is invalid.
type Ref struct {
	arena ArenaID
	node  NodeID
}

// Arena returns the ID of the arena that minted the ref.
func (r Ref) Arena() ArenaID { return r.arena }

// Kind returns the referenced node's kind.
func (r Ref) Kind() Kind { return r.node.Kind() }

// Index returns the referenced node's per-kind creation index.
func (r Ref) Index() uint32 { return r.node.Index() }

// IsValid reports whether the ref identifies a node.
func (r Ref) IsValid() bool { return r.arena.IsValid() && r.node.IsValid() }

// Pack encodes the ref into a single uint64 with the arena ID in the
// high half, suitable as a map key or log field.
func (r Ref) Pack() uint64 {
	return uint64(r.arena)<<32 | uint64(r.node)
}

// UnpackRef is the inverse of Ref.Pack.
func UnpackRef(v uint64) Ref {
	return Ref{arena: ArenaID(v >> 32), node: NodeID(v)}
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	return fmt.Sprintf("ref(%s@%d)", r.node, r.arena)
}
