package snapshot

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/termgo"
)

// Compact serializes p like Write but keeps only the term nodes
// reachable from the program's statements. Survivors keep their
// relative creation order, and replay assigns them fresh dense
// indices, so shared subterms stay shared. A program without
// statements compacts to empty term storage.
//
// Equivalent to Write with the Compact option set.
func Compact(w io.Writer, p *termgo.Program, optFns ...func(*WriteOptions)) error {
	return Write(w, p, append(optFns, func(o *WriteOptions) {
		o.Compact = true
	})...)
}

// liveSet holds one reachability bitmap per term kind, keyed by the
// per-kind node index.
type liveSet struct {
	vars *roaring.Bitmap
	abs  *roaring.Bitmap
	apps *roaring.Bitmap
}

func newLiveSet() *liveSet {
	return &liveSet{
		vars: roaring.New(),
		abs:  roaring.New(),
		apps: roaring.New(),
	}
}

func (ls *liveSet) bitmap(k termgo.Kind) *roaring.Bitmap {
	switch k {
	case termgo.KindVariable:
		return ls.vars
	case termgo.KindAbstraction:
		return ls.abs
	case termgo.KindApplication:
		return ls.apps
	default:
		return nil
	}
}

// mark records idx as live and reports whether it was unmarked before.
func (ls *liveSet) mark(k termgo.Kind, idx uint32) bool {
	if bm := ls.bitmap(k); bm != nil {
		return bm.CheckedAdd(idx)
	}
	return false
}

func (ls *liveSet) contains(t termgo.Term) bool {
	ref := t.Ref()
	if bm := ls.bitmap(ref.Kind()); bm != nil {
		return bm.Contains(ref.Index())
	}
	return false
}

func (ls *liveSet) counts() (vars, abs, apps uint64) {
	return ls.vars.GetCardinality(), ls.abs.GetCardinality(), ls.apps.GetCardinality()
}

// markLive computes the set of term nodes reachable from p's
// statements. Marking is top-down, so an already-marked node's
// subgraph is complete and traversal can stop there.
func markLive(p *termgo.Program) *liveSet {
	ls := newLiveSet()
	for s := range p.StmtArena().Stmts() {
		termgo.Inspect(s, func(n termgo.Node) bool {
			k := n.Kind()
			if !k.IsTerm() {
				return true
			}
			return ls.mark(k, n.Ref().Index())
		})
	}
	return ls
}
