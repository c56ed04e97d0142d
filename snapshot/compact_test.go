package snapshot

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/termgo"
)

func TestCompactDropsUnreachableTerms(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	junk := p.Var("junk")
	x := p.Var("x")
	id := p.TermArena().MakeAbstraction(x, x)
	p.TermArena().MakeApplication(junk, x)
	y := p.Var("y")
	p.Declare("id", id)
	p.Evaluate(y)

	var buf bytes.Buffer
	require.NoError(t, Compact(&buf, p))

	info, err := ReadInfo(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), info.Variables, "x, y and the declared id survive")
	assert.Equal(t, uint32(1), info.Abstractions)
	assert.Zero(t, info.Applications, "the junk application is unreachable")

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	// Live nodes keep their relative creation order, so the compacted
	// program must replay exactly like one that never allocated the
	// dead nodes in the first place.
	want := termgo.NewProgram()
	defer want.Close()
	wx := want.Var("x")
	wid := want.TermArena().MakeAbstraction(wx, wx)
	wy := want.Var("y")
	want.Declare("id", wid)
	want.Evaluate(wy)

	assert.Equal(t, renderProgram(want), renderProgram(got))
	assert.Equal(t, 4, got.Symbols().Len(), "symbols survive compaction even when their variables do not")
}

func TestCompactPreservesSharing(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	x := p.Var("x")
	y := p.Var("y")
	xy := p.TermArena().MakeApplication(x, y)
	p.TermArena().MakeApplication(y, x)
	p.Evaluate(xy)
	p.Evaluate(xy)

	var buf bytes.Buffer
	require.NoError(t, Compact(&buf, p))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	st := got.Stats()
	assert.Equal(t, 2, st.Terms.Variables)
	assert.Equal(t, 1, st.Terms.Applications)
	assert.Equal(t, 2, st.Stmts.Evaluations)

	evals := slices.Collect(got.StmtArena().Evaluations())
	require.Len(t, evals, 2)
	assert.Same(t, evals[0].Term(), evals[1].Term(), "both evaluations must resolve to the same node")
}

func TestCompactEmptyStatementArena(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	v := p.Var("unused")
	p.TermArena().MakeAbstraction(v, v)

	var buf bytes.Buffer
	require.NoError(t, Compact(&buf, p))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	assert.Zero(t, got.Stats().Nodes(), "no statements means no live terms")
	assert.Equal(t, 1, got.Symbols().Len())
}

func TestCompactIsWriteOption(t *testing.T) {
	p := buildTestProgram(t)
	p.TermArena().MakeApplication(p.Var("a"), p.Var("b"))

	var viaCompact, viaOption bytes.Buffer
	require.NoError(t, Compact(&viaCompact, p))
	require.NoError(t, Write(&viaOption, p, func(o *WriteOptions) { o.Compact = true }))

	a, err := Read(bytes.NewReader(viaCompact.Bytes()))
	require.NoError(t, err)
	defer a.Close()
	b, err := Read(bytes.NewReader(viaOption.Bytes()))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, renderProgram(a), renderProgram(b))
	assert.Equal(t, a.Stats(), b.Stats())
}
