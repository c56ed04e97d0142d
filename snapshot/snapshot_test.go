package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/symbol"
)

// buildTestProgram allocates a program with shared subterms so that
// round-trip tests cover aliasing, not just tree-shaped graphs: xy is
// referenced by both an enclosing application and an evaluation, and
// id by both a declaration and an evaluation.
func buildTestProgram(t *testing.T) *termgo.Program {
	t.Helper()

	p := termgo.NewProgram()
	t.Cleanup(func() { _ = p.Close() })

	x := p.Var("x")
	y := p.Var("y")
	id := p.TermArena().MakeAbstraction(x, x)
	xy := p.TermArena().MakeApplication(x, y)
	f := p.Var("f")
	body := p.TermArena().MakeApplication(f, xy)
	twice := p.TermArena().MakeAbstraction(f, body)

	p.Declare("id", id)
	p.Declare("twice", twice)
	p.Evaluate(xy)
	p.Evaluate(id)

	return p
}

// renderProgram flattens a program into one line per node, linking
// children by creation ordinal. Two programs render equal exactly when
// they are isomorphic, including which subterms are shared.
func renderProgram(p *termgo.Program) []string {
	ord := make(map[termgo.Term]int)
	var out []string
	for tm := range p.TermArena().Terms() {
		i := len(ord)
		ord[tm] = i
		switch n := tm.(type) {
		case *termgo.Variable:
			out = append(out, fmt.Sprintf("%d var %s", i, n.Symbol().Name()))
		case *termgo.Abstraction:
			out = append(out, fmt.Sprintf("%d abs %d %d", i, ord[n.Param()], ord[n.Body()]))
		case *termgo.Application:
			out = append(out, fmt.Sprintf("%d app %d %d", i, ord[n.Left()], ord[n.Right()]))
		}
	}
	for s := range p.StmtArena().Stmts() {
		switch n := s.(type) {
		case *termgo.Declaration:
			out = append(out, fmt.Sprintf("decl %d %d", ord[n.Var()], ord[n.Definition()]))
		case *termgo.Evaluation:
			out = append(out, fmt.Sprintf("eval %d", ord[n.Term()]))
		}
	}
	return out
}

func symbolNames(p *termgo.Program) []string {
	var names []string
	for _, s := range p.Symbols().All() {
		names = append(names, s.Name())
	}
	return names
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			p := buildTestProgram(t)

			var buf bytes.Buffer
			err := Write(&buf, p, func(o *WriteOptions) { o.Compression = c })
			require.NoError(t, err)

			got, err := Read(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			defer got.Close()

			assert.Equal(t, renderProgram(p), renderProgram(got))
			assert.Equal(t, symbolNames(p), symbolNames(got))
			assert.Equal(t, p.Stats(), got.Stats())
		})
	}
}

func TestWriteReadEmptyProgram(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	assert.Zero(t, got.Stats().Nodes())
	assert.Zero(t, got.Symbols().Len())
}

// Tiny blocks force every section to span multiple payload blocks, so
// the framing layer has to reassemble events that straddle block
// boundaries.
func TestWriteReadTinyBlocks(t *testing.T) {
	p := buildTestProgram(t)

	var buf bytes.Buffer
	err := Write(&buf, p, func(o *WriteOptions) {
		o.Compression = CompressionZSTD
		o.BlockSize = 16
	})
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, renderProgram(p), renderProgram(got))
}

// High-entropy symbol names do not compress, which drives the writer
// down the stored-block fallback while the header still advertises a
// compressed snapshot.
func TestWriteReadIncompressibleSymbols(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	p := termgo.NewProgram()
	defer p.Close()
	for i := 0; i < 64; i++ {
		raw := make([]byte, 48)
		rng.Read(raw)
		p.Evaluate(p.Var(string(raw)))
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, p, func(o *WriteOptions) { o.Compression = c })
			require.NoError(t, err)

			got, err := Read(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			defer got.Close()

			assert.Equal(t, renderProgram(p), renderProgram(got))
		})
	}
}

func TestWriteNilProgram(t *testing.T) {
	err := Write(io.Discard, nil)
	require.EqualError(t, err, "snapshot: nil program")

	err = Write(io.Discard, nil, func(o *WriteOptions) { o.Compact = true })
	require.EqualError(t, err, "snapshot: nil program")
}

func TestWriteInvalidCompression(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	err := Write(io.Discard, p, func(o *WriteOptions) { o.Compression = Compression(42) })
	require.ErrorIs(t, err, ErrInvalidCompression)
}

// A variable built from a symbol interned in some other table cannot
// be encoded: the snapshot stores symbol indices, not names, per node.
func TestWriteUnknownSymbol(t *testing.T) {
	foreign := symbol.NewTable()
	ghost := foreign.Intern("ghost")

	p := termgo.NewProgram()
	defer p.Close()
	p.Evaluate(p.TermArena().MakeVariable(ghost))

	err := Write(io.Discard, p)
	require.ErrorIs(t, err, ErrUnknownSymbol)
}

// Statements referencing terms from another program's arena fail the
// ownership check instead of silently encoding dangling links.
func TestWriteForeignTerm(t *testing.T) {
	other := termgo.NewProgram()
	defer other.Close()
	stray := other.Var("stray")

	p := termgo.NewProgram()
	defer p.Close()
	p.Evaluate(stray)

	err := Write(io.Discard, p)
	require.ErrorIs(t, err, termgo.ErrForeignRef)
}

func TestReadInfo(t *testing.T) {
	p := buildTestProgram(t)

	var buf bytes.Buffer
	err := Write(&buf, p, func(o *WriteOptions) { o.Compression = CompressionLZ4 })
	require.NoError(t, err)

	info, err := ReadInfo(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	st := p.Stats()
	assert.Equal(t, "lz4", info.Compression)
	assert.Equal(t, uint32(st.Symbols), info.Symbols)
	assert.Equal(t, uint32(st.Terms.Variables), info.Variables)
	assert.Equal(t, uint32(st.Terms.Abstractions), info.Abstractions)
	assert.Equal(t, uint32(st.Terms.Applications), info.Applications)
	assert.Equal(t, uint32(st.Stmts.Declarations), info.Declarations)
	assert.Equal(t, uint32(st.Stmts.Evaluations), info.Evaluations)
	assert.Equal(t, uint64(st.Terms.Nodes), info.TermNodes())
	assert.Equal(t, uint64(st.Stmts.Nodes), info.StmtNodes())
	assert.False(t, info.CreatedAt.IsZero())
}

// Default writes are exact: unreachable terms survive the round trip
// unless the caller opts into compaction.
func TestWriteKeepsUnreachableTerms(t *testing.T) {
	p := termgo.NewProgram()
	defer p.Close()

	orphan := p.Var("orphan")
	p.TermArena().MakeApplication(orphan, orphan)
	p.Evaluate(p.Var("live"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, p.Stats(), got.Stats())
	assert.Equal(t, renderProgram(p), renderProgram(got))
}
