package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/codec"
	"github.com/hupe1980/termgo/internal/conv"
	"github.com/hupe1980/termgo/symbol"
)

// DefaultBlockSize is the uncompressed payload block size.
const DefaultBlockSize = 256 * 1024

// WriteOptions configures Write.
type WriteOptions struct {
	// Compression selects the payload compression. Default: ZSTD.
	Compression Compression
	// BlockSize is the uncompressed block size in bytes.
	// Default: 256KB.
	BlockSize int
	// Codec encodes the info section. Both built-in codecs speak JSON,
	// so snapshots written with either decode with either.
	// Default: codec.Default.
	Codec codec.Codec
	// Compact drops term nodes unreachable from the program's
	// statements and renumbers the survivors densely.
	Compact bool
}

// DefaultWriteOptions are the defaults applied by Write.
var DefaultWriteOptions = WriteOptions{
	Compression: CompressionZSTD,
	BlockSize:   DefaultBlockSize,
}

// Info is the decoded info section of a snapshot.
type Info struct {
	Codec        string    `json:"codec"`
	Compression  string    `json:"compression"`
	Symbols      uint32    `json:"symbols"`
	Variables    uint32    `json:"variables"`
	Abstractions uint32    `json:"abstractions"`
	Applications uint32    `json:"applications"`
	Declarations uint32    `json:"declarations"`
	Evaluations  uint32    `json:"evaluations"`
	CreatedAt    time.Time `json:"created_at"`
}

// TermNodes returns the total number of term nodes in the snapshot.
func (i *Info) TermNodes() uint64 {
	return uint64(i.Variables) + uint64(i.Abstractions) + uint64(i.Applications)
}

// StmtNodes returns the total number of statement nodes in the snapshot.
func (i *Info) StmtNodes() uint64 {
	return uint64(i.Declarations) + uint64(i.Evaluations)
}

// Write serializes p to w.
//
// Nodes are written in creation order with links encoded as creation
// ordinals, so the stream replays through the public factories on
// load. Terms linking into a different arena fail with
// termgo.ErrForeignRef; variables whose symbol is not interned in the
// program's table fail with ErrUnknownSymbol.
func Write(w io.Writer, p *termgo.Program, optFns ...func(*WriteOptions)) error {
	if p == nil {
		return errors.New("snapshot: nil program")
	}

	opts := DefaultWriteOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	var live *liveSet
	if opts.Compact {
		live = markLive(p)
	}
	return write(w, p, opts, live)
}

func write(w io.Writer, p *termgo.Program, opts WriteOptions, live *liveSet) error {
	if p == nil {
		return errors.New("snapshot: nil program")
	}
	if !opts.Compression.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCompression, uint8(opts.Compression))
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	info, err := buildInfo(p, c.Name(), opts.Compression, live)
	if err != nil {
		return err
	}
	infoBytes, err := c.Marshal(info)
	if err != nil {
		return fmt.Errorf("snapshot: encode info: %w", err)
	}
	infoLen, err := conv.IntToUint32(len(infoBytes))
	if err != nil {
		return fmt.Errorf("snapshot: info section: %w", err)
	}

	cw := newChecksumWriter(w)

	hdr := fileHeader{
		Magic:       magicBytes,
		Version:     FormatVersion,
		Compression: uint8(opts.Compression),
		InfoLen:     infoLen,
	}
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := cw.Write(infoBytes); err != nil {
		return fmt.Errorf("snapshot: write info: %w", err)
	}

	bw := newBlockWriter(cw, opts.Compression, opts.BlockSize)
	ew := &eventWriter{w: bw}

	if err := writeSymbols(ew, p.Symbols()); err != nil {
		return err
	}
	ords, err := writeTerms(ew, p, live, info.TermNodes())
	if err != nil {
		return err
	}
	if err := writeStmts(ew, p, ords, info.StmtNodes()); err != nil {
		return err
	}

	if err := bw.finish(); err != nil {
		return fmt.Errorf("snapshot: flush payload: %w", err)
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	if _, err := w.Write(trailer[:]); err != nil {
		return fmt.Errorf("snapshot: write checksum: %w", err)
	}
	return nil
}

func buildInfo(p *termgo.Program, codecName string, c Compression, live *liveSet) (*Info, error) {
	info := &Info{
		Codec:       codecName,
		Compression: c.String(),
		CreatedAt:   time.Now().UTC(),
	}

	syms, err := conv.IntToUint32(p.Symbols().Len())
	if err != nil {
		return nil, fmt.Errorf("snapshot: symbol count: %w", err)
	}
	info.Symbols = syms

	ss := p.StmtArena().Stats()
	info.Declarations = uint32(ss.Declarations)
	info.Evaluations = uint32(ss.Evaluations)

	if live != nil {
		vars, abs, apps := live.counts()
		info.Variables = uint32(vars)
		info.Abstractions = uint32(abs)
		info.Applications = uint32(apps)
		return info, nil
	}

	ts := p.TermArena().Stats()
	info.Variables = uint32(ts.Variables)
	info.Abstractions = uint32(ts.Abstractions)
	info.Applications = uint32(ts.Applications)
	return info, nil
}

// eventWriter serializes uvarint-based events to the payload stream.
type eventWriter struct {
	w       io.Writer
	scratch [binary.MaxVarintLen64]byte
}

func (ew *eventWriter) writeByte(b byte) error {
	ew.scratch[0] = b
	_, err := ew.w.Write(ew.scratch[:1])
	return err
}

func (ew *eventWriter) writeUvarint(v uint64) error {
	n := binary.PutUvarint(ew.scratch[:], v)
	_, err := ew.w.Write(ew.scratch[:n])
	return err
}

func (ew *eventWriter) writeString(s string) error {
	if err := ew.writeUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(ew.w, s)
	return err
}

func writeSymbols(ew *eventWriter, t *symbol.Table) error {
	n, err := conv.IntToUint64(t.Len())
	if err != nil {
		return fmt.Errorf("snapshot: symbol count: %w", err)
	}
	if err := ew.writeUvarint(n); err != nil {
		return err
	}
	for _, s := range t.All() {
		if err := ew.writeString(s.Name()); err != nil {
			return err
		}
	}
	return nil
}

func writeTerms(ew *eventWriter, p *termgo.Program, live *liveSet, total uint64) (*ordTable, error) {
	ta := p.TermArena()
	syms := p.Symbols()
	ords := &ordTable{}

	if err := ew.writeUvarint(total); err != nil {
		return nil, err
	}

	for t := range ta.Terms() {
		if live != nil && !live.contains(t) {
			ords.skip(t.Kind())
			continue
		}

		switch n := t.(type) {
		case *termgo.Variable:
			idx, ok := syms.IndexOf(n.Symbol())
			if !ok {
				return nil, fmt.Errorf("%w: variable %s", ErrUnknownSymbol, n.Ref())
			}
			if err := ew.writeByte(byte(termgo.KindVariable)); err != nil {
				return nil, err
			}
			if err := ew.writeUvarint(uint64(idx)); err != nil {
				return nil, err
			}

		case *termgo.Abstraction:
			po, err := ords.lookupVar(ta.ID(), n.Param())
			if err != nil {
				return nil, err
			}
			bo, err := ords.lookup(ta.ID(), n.Body())
			if err != nil {
				return nil, err
			}
			if err := ew.writeByte(byte(termgo.KindAbstraction)); err != nil {
				return nil, err
			}
			if err := ew.writeUvarint(po); err != nil {
				return nil, err
			}
			if err := ew.writeUvarint(bo); err != nil {
				return nil, err
			}

		case *termgo.Application:
			lo, err := ords.lookup(ta.ID(), n.Left())
			if err != nil {
				return nil, err
			}
			ro, err := ords.lookup(ta.ID(), n.Right())
			if err != nil {
				return nil, err
			}
			if err := ew.writeByte(byte(termgo.KindApplication)); err != nil {
				return nil, err
			}
			if err := ew.writeUvarint(lo); err != nil {
				return nil, err
			}
			if err := ew.writeUvarint(ro); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("snapshot: unsupported term %T", t)
		}

		ords.assign(t.Kind())
	}

	return ords, nil
}

func writeStmts(ew *eventWriter, p *termgo.Program, ords *ordTable, total uint64) error {
	sa := p.StmtArena()
	owner := p.TermArena().ID()

	if err := ew.writeUvarint(total); err != nil {
		return err
	}

	for s := range sa.Stmts() {
		switch n := s.(type) {
		case *termgo.Declaration:
			vo, err := ords.lookupVar(owner, n.Var())
			if err != nil {
				return err
			}
			do, err := ords.lookup(owner, n.Definition())
			if err != nil {
				return err
			}
			if err := ew.writeByte(byte(termgo.KindDeclaration)); err != nil {
				return err
			}
			if err := ew.writeUvarint(vo); err != nil {
				return err
			}
			if err := ew.writeUvarint(do); err != nil {
				return err
			}

		case *termgo.Evaluation:
			to, err := ords.lookup(owner, n.Term())
			if err != nil {
				return err
			}
			if err := ew.writeByte(byte(termgo.KindEvaluation)); err != nil {
				return err
			}
			if err := ew.writeUvarint(to); err != nil {
				return err
			}

		default:
			return fmt.Errorf("snapshot: unsupported statement %T", s)
		}
	}

	return nil
}

const deadOrd = ^uint64(0)

// ordTable maps per-kind node indices to creation ordinals in the
// event stream. Skipped nodes hold a dead marker so indices stay
// aligned under compaction.
type ordTable struct {
	ords [termgo.KindApplication + 1][]uint64
	next uint64
}

func (o *ordTable) assign(k termgo.Kind) {
	o.ords[k] = append(o.ords[k], o.next)
	o.next++
}

func (o *ordTable) skip(k termgo.Kind) {
	o.ords[k] = append(o.ords[k], deadOrd)
}

func (o *ordTable) lookup(owner termgo.ArenaID, t termgo.Term) (uint64, error) {
	if t == nil {
		return 0, fmt.Errorf("snapshot: nil term link: %w", termgo.ErrInvalidRef)
	}
	ref := t.Ref()
	if ref.Arena() != owner {
		return 0, fmt.Errorf("snapshot: term %s not owned by arena %d: %w", ref, uint32(owner), termgo.ErrForeignRef)
	}
	k := ref.Kind()
	if !k.IsTerm() || int(ref.Index()) >= len(o.ords[k]) {
		return 0, fmt.Errorf("snapshot: unresolvable term link %s: %w", ref, termgo.ErrInvalidRef)
	}
	ord := o.ords[k][ref.Index()]
	if ord == deadOrd {
		return 0, fmt.Errorf("snapshot: term link %s crosses the liveness boundary", ref)
	}
	return ord, nil
}

func (o *ordTable) lookupVar(owner termgo.ArenaID, v *termgo.Variable) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("snapshot: nil variable link: %w", termgo.ErrInvalidRef)
	}
	return o.lookup(owner, v)
}
