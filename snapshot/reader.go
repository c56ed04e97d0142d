package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/codec"
	"github.com/hupe1980/termgo/symbol"
)

// ReadOptions configures Read.
type ReadOptions struct {
	// ArenaOptions are applied to the rebuilt program's arenas. Budget
	// options keep their factory semantics: a replay that exceeds a
	// MaxNodes or resource budget panics, same as direct Makes.
	ArenaOptions []termgo.Option
}

// Read deserializes a program from r.
//
// The stream is validated while it is replayed: malformed events,
// out-of-range links, and count mismatches fail with ErrCorrupted,
// symbol indices beyond the symbol section fail with ErrUnknownSymbol,
// and a trailer mismatch fails with *ChecksumMismatchError. On error
// the partially built program is closed and discarded.
func Read(r io.Reader, optFns ...func(*ReadOptions)) (*termgo.Program, error) {
	var opts ReadOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	cr := newChecksumReader(r)

	info, compression, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if err := validateCounts(info); err != nil {
		return nil, err
	}

	er := &eventReader{r: newBlockReader(cr, compression)}

	p := termgo.NewProgram(opts.ArenaOptions...)
	ok := false
	defer func() {
		if !ok {
			_ = p.Close()
		}
	}()

	if err := readSymbols(er, p.Symbols(), info.Symbols); err != nil {
		return nil, err
	}
	made, err := readTerms(er, p, info)
	if err != nil {
		return nil, err
	}
	if err := readStmts(er, p, made, info); err != nil {
		return nil, err
	}

	// The payload must end exactly at the terminator block.
	if _, err := er.r.ReadByte(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("%w: trailing payload data", ErrCorrupted)
		}
		return nil, err
	}

	var trailer [trailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, fmt.Errorf("%w: read checksum: %v", ErrCorrupted, err)
	}
	if expected, actual := binary.LittleEndian.Uint32(trailer[:]), cr.Sum(); expected != actual {
		return nil, &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	ok = true
	return p, nil
}

// ReadInfo decodes the header and info section of a snapshot without
// replaying the payload or verifying the checksum.
func ReadInfo(r io.Reader) (*Info, error) {
	info, _, err := readHeader(r)
	return info, err
}

func readHeader(r io.Reader) (*Info, Compression, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("%w: read header: %v", ErrCorrupted, err)
	}
	if hdr.Magic != magicBytes {
		return nil, 0, fmt.Errorf("%w: got %q", ErrInvalidMagic, hdr.Magic[:])
	}
	if hdr.Version != FormatVersion {
		return nil, 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, hdr.Version, FormatVersion)
	}
	compression := Compression(hdr.Compression)
	if !compression.valid() {
		return nil, 0, fmt.Errorf("%w: flag %d", ErrInvalidCompression, hdr.Compression)
	}
	if hdr.InfoLen > maxInfoLen {
		return nil, 0, fmt.Errorf("%w: info section of %d bytes", ErrCorrupted, hdr.InfoLen)
	}

	infoBytes := make([]byte, hdr.InfoLen)
	if _, err := io.ReadFull(r, infoBytes); err != nil {
		return nil, 0, fmt.Errorf("%w: read info: %v", ErrCorrupted, err)
	}
	var info Info
	if err := codec.Default.Unmarshal(infoBytes, &info); err != nil {
		return nil, 0, fmt.Errorf("%w: decode info: %v", ErrCorrupted, err)
	}
	return &info, compression, nil
}

// validateCounts bounds the declared counts before replay so a corrupt
// info section cannot push the factories into their panic paths.
func validateCounts(info *Info) error {
	for _, c := range []uint32{
		info.Variables, info.Abstractions, info.Applications,
		info.Declarations, info.Evaluations,
	} {
		if uint64(c) > termgo.MaxNodeIndex+1 {
			return fmt.Errorf("%w: node count %d exceeds index space", ErrCorrupted, c)
		}
	}
	return nil
}

// eventReader decodes uvarint-based events from the payload stream.
type eventReader struct {
	r *blockReader
}

func (er *eventReader) readByte() (byte, error) {
	return er.r.ReadByte()
}

func (er *eventReader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(er.r)
	if err != nil {
		return 0, fmt.Errorf("%w: read varint: %v", ErrCorrupted, err)
	}
	return v, nil
}

func (er *eventReader) readString(n uint64) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(er.r, b); err != nil {
		return "", fmt.Errorf("%w: read string: %v", ErrCorrupted, err)
	}
	return string(b), nil
}

func readSymbols(er *eventReader, t *symbol.Table, want uint32) error {
	n, err := er.readUvarint()
	if err != nil {
		return err
	}
	if n != uint64(want) {
		return fmt.Errorf("%w: symbol section has %d entries, info says %d", ErrCorrupted, n, want)
	}

	for i := uint64(0); i < n; i++ {
		size, err := er.readUvarint()
		if err != nil {
			return err
		}
		if size > maxSymbolNameLen {
			return fmt.Errorf("%w: symbol name of %d bytes", ErrCorrupted, size)
		}
		name, err := er.readString(size)
		if err != nil {
			return err
		}
		t.Intern(name)
		if uint64(t.Len()) != i+1 {
			return fmt.Errorf("%w: duplicate symbol %q", ErrCorrupted, name)
		}
	}
	return nil
}

func readTerms(er *eventReader, p *termgo.Program, info *Info) ([]termgo.Term, error) {
	n, err := er.readUvarint()
	if err != nil {
		return nil, err
	}
	if n != info.TermNodes() {
		return nil, fmt.Errorf("%w: term stream has %d events, info says %d", ErrCorrupted, n, info.TermNodes())
	}

	ta := p.TermArena()
	syms := p.Symbols()
	made := make([]termgo.Term, 0, preallocCount(n))
	var counts [termgo.KindApplication + 1]uint32

	for i := uint64(0); i < n; i++ {
		kb, err := er.readByte()
		if err != nil {
			return nil, err
		}

		switch k := termgo.Kind(kb); k {
		case termgo.KindVariable:
			if counts[k]++; counts[k] > info.Variables {
				return nil, countMismatch(k, info.Variables)
			}
			symIdx, err := er.readUvarint()
			if err != nil {
				return nil, err
			}
			s, ok := symbolAt(syms, symIdx)
			if !ok {
				return nil, fmt.Errorf("%w: symbol index %d of %d", ErrUnknownSymbol, symIdx, syms.Len())
			}
			made = append(made, ta.MakeVariable(s))

		case termgo.KindAbstraction:
			if counts[k]++; counts[k] > info.Abstractions {
				return nil, countMismatch(k, info.Abstractions)
			}
			param, err := resolveVar(er, made)
			if err != nil {
				return nil, err
			}
			body, err := resolveTerm(er, made)
			if err != nil {
				return nil, err
			}
			made = append(made, ta.MakeAbstraction(param, body))

		case termgo.KindApplication:
			if counts[k]++; counts[k] > info.Applications {
				return nil, countMismatch(k, info.Applications)
			}
			left, err := resolveTerm(er, made)
			if err != nil {
				return nil, err
			}
			right, err := resolveTerm(er, made)
			if err != nil {
				return nil, err
			}
			made = append(made, ta.MakeApplication(left, right))

		default:
			return nil, fmt.Errorf("%w: term event kind %d", ErrCorrupted, kb)
		}
	}

	return made, nil
}

func readStmts(er *eventReader, p *termgo.Program, made []termgo.Term, info *Info) error {
	n, err := er.readUvarint()
	if err != nil {
		return err
	}
	if n != info.StmtNodes() {
		return fmt.Errorf("%w: statement stream has %d events, info says %d", ErrCorrupted, n, info.StmtNodes())
	}

	sa := p.StmtArena()
	var decls, evals uint32

	for i := uint64(0); i < n; i++ {
		kb, err := er.readByte()
		if err != nil {
			return err
		}

		switch termgo.Kind(kb) {
		case termgo.KindDeclaration:
			if decls++; decls > info.Declarations {
				return countMismatch(termgo.KindDeclaration, info.Declarations)
			}
			v, err := resolveVar(er, made)
			if err != nil {
				return err
			}
			def, err := resolveTerm(er, made)
			if err != nil {
				return err
			}
			sa.MakeDeclaration(v, def)

		case termgo.KindEvaluation:
			if evals++; evals > info.Evaluations {
				return countMismatch(termgo.KindEvaluation, info.Evaluations)
			}
			t, err := resolveTerm(er, made)
			if err != nil {
				return err
			}
			sa.MakeEvaluation(t)

		default:
			return fmt.Errorf("%w: statement event kind %d", ErrCorrupted, kb)
		}
	}

	return nil
}

func resolveTerm(er *eventReader, made []termgo.Term) (termgo.Term, error) {
	ord, err := er.readUvarint()
	if err != nil {
		return nil, err
	}
	if ord >= uint64(len(made)) {
		return nil, fmt.Errorf("%w: link to ordinal %d of %d", ErrCorrupted, ord, len(made))
	}
	return made[ord], nil
}

func resolveVar(er *eventReader, made []termgo.Term) (*termgo.Variable, error) {
	t, err := resolveTerm(er, made)
	if err != nil {
		return nil, err
	}
	v, ok := t.(*termgo.Variable)
	if !ok {
		return nil, fmt.Errorf("%w: %s where a variable is required", ErrCorrupted, t.Kind())
	}
	return v, nil
}

func symbolAt(t *symbol.Table, idx uint64) (*symbol.Symbol, bool) {
	if idx >= uint64(t.Len()) {
		return nil, false
	}
	return t.At(uint32(idx))
}

func countMismatch(k termgo.Kind, declared uint32) error {
	return fmt.Errorf("%w: more %s events than the %d declared", ErrCorrupted, k, declared)
}

// preallocCount caps replay preallocation so a corrupt count cannot
// trigger a huge allocation before the stream runs dry.
func preallocCount(n uint64) int {
	const limit = 1 << 20
	if n > limit {
		return limit
	}
	return int(n)
}
