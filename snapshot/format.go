package snapshot

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

const (
	// Magic identifies termgo snapshot files (ASCII "TRM1").
	Magic = "TRM1"
	// FormatVersion is the current snapshot format version.
	FormatVersion uint16 = 1

	headerSize  = 12
	trailerSize = 4

	// Sanity bounds applied before allocating reader-side buffers.
	maxInfoLen       = 16 << 20
	maxBlockLen      = 1 << 30
	maxSymbolNameLen = 1 << 20
)

var magicBytes = [4]byte{'T', 'R', 'M', '1'}

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// snapshot magic number.
	ErrInvalidMagic = errors.New("snapshot: invalid magic number")
	// ErrInvalidVersion is returned for format versions this package
	// cannot read.
	ErrInvalidVersion = errors.New("snapshot: unsupported format version")
	// ErrInvalidCompression is returned for unknown compression flags.
	ErrInvalidCompression = errors.New("snapshot: unknown compression")
	// ErrCorrupted is returned when a snapshot fails structural
	// validation or checksum verification.
	ErrCorrupted = errors.New("snapshot: corrupted snapshot")
	// ErrUnknownSymbol is returned when a variable references a symbol
	// that is not interned in the program's table.
	ErrUnknownSymbol = errors.New("snapshot: symbol not in program table")
)

// fileHeader is the fixed 12-byte header at the start of every
// snapshot, written little-endian.
type fileHeader struct {
	Magic       [4]byte
	Version     uint16
	Compression uint8
	Reserved    uint8
	InfoLen     uint32
}

// ChecksumMismatchError is returned when the CRC-32 trailer does not
// match the bytes read. It satisfies errors.Is(err, ErrCorrupted).
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupted }

// crc32Table is the IEEE polynomial table. CRC-32 is for detecting
// accidental corruption, not tampering.
var crc32Table = crc32.MakeTable(crc32.IEEE)

// checksumWriter wraps an io.Writer and keeps a running CRC-32 of the
// bytes actually written.
type checksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, hash: crc32.New(crc32Table)}
}

func (cw *checksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the current checksum value.
func (cw *checksumWriter) Sum() uint32 { return cw.hash.Sum32() }

// checksumReader wraps an io.Reader and keeps a running CRC-32 of the
// bytes actually read.
type checksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

func newChecksumReader(r io.Reader) *checksumReader {
	return &checksumReader{r: r, hash: crc32.New(crc32Table)}
}

func (cr *checksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the current checksum value.
func (cr *checksumReader) Sum() uint32 { return cr.hash.Sum32() }
