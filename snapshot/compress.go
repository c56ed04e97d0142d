package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload block compression.
type Compression uint8

const (
	// CompressionNone stores payload blocks uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio;
	// snapshots are cold data, so this is the default).
	CompressionZSTD Compression = 2
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

func (c Compression) valid() bool { return c <= CompressionZSTD }

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Block framing: [UncompressedSize uint32][CompressedSize uint32][Data].
// CompressedSize == 0 means the block is stored uncompressed. A header
// of {0, 0} terminates the block sequence.
const blockHeaderSize = 8

// compressBlock compresses data with the selected algorithm. A nil
// result means the block should be stored uncompressed, either because
// compression is off or because it does not pay (ratio above 0.9).
func compressBlock(data []byte, c Compression) ([]byte, error) {
	if len(data) == 0 || c == CompressionNone {
		return nil, nil
	}

	var compressed []byte
	switch c {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // Incompressible
		}
		compressed = dst[:n]

	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		compressed = enc.EncodeAll(data, nil)

	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompression, c)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return nil, nil
	}
	return compressed, nil
}

// decompressBlock inflates src into dst, which must be sized to the
// expected uncompressed length.
func decompressBlock(src, dst []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		if n != len(dst) {
			return nil, fmt.Errorf("decompressed %d bytes, want %d", n, len(dst))
		}
		return dst, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, err
		}
		if len(out) != len(dst) {
			return nil, fmt.Errorf("decompressed %d bytes, want %d", len(out), len(dst))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("compressed block in a snapshot flagged %s", c)
	}
}

// blockWriter splits the payload into blockSize chunks and writes each
// as a framed, optionally compressed block.
type blockWriter struct {
	w           io.Writer
	compression Compression
	blockSize   int
	buf         *bytes.Buffer
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	return &blockWriter{
		w:           w,
		compression: c,
		blockSize:   blockSize,
		buf:         bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

func (bw *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := bw.blockSize - bw.buf.Len()
		if space <= 0 {
			if err := bw.flushBlock(); err != nil {
				return total, err
			}
			space = bw.blockSize
		}

		n := len(p)
		if n > space {
			n = space
		}
		bw.buf.Write(p[:n])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (bw *blockWriter) flushBlock() error {
	data := bw.buf.Bytes()
	if len(data) == 0 {
		return nil
	}

	compressed, err := compressBlock(data, bw.compression)
	if err != nil {
		return err
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(data)))
	body := data
	if compressed != nil {
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(compressed)))
		body = compressed
	}

	if _, err := bw.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := bw.w.Write(body); err != nil {
		return err
	}

	bw.buf.Reset()
	return nil
}

// finish flushes the pending block and writes the terminator header.
func (bw *blockWriter) finish() error {
	if err := bw.flushBlock(); err != nil {
		return err
	}
	var terminator [blockHeaderSize]byte
	_, err := bw.w.Write(terminator[:])
	return err
}

// blockReader reassembles the payload stream from framed blocks. It
// reads the underlying reader in exact-size chunks only, so the bytes
// after the terminator stay unconsumed for the trailer.
type blockReader struct {
	r           io.Reader
	compression Compression
	block       []byte
	pos         int
	done        bool
}

func newBlockReader(r io.Reader, c Compression) *blockReader {
	return &blockReader{r: r, compression: c}
}

func (br *blockReader) fill() error {
	if br.done {
		return io.EOF
	}

	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(br.r, hdr[:]); err != nil {
		return fmt.Errorf("%w: block header: %v", ErrCorrupted, err)
	}
	uncompressedLen := binary.LittleEndian.Uint32(hdr[0:4])
	compressedLen := binary.LittleEndian.Uint32(hdr[4:8])

	if uncompressedLen == 0 && compressedLen == 0 {
		br.done = true
		return io.EOF
	}
	if uncompressedLen == 0 || uncompressedLen > maxBlockLen {
		return fmt.Errorf("%w: block of %d bytes", ErrCorrupted, uncompressedLen)
	}

	dst := br.grow(int(uncompressedLen))

	if compressedLen == 0 {
		if _, err := io.ReadFull(br.r, dst); err != nil {
			return fmt.Errorf("%w: block body: %v", ErrCorrupted, err)
		}
		br.block, br.pos = dst, 0
		return nil
	}

	if compressedLen > maxBlockLen {
		return fmt.Errorf("%w: compressed block of %d bytes", ErrCorrupted, compressedLen)
	}
	src := make([]byte, compressedLen)
	if _, err := io.ReadFull(br.r, src); err != nil {
		return fmt.Errorf("%w: block body: %v", ErrCorrupted, err)
	}

	out, err := decompressBlock(src, dst, br.compression)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	br.block, br.pos = out, 0
	return nil
}

// grow returns a length-n buffer, reusing the block allocation when it
// is large enough.
func (br *blockReader) grow(n int) []byte {
	if cap(br.block) >= n {
		return br.block[:n]
	}
	return make([]byte, n)
}

func (br *blockReader) Read(p []byte) (int, error) {
	for br.pos >= len(br.block) {
		if err := br.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, br.block[br.pos:])
	br.pos += n
	return n, nil
}

func (br *blockReader) ReadByte() (byte, error) {
	for br.pos >= len(br.block) {
		if err := br.fill(); err != nil {
			return 0, err
		}
	}
	b := br.block[br.pos]
	br.pos++
	return b, nil
}
