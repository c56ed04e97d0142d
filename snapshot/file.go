package snapshot

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/internal/mmap"
)

const fileBufferSize = 256 * 1024

// SaveFile writes a snapshot of p to path atomically: the bytes go to
// a temp file in the same directory, which replaces path by rename
// only after a successful sync. A crash mid-save leaves any previous
// snapshot untouched.
func SaveFile(p *termgo.Program, path string, optFns ...func(*WriteOptions)) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return Write(w, p, optFns...)
	})
}

// LoadFile reads a snapshot from path.
func LoadFile(path string, optFns ...func(*ReadOptions)) (*termgo.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReaderSize(f, fileBufferSize), optFns...)
}

// LoadMmap reads a snapshot from a memory-mapped file, avoiding read
// syscalls for the payload. The mapping is closed before returning;
// the rebuilt program owns its memory either way.
func LoadMmap(path string, optFns ...func(*ReadOptions)) (*termgo.Program, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	_ = m.Advise(mmap.AccessSequential)

	return Read(bytes.NewReader(m.Bytes()), optFns...)
}

// writeFileAtomic streams writeFunc into a temp file next to path and
// renames it into place after flush, fsync, and close all succeed.
func writeFileAtomic(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, fileBufferSize)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""

	// Best-effort directory sync so the rename survives a crash.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
