// Package mmap provides memory-mapped file access for zero-copy reads.
//
// Snapshot files are decoded from a single contiguous byte view; mapping
// the file avoids copying it through kernel buffers first.
//
//	m, err := mmap.Open("program.snap")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()           // zero-copy view of the file
//	_ = m.Advise(mmap.AccessSequential)
//
// Unix platforms use mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and treats hints as no-ops.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but the
// caller must ensure no goroutine touches Bytes after Close returns.
package mmap
