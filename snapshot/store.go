package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/termgo"
	"github.com/hupe1980/termgo/blobstore"
	"github.com/hupe1980/termgo/resource"
)

// SaveOptions configures Save.
type SaveOptions struct {
	WriteOptions
	// Resource throttles upload bandwidth when it carries an I/O limit.
	Resource *resource.Controller
}

// LoadOptions configures Load.
type LoadOptions struct {
	ReadOptions
	// Resource throttles download bandwidth when it carries an I/O
	// limit. It is not applied to memory-mapped blobs.
	Resource *resource.Controller
}

// aborter is the optional cancel hook of streaming writable blobs.
type aborter interface {
	Abort(ctx context.Context) error
}

// Save streams a snapshot of p into store under name. On failure the
// partial blob is aborted or deleted, so name never holds a torn
// snapshot.
func Save(ctx context.Context, store blobstore.Store, name string, p *termgo.Program, optFns ...func(*SaveOptions)) error {
	opts := SaveOptions{WriteOptions: DefaultWriteOptions}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	w := opts.Resource.LimitWriter(ctx, wb)
	if err := Write(w, p, func(o *WriteOptions) { *o = opts.WriteOptions }); err != nil {
		discard(ctx, store, name, wb)
		return err
	}

	if err := wb.Close(); err != nil {
		return fmt.Errorf("snapshot: commit %s: %w", name, err)
	}
	return nil
}

// Load reads the snapshot stored under name.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...func(*LoadOptions)) (*termgo.Program, error) {
	var opts LoadOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", name, err)
	}
	defer b.Close()

	readOpts := func(o *ReadOptions) { *o = opts.ReadOptions }

	if m, ok := b.(blobstore.Mappable); ok {
		if data, err := m.Bytes(); err == nil {
			return Read(bytes.NewReader(data), readOpts)
		}
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	defer rc.Close()

	return Read(opts.Resource.LimitReader(ctx, rc), readOpts)
}

// Stat decodes the info section of the snapshot stored under name
// without replaying it.
func Stat(ctx context.Context, store blobstore.Store, name string) (*Info, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", name, err)
	}
	defer b.Close()

	length := int64(headerSize + maxInfoLen)
	if size := b.Size(); size < length {
		length = size
	}
	rc, err := b.ReadRange(ctx, 0, length)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	defer rc.Close()

	return ReadInfo(rc)
}

// discard cleans up after a failed streaming save. Blobs with an Abort
// hook cancel the upload; otherwise the committed partial object is
// deleted.
func discard(ctx context.Context, store blobstore.Store, name string, wb blobstore.WritableBlob) {
	if a, ok := wb.(aborter); ok {
		_ = a.Abort(ctx)
		return
	}
	_ = wb.Close()
	_ = store.Delete(ctx, name)
}
