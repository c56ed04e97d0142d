// Package manifest versions snapshot generations over a blobstore.
//
// A manifest lists the snapshot blobs that make up one committed
// generation of a program. The CURRENT blob names the latest manifest;
// readers resolve it, writers commit manifest-then-pointer. On stores
// with compare-and-swap commits (s3.CommitStore), concurrent writers
// lose with blobstore/s3.ErrConcurrentModification instead of
// clobbering each other.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/termgo/blobstore"
	"github.com/hupe1980/termgo/codec"
)

const (
	// Prefix of manifest blob names; generations are named
	// MANIFEST-000001, MANIFEST-000002, ...
	ManifestPrefix = "MANIFEST"

	// CurrentVersion is the manifest format version written by Commit.
	CurrentVersion = 1
)

// Manifest describes one committed generation of a program's snapshots.
type Manifest struct {
	Version   int            `json:"version"`
	ID        uint64         `json:"id"`
	Codec     string         `json:"codec"`
	Current   string         `json:"current"`
	Snapshots []SnapshotInfo `json:"snapshots"`
	CreatedAt time.Time      `json:"created_at"`
}

// SnapshotInfo describes a snapshot blob retained by a generation.
type SnapshotInfo struct {
	Name       string `json:"name"`
	Terms      uint32 `json:"terms"`
	Statements uint32 `json:"statements"`
	Symbols    uint32 `json:"symbols"`
	Size       int64  `json:"size,omitempty"`
}

// CurrentSnapshot returns the SnapshotInfo named by Current, if present.
func (m *Manifest) CurrentSnapshot() (SnapshotInfo, bool) {
	for _, s := range m.Snapshots {
		if s.Name == m.Current {
			return s, true
		}
	}
	return SnapshotInfo{}, false
}

// Store reads and commits manifests on a blobstore.
type Store struct {
	blobs blobstore.Store
	codec codec.Codec
	mu    sync.Mutex
}

// Option mutates a Store during construction.
type Option func(*Store)

// WithCodec selects the encoding for manifest bodies. Defaults to
// codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a manifest store over blobs.
func NewStore(blobs blobstore.Store, optFns ...Option) *Store {
	s := &Store{
		blobs: blobs,
		codec: codec.Default,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Load resolves CURRENT and decodes the manifest it names. When
// nothing has been committed yet it returns an empty generation with
// ID 0.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readAll(ctx, blobstore.CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return &Manifest{Version: CurrentVersion, Codec: s.codec.Name()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CURRENT: %w", err)
	}

	name := strings.TrimSpace(string(current))
	data, err := s.readAll(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var m Manifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported manifest version: %d (expected %d)", m.Version, CurrentVersion)
	}

	return &m, nil
}

// Commit writes m as the next generation: the manifest body first,
// then the CURRENT pointer. m.ID is incremented to the new generation.
func (s *Store) Commit(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.Codec = s.codec.Name()
	m.ID++
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := s.codec.Marshal(m)
	if err != nil {
		m.ID--
		return fmt.Errorf("encode manifest: %w", err)
	}

	name := fmt.Sprintf("%s-%06d", ManifestPrefix, m.ID)
	if err := s.blobs.Put(ctx, name, data); err != nil {
		m.ID--
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := s.blobs.Put(ctx, blobstore.CurrentName, []byte(name)); err != nil {
		m.ID--
		return fmt.Errorf("commit CURRENT: %w", err)
	}

	return nil
}

// Prune deletes manifest blobs older than the keep most recent
// generations. The CURRENT pointer and snapshot blobs are untouched.
func (s *Store) Prune(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}

	names, err := s.blobs.List(ctx, ManifestPrefix+"-")
	if err != nil {
		return fmt.Errorf("list manifests: %w", err)
	}
	if len(names) <= keep {
		return nil
	}

	// List is sorted and the names are zero-padded, so the oldest
	// generations come first.
	for _, name := range names[:len(names)-keep] {
		if err := s.blobs.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) readAll(ctx context.Context, name string) ([]byte, error) {
	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()
	return blobstore.ReadAll(ctx, blob)
}
