package mediastore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"roastreel/internal/services"
)

// Store is the contract the pipeline holds against media persistence. Blobs
// are immutable after Put and keyed by freshly generated identifiers; no two
// sessions ever share an identifier.
type Store interface {
	// Put streams a new blob into the store and returns its identifier.
	Put(ctx context.Context, r io.Reader) (string, error)
	// PutFile moves an already-written file into the store, returning its
	// identifier. Used by tools that must write output paths directly.
	PutFile(ctx context.Context, path string) (string, error)
	// Exists reports whether the identifier resolves to a stored blob.
	Exists(id string) bool
	// Open returns a reader over the stored blob, or services.ErrNotFound.
	Open(id string) (io.ReadCloser, error)
	// PathFor resolves an identifier to a filesystem path for external tool
	// invocation. The blob must exist.
	PathFor(id string) (string, error)
	// Remove deletes a stored blob. Removing an unknown id is not an error.
	Remove(id string) error
	// ScratchPath returns a path under the store suitable for staging a new
	// artifact before PutFile. The caller owns cleanup.
	ScratchPath(suffix string) string
}

// DiskStore persists media blobs as <uuid>.mp4 files under a single directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the backing directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("media store: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media store: create directory %q: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Put(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	target := s.pathFor(id)
	tmp := target + ".partial"

	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("media store: create %q: %w", tmp, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("media store: write blob: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("media store: close blob: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("media store: commit blob: %w", err)
	}
	return id, nil
}

func (s *DiskStore) PutFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("media store: stat source %q: %w", path, err)
	}
	id := uuid.NewString()
	if err := os.Rename(path, s.pathFor(id)); err != nil {
		return "", fmt.Errorf("media store: move %q into store: %w", path, err)
	}
	return id, nil
}

func (s *DiskStore) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	info, err := os.Stat(s.pathFor(id))
	return err == nil && !info.IsDir()
}

func (s *DiskStore) Open(id string) (io.ReadCloser, error) {
	if !s.Exists(id) {
		return nil, services.Wrap(services.ErrNotFound, "media store", "open", fmt.Sprintf("no media stored under %q", id), nil)
	}
	file, err := os.Open(s.pathFor(id))
	if err != nil {
		return nil, fmt.Errorf("media store: open %q: %w", id, err)
	}
	return file, nil
}

func (s *DiskStore) PathFor(id string) (string, error) {
	if !s.Exists(id) {
		return "", services.Wrap(services.ErrNotFound, "media store", "resolve path", fmt.Sprintf("no media stored under %q", id), nil)
	}
	return s.pathFor(id), nil
}

func (s *DiskStore) Remove(id string) error {
	if !validID(id) {
		return nil
	}
	if err := os.Remove(s.pathFor(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media store: remove %q: %w", id, err)
	}
	return nil
}

func (s *DiskStore) ScratchPath(suffix string) string {
	return filepath.Join(s.dir, "scratch-"+uuid.NewString()+suffix)
}

func (s *DiskStore) pathFor(id string) string {
	return filepath.Join(s.dir, id+".mp4")
}

// validID rejects anything that is not a uuid before it can reach path
// construction.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
