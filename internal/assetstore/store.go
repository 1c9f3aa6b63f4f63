// ABOUTME: Flat-directory storage for uploaded icon images named <identity>.png
// ABOUTME: Listing and size reads degrade to empty/zero instead of failing

package assetstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Extension is the suffix of every stored asset file.
const Extension = ".png"

const (
	dirMode  os.FileMode = 0755
	fileMode os.FileMode = 0755
)

var (
	// ErrInvalidIdentity is returned for strings that are not canonical identities.
	ErrInvalidIdentity = errors.New("invalid asset identity")

	// ErrExists is returned by Put when the identity is already stored.
	ErrExists = errors.New("asset already exists")
)

// Identity names a stored asset. It is a random UUID in canonical form.
type Identity string

// NewIdentity mints a fresh random identity.
func NewIdentity() Identity {
	return Identity(uuid.New().String())
}

// ParseIdentity validates s as a canonical identity.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return Identity(u.String()), nil
}

// String returns the identity as a string.
func (id Identity) String() string {
	return string(id)
}

// Filename returns the stored file name for the identity.
func (id Identity) Filename() string {
	return string(id) + Extension
}

// Store keeps assets as individual files in one shared directory.
// It holds no in-memory state; the directory listing is the index.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir. The directory is created lazily on first Put.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "assetstore"),
	}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id Identity) string {
	return filepath.Join(s.dir, id.Filename())
}

// Put writes a new asset and returns the number of bytes written.
// It never overwrites: an existing identity yields ErrExists.
// A failed write removes the partial file.
func (s *Store) Put(id Identity, r io.Reader) (int64, error) {
	if _, err := ParseIdentity(string(id)); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return 0, fmt.Errorf("creating icon directory: %w", err)
	}

	p := s.path(id)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrExists, id)
		}
		return 0, fmt.Errorf("creating icon file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		s.remove(p)
		return n, fmt.Errorf("writing icon file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.remove(p)
		return n, fmt.Errorf("closing icon file: %w", err)
	}

	// OpenFile's mode is subject to umask.
	if err := os.Chmod(p, fileMode); err != nil {
		s.remove(p)
		return n, fmt.Errorf("setting icon file permissions: %w", err)
	}

	s.logger.Debug("stored asset", "identity", id, "bytes", n)
	return n, nil
}

func (s *Store) remove(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove partial asset", "path", p, "error", err)
	}
}

// Discard removes an asset that was stored but must not be kept, such as
// a payload rejected after writing.
func (s *Store) Discard(id Identity) {
	s.remove(s.path(id))
}

// List returns all stored identities, most recently modified first.
// A missing directory lists as empty. An entry whose modification time
// cannot be read sorts last.
func (s *Store) List() []Identity {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read icon directory", "dir", s.dir, "error", err)
		}
		return []Identity{}
	}

	type listed struct {
		id    Identity
		mtime int64
	}
	items := make([]listed, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		id, err := ParseIdentity(strings.TrimSuffix(e.Name(), Extension))
		if err != nil || id.Filename() != e.Name() {
			continue
		}

		var mtime int64
		if info, err := e.Info(); err == nil {
			mtime = info.ModTime().UnixNano()
		}
		items = append(items, listed{id: id, mtime: mtime})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].mtime != items[j].mtime {
			return items[i].mtime > items[j].mtime
		}
		return items[i].id < items[j].id
	})

	ids := make([]Identity, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids
}

// Delete removes an asset. It reports true if the asset no longer exists,
// including when it was already absent. Failures are logged and reported as false.
func (s *Store) Delete(id Identity) bool {
	if _, err := ParseIdentity(string(id)); err != nil {
		s.logger.Warn("refusing to delete invalid identity", "identity", id)
		return false
	}

	err := os.Remove(s.path(id))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	s.logger.Warn("failed to delete asset", "identity", id, "error", err)
	return false
}

// SizeOf returns the asset's size in bytes, or 0 if it cannot be read.
func (s *Store) SizeOf(id Identity) int64 {
	info, err := os.Stat(s.path(id))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Exists reports whether the asset is present.
func (s *Store) Exists(id Identity) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// ModTime returns the asset's modification time, or the zero time if unreadable.
func (s *Store) ModTime(id Identity) time.Time {
	info, err := os.Stat(s.path(id))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Open opens an asset for reading. The caller closes the file.
func (s *Store) Open(id Identity) (*os.File, fs.FileInfo, error) {
	if _, err := ParseIdentity(string(id)); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}
