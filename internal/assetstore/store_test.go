// ABOUTME: Tests for the flat-directory asset store
// ABOUTME: Covers put/list/delete/size semantics and degraded reads

package assetstore

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "customFolderIcons")
	return New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseIdentity(t *testing.T) {
	id := NewIdentity()
	parsed, err := ParseIdentity(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "abc", "../../etc/passwd", "{" + id.String() + "}", "urn:uuid:" + id.String()} {
		_, err := ParseIdentity(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentity, bad)
	}
}

func TestPut_CreatesDirectoryAndFile(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()

	n, err := s.Put(id, strings.NewReader("icon-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	info, err := os.Stat(filepath.Join(s.Dir(), id.String()+".png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, int64(10), s.SizeOf(id))
	assert.True(t, s.Exists(id))
}

func TestPut_NeverOverwrites(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()

	_, err := s.Put(id, strings.NewReader("first"))
	require.NoError(t, err)

	_, err = s.Put(id, strings.NewReader("second"))
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(filepath.Join(s.Dir(), id.Filename()))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestPut_FailedWriteRemovesPartialFile(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()

	_, err := s.Put(id, io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, s.Exists(id))
}

func TestPut_DirectoryCannotBeCreated(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := New(filepath.Join(blocker, "icons"), nil)
	_, err := s.Put(NewIdentity(), strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating icon directory")
}

func TestList_MissingDirectory(t *testing.T) {
	s := newTestStore(t)
	ids := s.List()
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	var ids []Identity
	for i := 0; i < 3; i++ {
		id := NewIdentity()
		_, err := s.Put(id, strings.NewReader("x"))
		require.NoError(t, err)
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), id.Filename()), mtime, mtime))
		ids = append(ids, id)
	}

	assert.Equal(t, []Identity{ids[2], ids[1], ids[0]}, s.List())
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()
	_, err := s.Put(id, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "README.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "not-a-uuid.png"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), NewIdentity().Filename()), 0755))

	assert.Equal(t, []Identity{id}, s.List())
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()
	_, err := s.Put(id, strings.NewReader("x"))
	require.NoError(t, err)

	assert.True(t, s.Delete(id))
	assert.False(t, s.Exists(id))

	// Absent counts as success.
	assert.True(t, s.Delete(id))
	assert.True(t, s.Delete(NewIdentity()))

	assert.False(t, s.Delete("../escape"))
}

func TestSizeOf_Unreadable(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, int64(0), s.SizeOf(NewIdentity()))
}

func TestInfo(t *testing.T) {
	s := newTestStore(t)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	id := NewIdentity()
	_, err := s.Put(id, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	info, err := s.Info(id)
	require.NoError(t, err)
	assert.Equal(t, id, info.Identity)
	assert.Equal(t, int64(buf.Len()), info.Size)
	assert.Len(t, info.Digest, 64)
	assert.True(t, strings.HasPrefix(info.Color, "#"), info.Color)

	digest, err := s.Digest(id)
	require.NoError(t, err)
	assert.Equal(t, info.Digest, digest)
}

func TestInfo_NotAnImage(t *testing.T) {
	s := newTestStore(t)
	id := NewIdentity()
	_, err := s.Put(id, strings.NewReader("plain text"))
	require.NoError(t, err)

	info, err := s.Info(id)
	require.NoError(t, err)
	assert.Empty(t, info.Color)
	assert.NotEmpty(t, info.Digest)
}

func TestInfo_Missing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Info(NewIdentity())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
