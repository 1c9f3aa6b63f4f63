package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/refindex"
	"github.com/2389/folder-icons/internal/store"
)

type fixture struct {
	assets *assetstore.Store
	store  *store.MockStore
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assets := assetstore.New(filepath.Join(t.TempDir(), "customFolderIcons"), logger)
	s := store.NewMockStore()
	return &fixture{
		assets: assets,
		store:  s,
		engine: New(assets, refindex.New(s), logger),
	}
}

func (f *fixture) put(t *testing.T, content string) assetstore.Identity {
	t.Helper()
	id := assetstore.NewIdentity()
	_, err := f.assets.Put(id, strings.NewReader(content))
	require.NoError(t, err)
	return id
}

func (f *fixture) folder(t *testing.T, id string, cfg icon.Config) *store.Folder {
	t.Helper()
	folder := &store.Folder{ID: id, Name: id, Icon: cfg}
	require.NoError(t, f.store.CreateFolder(context.Background(), folder))
	return folder
}

func TestOnEntityDeleted_ReleasesOrphan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.put(t, "icon")
	folder := f.folder(t, "f1", icon.Custom(id.String()))

	removed, err := f.store.DeleteFolder(ctx, folder.ID)
	require.NoError(t, err)
	for _, r := range removed {
		f.engine.OnEntityDeleted(ctx, r)
	}

	assert.False(t, f.assets.Exists(id))
}

func TestOnEntityDeleted_BeforeRemovalFromStore(t *testing.T) {
	f := newFixture(t)
	id := f.put(t, "icon")
	folder := f.folder(t, "f1", icon.Custom(id.String()))

	f.engine.OnEntityDeleted(context.Background(), folder)
	assert.False(t, f.assets.Exists(id))
}

func TestOnEntityDeleted_KeepsSharedAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.put(t, "icon")
	a := f.folder(t, "a", icon.Custom(id.String()))
	f.folder(t, "b", icon.Custom(id.String()))

	_, err := f.store.DeleteFolder(ctx, a.ID)
	require.NoError(t, err)
	f.engine.OnEntityDeleted(ctx, a)

	assert.True(t, f.assets.Exists(id))
}

func TestOnEntityDeleted_IgnoresNonCustom(t *testing.T) {
	f := newFixture(t)
	id := f.put(t, "icon")

	for _, cfg := range []icon.Config{icon.Status(), icon.Symbol("star"), icon.Custom(""), icon.Custom("not-a-uuid")} {
		f.engine.OnEntityDeleted(context.Background(), &store.Folder{ID: "x", Icon: cfg})
	}
	f.engine.OnEntityDeleted(context.Background(), nil)

	assert.True(t, f.assets.Exists(id))
}

func TestOnEntityDeleted_IndexFailureKeepsAsset(t *testing.T) {
	f := newFixture(t)
	id := f.put(t, "icon")
	f.store.WalkErr = errors.New("database locked")

	assert.NotPanics(t, func() {
		f.engine.OnEntityDeleted(context.Background(), &store.Folder{ID: "gone", Icon: icon.Custom(id.String())})
	})
	assert.True(t, f.assets.Exists(id))
}

func TestOnEntityDeleted_AssetAlreadyGone(t *testing.T) {
	f := newFixture(t)
	id := assetstore.NewIdentity()

	assert.NotPanics(t, func() {
		f.engine.OnEntityDeleted(context.Background(), &store.Folder{ID: "gone", Icon: icon.Custom(id.String())})
	})
}

func TestOnEntityReplaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.put(t, "old")
	shared := f.put(t, "shared")
	a := f.folder(t, "a", icon.Custom(old.String()))
	f.folder(t, "b", icon.Custom(shared.String()))

	previous, err := f.store.UpdateFolderIcon(ctx, a.ID, icon.Custom(shared.String()))
	require.NoError(t, err)
	f.engine.OnEntityReplaced(ctx, a.ID, previous)
	assert.False(t, f.assets.Exists(old))

	// a and b now share an asset; replacing it on a must keep it for b.
	previous, err = f.store.UpdateFolderIcon(ctx, a.ID, icon.Status())
	require.NoError(t, err)
	f.engine.OnEntityReplaced(ctx, a.ID, previous)
	assert.True(t, f.assets.Exists(shared))
}

func TestOnEntityReplaced_SameAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.put(t, "icon")
	a := f.folder(t, "a", icon.Custom(id.String()))

	previous, err := f.store.UpdateFolderIcon(ctx, a.ID, icon.Custom(id.String()))
	require.NoError(t, err)
	f.engine.OnEntityReplaced(ctx, a.ID, previous)

	assert.True(t, f.assets.Exists(id))
}

func TestSweep_DeletesUnreferenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := make([]assetstore.Identity, 5)
	for i := range ids {
		ids[i] = f.put(t, "icon")
	}
	f.folder(t, "keep", icon.Custom(ids[2].String()))

	report, err := f.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 1, report.Used)
	assert.Len(t, report.Deleted, 4)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []assetstore.Identity{ids[2]}, f.assets.List())

	// A second pass finds nothing to do.
	report, err = f.engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Deleted)
	assert.Equal(t, []assetstore.Identity{ids[2]}, f.assets.List())
}

func TestSweep_NothingUsed(t *testing.T) {
	f := newFixture(t)
	f.put(t, "a")
	f.put(t, "b")
	f.folder(t, "plain", icon.Status())

	report, err := f.engine.Sweep(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Deleted, 2)
	assert.Empty(t, f.assets.List())
}

func TestSweep_LeavesForeignFiles(t *testing.T) {
	f := newFixture(t)
	f.put(t, "a")
	foreign := filepath.Join(f.assets.Dir(), "README.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("hi"), 0644))

	_, err := f.engine.Sweep(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, foreign)
}

func TestSweep_IndexFailureDeletesNothing(t *testing.T) {
	f := newFixture(t)
	id := f.put(t, "a")
	f.store.WalkErr = errors.New("database locked")

	_, err := f.engine.Sweep(context.Background())
	require.Error(t, err)
	assert.True(t, f.assets.Exists(id))
}

func TestSweep_Concurrent(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.put(t, "icon")
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Sweep(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, f.assets.List())
}

func TestDiskUsage(t *testing.T) {
	f := newFixture(t)

	u := f.engine.DiskUsage()
	assert.Equal(t, int64(0), u.Bytes)
	assert.Equal(t, 0, u.Count)
	assert.Equal(t, "0 B", u.Human)

	f.put(t, strings.Repeat("x", 1500))
	f.put(t, strings.Repeat("y", 500))

	u = f.engine.DiskUsage()
	assert.Equal(t, int64(2000), u.Bytes)
	assert.Equal(t, 2, u.Count)
	assert.Equal(t, "2.0 kB", u.Human)
}
