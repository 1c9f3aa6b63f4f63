// ABOUTME: Reference index answering which asset identities folders still use
// ABOUTME: Every query is a full scan of the folder store; nothing is cached

package refindex

import (
	"context"
	"fmt"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/store"
)

// Walker visits every folder. store.FolderStore satisfies it.
type Walker interface {
	WalkFolders(ctx context.Context, fn func(*store.Folder) error) error
}

// Index derives asset references from folder icon configurations.
type Index struct {
	walker Walker
}

// New creates an Index over the given folders.
func New(w Walker) *Index {
	return &Index{walker: w}
}

// UsedIdentities returns every identity referenced by a custom icon.
// Blank identities and other icon kinds are ignored.
func (i *Index) UsedIdentities(ctx context.Context) (map[assetstore.Identity]struct{}, error) {
	used := make(map[assetstore.Identity]struct{})
	err := i.walker.WalkFolders(ctx, func(f *store.Folder) error {
		if id, ok := f.Icon.AssetIdentity(); ok {
			used[assetstore.Identity(id)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning folders: %w", err)
	}
	return used, nil
}

// ReferencedBy returns the IDs of the folders whose icon references id.
func (i *Index) ReferencedBy(ctx context.Context, id assetstore.Identity) ([]string, error) {
	var folders []string
	err := i.walker.WalkFolders(ctx, func(f *store.Folder) error {
		if ref, ok := f.Icon.AssetIdentity(); ok && assetstore.Identity(ref) == id {
			folders = append(folders, f.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning folders: %w", err)
	}
	return folders, nil
}

// IsOrphan reports whether no folder other than excludingFolderID references id.
// The walk stops at the first other referencing folder.
func (i *Index) IsOrphan(ctx context.Context, id assetstore.Identity, excludingFolderID string) (bool, error) {
	orphan := true
	err := i.walker.WalkFolders(ctx, func(f *store.Folder) error {
		if f.ID == excludingFolderID {
			return nil
		}
		if ref, ok := f.Icon.AssetIdentity(); ok && assetstore.Identity(ref) == id {
			orphan = false
			return store.ErrStopWalk
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scanning folders: %w", err)
	}
	return orphan, nil
}
