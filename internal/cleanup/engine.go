// ABOUTME: Releases uploaded icon assets once no folder references them
// ABOUTME: Lifecycle hooks are best-effort; Sweep removes every unreferenced asset

package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/refindex"
	"github.com/2389/folder-icons/internal/store"
)

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	Scanned int                   `json:"scanned"`
	Used    int                   `json:"used"`
	Deleted []assetstore.Identity `json:"deleted"`
	Failed  []assetstore.Identity `json:"failed"`
}

// Usage is the storage consumed by uploaded assets.
type Usage struct {
	Bytes int64  `json:"bytes"`
	Human string `json:"usage"`
	Count int    `json:"count"`
}

// Engine deletes assets that are no longer referenced.
type Engine struct {
	assets *assetstore.Store
	index  *refindex.Index
	logger *slog.Logger
	sweeps singleflight.Group
}

// New creates a cleanup Engine.
func New(assets *assetstore.Store, index *refindex.Index, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		assets: assets,
		index:  index,
		logger: logger.With("component", "cleanup"),
	}
}

// OnEntityDeleted releases the folder's custom icon asset if no other folder uses it.
// It never fails: errors are logged so folder deletion is not blocked.
func (e *Engine) OnEntityDeleted(ctx context.Context, f *store.Folder) {
	if f == nil {
		return
	}
	e.release(ctx, f.ID, f.Icon, f.ID, "folder deleted")
}

// OnEntityReplaced releases the asset of a folder's previous icon configuration.
// It must run after the new configuration is persisted: the folder itself is
// not excluded, so an asset it still uses is kept. Same failure policy as
// OnEntityDeleted.
func (e *Engine) OnEntityReplaced(ctx context.Context, folderID string, previous icon.Config) {
	e.release(ctx, folderID, previous, "", "icon replaced")
}

func (e *Engine) release(ctx context.Context, folderID string, cfg icon.Config, excluding, reason string) {
	ref, ok := cfg.AssetIdentity()
	if !ok {
		return
	}
	id, err := assetstore.ParseIdentity(ref)
	if err != nil {
		e.logger.Warn("folder referenced a malformed asset identity", "folder_id", folderID, "identity", ref)
		return
	}

	orphan, err := e.index.IsOrphan(ctx, id, excluding)
	if err != nil {
		e.logger.Warn("failed to check asset references", "identity", id, "folder_id", folderID, "error", err)
		return
	}
	if !orphan {
		e.logger.Debug("asset still referenced", "identity", id, "folder_id", folderID)
		return
	}

	if e.assets.Delete(id) {
		e.logger.Info("released asset", "identity", id, "folder_id", folderID, "reason", reason)
	}
}

// Sweep deletes every stored asset that no folder references.
// Concurrent callers share the pass in flight. A failure to scan folders aborts
// the sweep before anything is deleted; individual delete failures do not.
func (e *Engine) Sweep(ctx context.Context) (SweepReport, error) {
	v, err, shared := e.sweeps.Do("sweep", func() (any, error) {
		return e.sweep(ctx)
	})
	if err != nil {
		return SweepReport{}, err
	}
	if shared {
		e.logger.Debug("joined sweep in flight")
	}
	return v.(SweepReport), nil
}

func (e *Engine) sweep(ctx context.Context) (SweepReport, error) {
	listed := e.assets.List()
	report := SweepReport{
		Scanned: len(listed),
		Deleted: []assetstore.Identity{},
		Failed:  []assetstore.Identity{},
	}

	used, err := e.index.UsedIdentities(ctx)
	if err != nil {
		return report, fmt.Errorf("computing used identities: %w", err)
	}
	report.Used = len(used)

	for _, id := range listed {
		if _, ok := used[id]; ok {
			continue
		}
		if e.assets.Delete(id) {
			report.Deleted = append(report.Deleted, id)
		} else {
			report.Failed = append(report.Failed, id)
		}
	}

	e.logger.Info("sweep complete",
		"scanned", report.Scanned,
		"used", report.Used,
		"deleted", len(report.Deleted),
		"failed", len(report.Failed),
	)
	return report, nil
}

// DiskUsage sums the size of every stored asset.
func (e *Engine) DiskUsage() Usage {
	var u Usage
	for _, id := range e.assets.List() {
		u.Bytes += e.assets.SizeOf(id)
		u.Count++
	}
	u.Human = humanize.Bytes(uint64(u.Bytes))
	return u
}
