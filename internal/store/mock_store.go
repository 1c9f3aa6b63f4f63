// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/status"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	folders map[string]*Folder // keyed by folder ID
	order   []string           // folder IDs in creation order
	jobs    map[string]*Job    // keyed by job ID
	runs    map[string][]*Run  // keyed by job ID

	// WalkErr, when set, is returned by WalkFolders before any folder is visited.
	WalkErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		folders: make(map[string]*Folder),
		jobs:    make(map[string]*Job),
		runs:    make(map[string][]*Run),
	}
}

// CreateFolder stores a new folder.
func (m *MockStore) CreateFolder(ctx context.Context, folder *Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	if _, ok := m.folders[folder.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFolder, folder.ID)
	}
	if folder.ParentID != "" {
		if _, ok := m.folders[folder.ParentID]; !ok {
			return fmt.Errorf("parent folder %q: %w", folder.ParentID, ErrNotFound)
		}
	}
	now := time.Now().UTC()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	if folder.UpdatedAt.IsZero() {
		folder.UpdatedAt = now
	}

	f := copyFolder(folder)
	m.folders[f.ID] = f
	m.order = append(m.order, f.ID)
	return nil
}

// GetFolder retrieves a folder by ID.
func (m *MockStore) GetFolder(ctx context.Context, id string) (*Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.folders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFolder(f), nil
}

// ListFolders returns every folder in creation order.
func (m *MockStore) ListFolders(ctx context.Context) ([]*Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	folders := make([]*Folder, 0, len(m.order))
	for _, id := range m.order {
		folders = append(folders, copyFolder(m.folders[id]))
	}
	return folders, nil
}

// WalkFolders snapshots the folders and calls fn for each.
func (m *MockStore) WalkFolders(ctx context.Context, fn func(*Folder) error) error {
	if m.WalkErr != nil {
		return m.WalkErr
	}
	folders, err := m.ListFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(f); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

// UpdateFolderIcon replaces the folder's icon and returns the previous one.
func (m *MockStore) UpdateFolderIcon(ctx context.Context, id string, cfg icon.Config) (icon.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.folders[id]
	if !ok {
		return icon.Config{}, ErrNotFound
	}
	previous := f.Icon
	f.Icon = copyIcon(cfg)
	f.UpdatedAt = time.Now().UTC()
	return previous, nil
}

// DeleteFolder removes the folder tree rooted at id with its jobs and runs.
func (m *MockStore) DeleteFolder(ctx context.Context, id string) ([]*Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[id]; !ok {
		return nil, ErrNotFound
	}

	tree := m.descendantsLocked(id)
	inTree := make(map[string]bool, len(tree))
	removed := make([]*Folder, 0, len(tree))
	for _, fid := range tree {
		inTree[fid] = true
		removed = append(removed, copyFolder(m.folders[fid]))
		delete(m.folders, fid)
	}

	kept := m.order[:0]
	for _, fid := range m.order {
		if !inTree[fid] {
			kept = append(kept, fid)
		}
	}
	m.order = kept

	for jid, j := range m.jobs {
		if inTree[j.FolderID] {
			delete(m.jobs, jid)
			delete(m.runs, jid)
		}
	}
	return removed, nil
}

// descendantsLocked returns id followed by every folder below it, breadth first.
func (m *MockStore) descendantsLocked(id string) []string {
	tree := []string{id}
	for i := 0; i < len(tree); i++ {
		for _, fid := range m.order {
			if f := m.folders[fid]; f != nil && f.ParentID == tree[i] {
				tree = append(tree, fid)
			}
		}
	}
	return tree
}

// UpsertJob creates or updates a job keyed by folder and name.
func (m *MockStore) UpsertJob(ctx context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[job.FolderID]; !ok {
		return fmt.Errorf("folder %q: %w", job.FolderID, ErrNotFound)
	}
	for _, existing := range m.jobs {
		if existing.FolderID == job.FolderID && existing.Name == job.Name {
			existing.Disabled = job.Disabled
			*job = *existing
			return nil
		}
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	j := *job
	m.jobs[j.ID] = &j
	return nil
}

// GetJobByName retrieves a job by folder and name.
func (m *MockStore) GetJobByName(ctx context.Context, folderID, name string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, j := range m.jobs {
		if j.FolderID == folderID && j.Name == name {
			c := *j
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// ListJobs returns the jobs of the folder and its descendants, ordered by name.
func (m *MockStore) ListJobs(ctx context.Context, folderID string) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listJobsLocked(folderID), nil
}

func (m *MockStore) listJobsLocked(folderID string) []*Job {
	inTree := make(map[string]bool)
	if _, ok := m.folders[folderID]; ok {
		for _, fid := range m.descendantsLocked(folderID) {
			inTree[fid] = true
		}
	}

	var jobs []*Job
	for _, j := range m.jobs {
		if inTree[j.FolderID] {
			c := *j
			jobs = append(jobs, &c)
		}
	}
	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].Name != jobs[b].Name {
			return jobs[a].Name < jobs[b].Name
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs
}

// RecordRun inserts or replaces a run of a job.
func (m *MockStore) RecordRun(ctx context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[run.JobID]; !ok {
		return ErrNotFound
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	r := *run
	runs := m.runs[run.JobID]
	for i, existing := range runs {
		if existing.Number == run.Number {
			r.StartedAt = existing.StartedAt
			runs[i] = &r
			return nil
		}
	}
	m.runs[run.JobID] = append(runs, &r)
	return nil
}

// RecentRuns returns up to limit runs of the job, newest first.
func (m *MockStore) RecentRuns(ctx context.Context, jobID string, limit int) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.runs[jobID]))
	for _, r := range m.runs[jobID] {
		c := *r
		runs = append(runs, &c)
	}
	sort.Slice(runs, func(a, b int) bool { return runs[a].Number > runs[b].Number })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// StatusJobs returns the folder's jobs shaped for the status aggregator.
func (m *MockStore) StatusJobs(ctx context.Context, folderID string) ([]status.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := m.listJobsLocked(folderID)
	out := make([]status.Job, 0, len(jobs))
	for _, j := range jobs {
		sj := status.Job{Name: j.Name, Buildable: !j.Disabled}

		runs := append([]*Run(nil), m.runs[j.ID]...)
		sort.Slice(runs, func(a, b int) bool { return runs[a].Number > runs[b].Number })

		if len(runs) > 0 {
			latest := runs[0]
			sj.Runs = append(sj.Runs, status.Run{Number: latest.Number, Result: latest.Result, Building: latest.Building})
			if latest.Building {
				for _, r := range runs[1:] {
					if !r.Building {
						sj.Runs = append(sj.Runs, status.Run{Number: r.Number, Result: r.Result})
						break
					}
				}
			}
		}
		out = append(out, sj)
	}
	return out, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

func copyFolder(f *Folder) *Folder {
	c := *f
	c.Icon = copyIcon(f.Icon)
	return &c
}

func copyIcon(cfg icon.Config) icon.Config {
	if cfg.Jobs != nil {
		cfg.Jobs = append([]string(nil), cfg.Jobs...)
	}
	return cfg
}

// Compile-time checks
var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
