// ABOUTME: Store interfaces and data types for folder-icons persistence
// ABOUTME: Defines Folder, Job, Run and the FolderStore/JobStore interfaces

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/status"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateFolder is returned when a folder with the same ID already exists
var ErrDuplicateFolder = errors.New("folder already exists")

// ErrDuplicateJob is returned when a folder already has a job with the same name
var ErrDuplicateJob = errors.New("job already exists")

// ErrStopWalk may be returned from a WalkFolders callback to end the walk early.
// WalkFolders itself then returns nil.
var ErrStopWalk = errors.New("stop walk")

// Folder is a grouping entity that may carry an icon configuration
type Folder struct {
	ID        string
	ParentID  string // empty for top-level folders
	Name      string
	Icon      icon.Config
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job is a runnable child of a folder, as reported by the CI engine
type Job struct {
	ID        string
	FolderID  string
	Name      string
	Disabled  bool
	CreatedAt time.Time
}

// Run is a single build of a job
type Run struct {
	JobID     string
	Number    int
	Result    status.Result
	Building  bool
	StartedAt time.Time
}

// FolderStore persists folders and their icon configuration
type FolderStore interface {
	CreateFolder(ctx context.Context, folder *Folder) error
	GetFolder(ctx context.Context, id string) (*Folder, error)
	ListFolders(ctx context.Context) ([]*Folder, error)

	// WalkFolders calls fn for every folder. Returning ErrStopWalk from fn ends
	// the walk without error; any other error aborts it and is returned.
	WalkFolders(ctx context.Context, fn func(*Folder) error) error

	// UpdateFolderIcon replaces the folder's icon and returns the previous one.
	UpdateFolderIcon(ctx context.Context, id string, cfg icon.Config) (icon.Config, error)

	// DeleteFolder removes the folder and all descendant folders and jobs.
	// The removed folders are returned, the requested folder first.
	DeleteFolder(ctx context.Context, id string) ([]*Folder, error)
}

// JobStore persists the job/run read model used for status aggregation
type JobStore interface {
	UpsertJob(ctx context.Context, job *Job) error
	GetJobByName(ctx context.Context, folderID, name string) (*Job, error)

	// ListJobs returns the jobs of the folder and all its descendant folders.
	ListJobs(ctx context.Context, folderID string) ([]*Job, error)

	RecordRun(ctx context.Context, run *Run) error

	// RecentRuns returns up to limit runs of the job, newest first.
	RecentRuns(ctx context.Context, jobID string, limit int) ([]*Run, error)

	// StatusJobs returns the folder's jobs (recursively) in the shape the
	// status aggregator expects: the newest run first, followed by the newest
	// completed run when the newest is still building.
	StatusJobs(ctx context.Context, folderID string) ([]status.Job, error)
}

// Store combines all persistence interfaces
type Store interface {
	FolderStore
	JobStore

	// Close releases any resources held by the store
	Close() error
}
