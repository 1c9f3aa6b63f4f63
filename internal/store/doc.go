// Package store provides persistent storage for folders, jobs and runs using SQLite.
//
// # Architecture
//
// The store package splits its surface into two interfaces:
//
//   - FolderStore: folders, their parent links and their icon configuration
//   - JobStore: the job/run read model used to aggregate folder status
//
// SQLiteStore implements both in a single struct. MockStore is an in-memory
// implementation of the same Store interface for unit tests.
//
// # Data Models
//
//   - Folder: grouping entity; the icon configuration is stored as JSON
//   - Job: runnable child of a folder, unique by (folder, name)
//   - Run: a numbered build of a job with its result and building flag
//
// Deleting a folder removes every descendant folder, job and run, and returns
// the removed folders so callers can release the assets they referenced.
//
// # SQLite Configuration
//
// The store uses modernc.org/sqlite with WAL mode. Foreign keys and the busy
// timeout are set through DSN pragmas so they apply to every pooled connection:
//
//	PRAGMA journal_mode=WAL;
//	_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrDuplicateJob: job name already used in the folder
//   - ErrStopWalk: returned by a WalkFolders callback to end the walk
//
// All methods accept context.Context for cancellation support.
package store
