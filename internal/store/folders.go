// ABOUTME: Folder persistence for SQLiteStore
// ABOUTME: Icon configuration is stored as serialized JSON on the folder row

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/folder-icons/internal/icon"
)

// CreateFolder inserts a new folder. An empty ID is assigned a UUID.
// Returns ErrNotFound if ParentID names a folder that does not exist.
func (s *SQLiteStore) CreateFolder(ctx context.Context, folder *Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	if folder.UpdatedAt.IsZero() {
		folder.UpdatedAt = now
	}

	iconJSON, err := json.Marshal(folder.Icon)
	if err != nil {
		return fmt.Errorf("encoding icon: %w", err)
	}

	if folder.ParentID != "" {
		if _, err := s.GetFolder(ctx, folder.ParentID); err != nil {
			return fmt.Errorf("parent folder %q: %w", folder.ParentID, err)
		}
	}

	query := `
		INSERT INTO folders (id, parent_id, name, icon_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		folder.ID,
		nullString(folder.ParentID),
		folder.Name,
		string(iconJSON),
		formatTime(folder.CreatedAt),
		formatTime(folder.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateFolder, folder.ID)
		}
		return fmt.Errorf("inserting folder: %w", err)
	}

	s.logger.Debug("created folder", "id", folder.ID, "name", folder.Name)
	return nil
}

const folderColumns = `id, parent_id, name, icon_json, created_at, updated_at`

const treeFolderColumns = `f.id, f.parent_id, f.name, f.icon_json, f.created_at, f.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanFolder(row rowScanner) (*Folder, error) {
	var f Folder
	var parentID sql.NullString
	var iconJSON, createdAt, updatedAt string

	if err := row.Scan(&f.ID, &parentID, &f.Name, &iconJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if parentID.Valid {
		f.ParentID = parentID.String
	}
	if err := json.Unmarshal([]byte(iconJSON), &f.Icon); err != nil {
		// A corrupt icon attribute must not hide the folder; treat it as the default icon.
		s.logger.Warn("failed to decode folder icon", "id", f.ID, "error", err)
		f.Icon = icon.Config{}
	}
	f.CreatedAt = s.parseTime(createdAt, "created_at", f.ID)
	f.UpdatedAt = s.parseTime(updatedAt, "updated_at", f.ID)
	return &f, nil
}

// GetFolder retrieves a folder by ID.
// Returns ErrNotFound if the folder doesn't exist.
func (s *SQLiteStore) GetFolder(ctx context.Context, id string) (*Folder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id)
	f, err := s.scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return f, nil
}

// ListFolders returns every folder ordered by creation time.
func (s *SQLiteStore) ListFolders(ctx context.Context) ([]*Folder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+folderColumns+` FROM folders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		f, err := s.scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}
	return folders, nil
}

// WalkFolders reads the current set of folders and calls fn for each.
// The rows are fully read before fn runs, so fn may use the store.
func (s *SQLiteStore) WalkFolders(ctx context.Context, fn func(*Folder) error) error {
	folders, err := s.ListFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if err := fn(f); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}

// UpdateFolderIcon replaces the folder's icon configuration and returns the previous one.
// Returns ErrNotFound if the folder doesn't exist.
func (s *SQLiteStore) UpdateFolderIcon(ctx context.Context, id string, cfg icon.Config) (icon.Config, error) {
	iconJSON, err := json.Marshal(cfg)
	if err != nil {
		return icon.Config{}, fmt.Errorf("encoding icon: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return icon.Config{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.scanFolder(tx.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return icon.Config{}, ErrNotFound
	}
	if err != nil {
		return icon.Config{}, fmt.Errorf("querying folder: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE folders SET icon_json = ?, updated_at = ? WHERE id = ?`,
		string(iconJSON), formatTime(time.Now()), id,
	)
	if err != nil {
		return icon.Config{}, fmt.Errorf("updating folder icon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return icon.Config{}, fmt.Errorf("committing folder icon: %w", err)
	}

	s.logger.Debug("updated folder icon", "id", id, "kind", cfg.EffectiveKind())
	return current.Icon, nil
}

// descendantsQuery selects the folder and every folder below it, the root first.
const descendantsQuery = `
	WITH RECURSIVE tree(id, depth) AS (
		SELECT id, 0 FROM folders WHERE id = ?
		UNION ALL
		SELECT f.id, t.depth + 1 FROM folders f JOIN tree t ON f.parent_id = t.id
	)
`

// DeleteFolder removes the folder tree rooted at id together with its jobs and runs.
// Returns ErrNotFound if the folder doesn't exist.
func (s *SQLiteStore) DeleteFolder(ctx context.Context, id string) ([]*Folder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, descendantsQuery+`
		SELECT `+treeFolderColumns+`
		FROM folders f JOIN tree t ON f.id = t.id
		ORDER BY t.depth, f.created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("querying folder tree: %w", err)
	}
	var removed []*Folder
	for rows.Next() {
		f, err := s.scanFolder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		removed = append(removed, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating folder tree: %w", err)
	}
	rows.Close()

	if len(removed) == 0 {
		return nil, ErrNotFound
	}

	// Delete explicitly rather than relying on ON DELETE CASCADE.
	statements := []string{
		`DELETE FROM runs WHERE job_id IN (SELECT id FROM jobs WHERE folder_id IN (SELECT id FROM tree))`,
		`DELETE FROM jobs WHERE folder_id IN (SELECT id FROM tree)`,
		`DELETE FROM folders WHERE id IN (SELECT id FROM tree)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, descendantsQuery+stmt, id); err != nil {
			return nil, fmt.Errorf("deleting folder tree: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing folder deletion: %w", err)
	}

	s.logger.Debug("deleted folder tree", "id", id, "folders", len(removed))
	return removed, nil
}
