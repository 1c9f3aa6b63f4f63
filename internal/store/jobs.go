// ABOUTME: Job and run persistence for SQLiteStore
// ABOUTME: Read model of CI engine state, consumed by the status aggregator

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/folder-icons/internal/status"
)

// UpsertJob creates the job, or updates the Disabled flag of an existing job
// with the same folder and name. job.ID is set to the stored job's ID.
func (s *SQLiteStore) UpsertJob(ctx context.Context, job *Job) error {
	if _, err := s.GetFolder(ctx, job.FolderID); err != nil {
		return fmt.Errorf("folder %q: %w", job.FolderID, err)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO jobs (id, folder_id, name, disabled, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(folder_id, name) DO UPDATE SET disabled = excluded.disabled
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.FolderID,
		job.Name,
		boolToInt(job.Disabled),
		formatTime(job.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateJob
		}
		return fmt.Errorf("upserting job: %w", err)
	}

	stored, err := s.GetJobByName(ctx, job.FolderID, job.Name)
	if err != nil {
		return err
	}
	*job = *stored

	s.logger.Debug("upserted job", "id", job.ID, "folder_id", job.FolderID, "name", job.Name)
	return nil
}

func (s *SQLiteStore) scanJob(row rowScanner) (*Job, error) {
	var j Job
	var disabled int
	var createdAt string
	if err := row.Scan(&j.ID, &j.FolderID, &j.Name, &disabled, &createdAt); err != nil {
		return nil, err
	}
	j.Disabled = disabled != 0
	j.CreatedAt = s.parseTime(createdAt, "created_at", j.ID)
	return &j, nil
}

// GetJobByName retrieves a job by folder and name.
// Returns ErrNotFound if the job doesn't exist.
func (s *SQLiteStore) GetJobByName(ctx context.Context, folderID, name string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, folder_id, name, disabled, created_at FROM jobs WHERE folder_id = ? AND name = ?`,
		folderID, name)
	j, err := s.scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}
	return j, nil
}

// ListJobs returns the jobs of the folder and of every folder below it, ordered by name.
func (s *SQLiteStore) ListJobs(ctx context.Context, folderID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, descendantsQuery+`
		SELECT j.id, j.folder_id, j.name, j.disabled, j.created_at
		FROM jobs j JOIN tree t ON j.folder_id = t.id
		ORDER BY j.name, j.id`, folderID)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := s.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// RecordRun inserts or replaces a run of a job.
// Returns ErrNotFound if the job doesn't exist.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE id = ?`, run.JobID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("querying job: %w", err)
	}

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (job_id, number, result, building, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id, number) DO UPDATE SET
			result = excluded.result,
			building = excluded.building
	`
	_, err = s.db.ExecContext(ctx, query,
		run.JobID,
		run.Number,
		run.Result.String(),
		boolToInt(run.Building),
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	s.logger.Debug("recorded run", "job_id", run.JobID, "number", run.Number,
		"result", run.Result.String(), "building", run.Building)
	return nil
}

// RecentRuns returns up to limit runs of the job, newest first.
// A non-positive limit returns every run.
func (s *SQLiteStore) RecentRuns(ctx context.Context, jobID string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, number, result, building, started_at
		FROM runs WHERE job_id = ?
		ORDER BY number DESC
		LIMIT ?`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var result, startedAt string
		var building int
		if err := rows.Scan(&r.JobID, &r.Number, &result, &building, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Building = building != 0
		if r.Result, err = status.ParseResult(result); err != nil {
			s.logger.Warn("ignoring unknown run result", "result", result, "error", err)
		}
		r.StartedAt = s.parseTime(startedAt, "started_at", r.JobID)
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// StatusJobs returns the folder's jobs with the runs the aggregator needs:
// the newest run, and the newest completed run if the newest is still building.
func (s *SQLiteStore) StatusJobs(ctx context.Context, folderID string) ([]status.Job, error) {
	jobs, err := s.ListJobs(ctx, folderID)
	if err != nil {
		return nil, err
	}

	out := make([]status.Job, 0, len(jobs))
	for _, j := range jobs {
		sj := status.Job{Name: j.Name, Buildable: !j.Disabled}

		latest, err := s.queryRun(ctx,
			`SELECT number, result, building FROM runs WHERE job_id = ? ORDER BY number DESC LIMIT 1`, j.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			sj.Runs = append(sj.Runs, *latest)
			if latest.Building {
				completed, err := s.queryRun(ctx,
					`SELECT number, result, building FROM runs
					 WHERE job_id = ? AND building = 0 AND number < ?
					 ORDER BY number DESC LIMIT 1`, j.ID, latest.Number)
				if err != nil {
					return nil, err
				}
				if completed != nil {
					sj.Runs = append(sj.Runs, *completed)
				}
			}
		}

		out = append(out, sj)
	}
	return out, nil
}

func (s *SQLiteStore) queryRun(ctx context.Context, query string, args ...any) (*status.Run, error) {
	var r status.Run
	var result string
	var building int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&r.Number, &result, &building)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	r.Building = building != 0
	if r.Result, err = status.ParseResult(result); err != nil {
		s.logger.Warn("ignoring unknown run result", "result", result, "error", err)
		r.Result = status.ResultNone
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
