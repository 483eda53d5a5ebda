package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db  *DB
	now func() time.Time
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db, now: time.Now}
}

// SaveReportRun inserts a report run. CreatedAt defaults to the current time.
func (r *RunRepo) SaveReportRun(ctx context.Context, run model.ReportRun) (int64, error) {
	const query = `
		INSERT INTO report_runs (
			repo_full_name, head_sha, format, check_name, check_run_id, title, summary, text,
			conclusion, tests, failures, errors, skipped, duration, annotations, dropped,
			started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		run.RepoFullName, run.HeadSHA, run.Format, run.CheckName, run.CheckRunID,
		run.Title, run.Summary, run.Text, string(run.Conclusion),
		run.Tests, run.Failures, run.Errors, run.Skipped, run.Duration,
		run.Annotations, run.Dropped,
		formatTime(run.StartedAt), formatTime(run.CompletedAt), formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert report run for %s@%s: %w", run.RepoFullName, run.HeadSHA, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("report run id: %w", err)
	}

	return id, nil
}

const reportRunColumns = `
	id, repo_full_name, head_sha, format, check_name, check_run_id, title, summary, text,
	conclusion, tests, failures, errors, skipped, duration, annotations, dropped,
	started_at, completed_at, created_at
`

// GetReportRun returns the run with the given ID, or driven.ErrRunNotFound.
func (r *RunRepo) GetReportRun(ctx context.Context, id int64) (*model.ReportRun, error) {
	query := `SELECT ` + reportRunColumns + ` FROM report_runs WHERE id = ?`

	run, err := scanReportRun(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report run %d: %w", id, driven.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report run %d: %w", id, err)
	}

	return run, nil
}

// ListReportRuns returns the newest runs for a repository first.
func (r *RunRepo) ListReportRuns(ctx context.Context, repoFullName string, limit int) ([]model.ReportRun, error) {
	query := `SELECT ` + reportRunColumns + `
		FROM report_runs
		WHERE repo_full_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repoFullName, limit)
	if err != nil {
		return nil, fmt.Errorf("query report runs for %s: %w", repoFullName, err)
	}
	defer rows.Close()

	runs := []model.ReportRun{}
	for rows.Next() {
		run, err := scanReportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report runs: %w", err)
	}

	return runs, nil
}

func scanReportRun(s scanner) (*model.ReportRun, error) {
	var run model.ReportRun
	var conclusion, startedAt, completedAt, createdAt string

	err := s.Scan(
		&run.ID, &run.RepoFullName, &run.HeadSHA, &run.Format, &run.CheckName, &run.CheckRunID,
		&run.Title, &run.Summary, &run.Text, &conclusion,
		&run.Tests, &run.Failures, &run.Errors, &run.Skipped, &run.Duration,
		&run.Annotations, &run.Dropped,
		&startedAt, &completedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.Conclusion = model.CheckRunConclusion(conclusion)

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.CompletedAt, err = parseTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &run, nil
}
