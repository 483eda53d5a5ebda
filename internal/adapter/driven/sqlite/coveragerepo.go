package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// SaveCoverage inserts a coverage measurement. CreatedAt defaults to the
// current time.
func (r *RunRepo) SaveCoverage(ctx context.Context, record model.CoverageRecord) (int64, error) {
	const query = `
		INSERT INTO coverage_records (
			repo_full_name, head_sha, format, metric, covered, total, relative,
			color_name, color_code, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		record.RepoFullName, record.HeadSHA, record.Format, string(record.Metric),
		record.Covered, record.Total, record.Relative,
		record.ColorName, record.ColorCode, formatTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert coverage for %s@%s: %w", record.RepoFullName, record.HeadSHA, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("coverage record id: %w", err)
	}

	return id, nil
}

// LatestCoverage returns the newest coverage record for a repository, or
// nil, nil if none has been recorded.
func (r *RunRepo) LatestCoverage(ctx context.Context, repoFullName string) (*model.CoverageRecord, error) {
	const query = `
		SELECT id, repo_full_name, head_sha, format, metric, covered, total, relative,
		       color_name, color_code, created_at
		FROM coverage_records
		WHERE repo_full_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var rec model.CoverageRecord
	var metric, createdAt string

	err := r.db.Reader.QueryRowContext(ctx, query, repoFullName).Scan(
		&rec.ID, &rec.RepoFullName, &rec.HeadSHA, &rec.Format, &metric,
		&rec.Covered, &rec.Total, &rec.Relative,
		&rec.ColorName, &rec.ColorCode, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest coverage for %s: %w", repoFullName, err)
	}

	rec.Metric = model.Metric(metric)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &rec, nil
}
