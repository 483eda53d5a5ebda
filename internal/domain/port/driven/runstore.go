package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// ErrRunNotFound indicates the requested report run does not exist.
var ErrRunNotFound = errors.New("report run not found")

// RunStore defines the driven port for report and coverage history.
type RunStore interface {
	// SaveReportRun inserts the run and returns its database ID.
	SaveReportRun(ctx context.Context, run model.ReportRun) (int64, error)
	// GetReportRun returns ErrRunNotFound if no run has the given ID.
	GetReportRun(ctx context.Context, id int64) (*model.ReportRun, error)
	// ListReportRuns returns the newest runs for a repository first, at most limit.
	ListReportRuns(ctx context.Context, repoFullName string, limit int) ([]model.ReportRun, error)

	SaveCoverage(ctx context.Context, record model.CoverageRecord) (int64, error)
	// LatestCoverage returns (nil, nil) when the repository has no coverage yet.
	LatestCoverage(ctx context.Context, repoFullName string) (*model.CoverageRecord, error)
}
