// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// FormatAuto selects the report variant by sniffing the document.
const FormatAuto = "auto"

// ErrNoTarget indicates publishing was requested without a repository or commit.
var ErrNoTarget = errors.New("publish target requires repository and head SHA")

// ReportFile is one raw report document and the name it was read from.
type ReportFile struct {
	Name string
	Doc  []byte
}

// Target identifies the commit a check run is attached to.
type Target struct {
	Repository string // owner/repo
	HeadSHA    string
}

// ReportResult is the outcome of processing one report file.
type ReportResult struct {
	Source     string
	Report     *model.TestReport
	CheckRun   model.CheckRun
	CheckRunID int64 // Zero when not published.
	RunID      int64 // Zero when no store is configured.
}

// ReportService normalizes test reports into check runs, optionally posts
// them and records them in the run history. A nil publisher makes every call
// a dry run; a nil store disables history.
type ReportService struct {
	registry  driven.ReportNormalizerRegistry
	publisher driven.CheckPublisher
	store     driven.RunStore
	workers   int
}

// NewReportService creates a ReportService with the given dependencies.
func NewReportService(
	registry driven.ReportNormalizerRegistry,
	publisher driven.CheckPublisher,
	store driven.RunStore,
) *ReportService {
	return &ReportService{
		registry:  registry,
		publisher: publisher,
		store:     store,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// Normalize parses doc with the named variant, or detects it when format is
// empty or FormatAuto.
func (s *ReportService) Normalize(format string, doc []byte) (*model.TestReport, error) {
	var (
		n   driven.ReportNormalizer
		err error
	)
	if format == "" || format == FormatAuto {
		n, err = s.registry.Detect(doc)
	} else {
		n, err = s.registry.Lookup(format)
	}
	if err != nil {
		return nil, err
	}

	return n.Normalize(doc)
}

// Publish normalizes one report and builds its check run. The run is posted
// only when a publisher is configured, and recorded only when a store is.
func (s *ReportService) Publish(ctx context.Context, target Target, format string, file ReportFile) (*ReportResult, error) {
	report, err := s.Normalize(format, file.Doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", file.Name, err)
	}

	run := report.CheckRun(target.HeadSHA)
	result := &ReportResult{Source: file.Name, Report: report, CheckRun: run}

	if run.Output != nil && run.Output.Dropped > 0 {
		slog.Warn("annotations over the per-request limit were dropped",
			"file", file.Name,
			"attached", len(run.Output.Annotations),
			"dropped", run.Output.Dropped,
		)
	}

	if s.publisher == nil && s.store == nil {
		return result, nil
	}
	if target.Repository == "" || target.HeadSHA == "" {
		return nil, fmt.Errorf("publishing %s: %w", file.Name, ErrNoTarget)
	}

	if s.publisher != nil {
		id, err := s.publisher.CreateCheckRun(ctx, target.Repository, run)
		if err != nil {
			return nil, fmt.Errorf("publishing %s: %w", file.Name, err)
		}
		result.CheckRunID = id
		slog.Info("check run created",
			"repo", target.Repository,
			"sha", target.HeadSHA,
			"name", run.Name,
			"conclusion", run.Conclusion,
			"id", id,
		)
	}

	if s.store != nil {
		runID, err := s.store.SaveReportRun(ctx, model.NewReportRun(target.Repository, report, run, result.CheckRunID))
		if err != nil {
			return nil, fmt.Errorf("recording %s: %w", file.Name, err)
		}
		result.RunID = runID
	}

	return result, nil
}

// PublishAll processes several report files concurrently. Results keep the
// order of files. The first error cancels the remaining work.
func (s *ReportService) PublishAll(ctx context.Context, target Target, format string, files []ReportFile) ([]ReportResult, error) {
	results := make([]ReportResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.Publish(ctx, target, format, file)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Run returns a recorded report run.
func (s *ReportService) Run(ctx context.Context, id int64) (*model.ReportRun, error) {
	if s.store == nil {
		return nil, driven.ErrRunNotFound
	}
	return s.store.GetReportRun(ctx, id)
}

// Runs lists the newest recorded runs for a repository.
func (s *ReportService) Runs(ctx context.Context, repoFullName string, limit int) ([]model.ReportRun, error) {
	if s.store == nil {
		return []model.ReportRun{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListReportRuns(ctx, repoFullName, limit)
}
