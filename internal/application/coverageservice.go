package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// CoverageRequest describes one coverage report to turn into a badge.
type CoverageRequest struct {
	Format string
	Metric model.Metric
	Color  *model.BadgeColor // Nil selects the default thresholds.
	Report io.Reader

	// Optional: record the measurement and comment on a pull request.
	Target   Target
	PRNumber int
	Comment  bool
}

// CoverageResult is the extracted coverage and the rendered badge.
type CoverageResult struct {
	Format   string
	Metric   model.Metric
	Metrics  []model.CoverageMetric
	Badge    model.Badge
	RecordID int64
}

// CoverageService composes extractor, color selector and renderer into a
// badge, and optionally records and comments the result.
type CoverageService struct {
	newExtractor driven.CoverageExtractorFactory
	renderer     driven.BadgeRenderer
	publisher    driven.CheckPublisher
	store        driven.RunStore
}

// NewCoverageService creates a CoverageService. publisher and store may be nil.
func NewCoverageService(
	newExtractor driven.CoverageExtractorFactory,
	renderer driven.BadgeRenderer,
	publisher driven.CheckPublisher,
	store driven.RunStore,
) *CoverageService {
	return &CoverageService{
		newExtractor: newExtractor,
		renderer:     renderer,
		publisher:    publisher,
		store:        store,
	}
}

// Badge extracts the requested metric and renders the badge.
func (s *CoverageService) Badge(ctx context.Context, req CoverageRequest) (*CoverageResult, error) {
	ext, err := s.newExtractor(req.Format, req.Metric)
	if err != nil {
		return nil, err
	}
	if err := ext.Parse(req.Report); err != nil {
		return nil, fmt.Errorf("parsing %s coverage: %w", req.Format, err)
	}

	relative, err := ext.RelativeCoverage()
	if err != nil {
		return nil, fmt.Errorf("computing %s coverage: %w", req.Metric, err)
	}

	selector := req.Color
	if selector == nil {
		if selector, err = model.ParseBadgeColor(model.DefaultThresholds); err != nil {
			return nil, err
		}
	}

	color := selector.Color(relative)
	svg, err := s.renderer.Render(ctx, relative, color)
	if err != nil {
		return nil, err
	}

	result := &CoverageResult{
		Format:  req.Format,
		Metric:  req.Metric,
		Metrics: ext.Metrics(),
		Badge:   model.Badge{RelativeCoverage: relative, Color: color, SVG: svg},
	}
	slog.Debug("coverage badge created", "format", req.Format, "metric", req.Metric, "coverage", relative, "color", color.Name)

	if s.store != nil && req.Target.Repository != "" {
		rec := recordFor(req.Target, result)
		if result.RecordID, err = s.store.SaveCoverage(ctx, rec); err != nil {
			return nil, fmt.Errorf("recording coverage: %w", err)
		}
	}

	if req.Comment {
		if err := s.comment(ctx, req, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *CoverageService) comment(ctx context.Context, req CoverageRequest, result *CoverageResult) error {
	if s.publisher == nil {
		slog.Info("no publisher configured, skipping coverage comment")
		return nil
	}
	if req.Target.Repository == "" || req.PRNumber <= 0 {
		slog.Warn("coverage comment needs a pull request, skipping",
			"repo", req.Target.Repository, "pr", req.PRNumber)
		return nil
	}

	if err := s.publisher.CreateIssueComment(ctx, req.Target.Repository, req.PRNumber, CoverageCommentBody(result)); err != nil {
		return fmt.Errorf("commenting coverage: %w", err)
	}
	return nil
}

func recordFor(target Target, result *CoverageResult) model.CoverageRecord {
	rec := model.CoverageRecord{
		RepoFullName: target.Repository,
		HeadSHA:      target.HeadSHA,
		Format:       result.Format,
		Metric:       result.Metric,
		Relative:     result.Badge.RelativeCoverage,
		ColorName:    result.Badge.Color.Name,
		ColorCode:    result.Badge.Color.Code,
	}
	for _, m := range result.Metrics {
		if m.Name == result.Metric {
			rec.Covered = m.Covered
			rec.Total = m.Total
		}
	}
	return rec
}

// CoverageCommentBody renders the pull request comment for a coverage result.
func CoverageCommentBody(result *CoverageResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Coverage: %d%% %s\n\n", result.Badge.RelativeCoverage, result.Metric)
	b.WriteString("| Metric | Covered | Total | Coverage |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, m := range result.Metrics {
		rel, err := m.Relative()
		cell := "n/a"
		if err == nil {
			cell = fmt.Sprintf("%d%%", rel)
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", m.Name, m.Covered, m.Total, cell)
	}
	return b.String()
}

// LatestBadge renders the badge for the newest recorded coverage of a
// repository. It returns (nil, nil) when nothing has been recorded.
func (s *CoverageService) LatestBadge(ctx context.Context, repoFullName string) (*model.Badge, error) {
	if s.store == nil {
		return nil, nil
	}

	rec, err := s.store.LatestCoverage(ctx, repoFullName)
	if err != nil || rec == nil {
		return nil, err
	}

	color := model.PaletteEntry{Name: rec.ColorName, Code: rec.ColorCode}
	svg, err := s.renderer.Render(ctx, rec.Relative, color)
	if err != nil {
		return nil, err
	}

	return &model.Badge{RelativeCoverage: rec.Relative, Color: color, SVG: svg}, nil
}

// LatestCoverage returns the newest coverage record, or nil when none exists.
func (s *CoverageService) LatestCoverage(ctx context.Context, repoFullName string) (*model.CoverageRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.LatestCoverage(ctx, repoFullName)
}
