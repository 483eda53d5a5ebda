package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/badge"
	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/coverage"
	"github.com/ericfisherdev/ciannotate/internal/application"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

type badgeOptions struct {
	format     string
	metric     string
	thresholds string
	comment    bool
	pr         int
}

func newBadgeCommand(a *app) *cobra.Command {
	opts := &badgeOptions{}

	cmd := &cobra.Command{
		Use:   "badge [flags] REPORT BADGE.svg",
		Short: "Render a coverage badge from a coverage summary",
		Long: `Read a Jest (istanbul json-summary) or coverage.py JSON report, compute the
relative coverage of one metric and write a shields-style SVG badge whose color
is chosen by descending thresholds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBadge(cmd, opts, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", coverage.FormatJest, "coverage format: "+strings.Join(coverage.Formats(), ", "))
	f.StringVar(&opts.metric, "metric", "", "metric to badge (default: config metric)")
	f.StringVar(&opts.thresholds, "thresholds", "", "five descending thresholds, e.g. "+model.DefaultThresholds+" (default: config thresholds)")
	f.BoolVar(&opts.comment, "comment", false, "comment the coverage table on the pull request")
	f.IntVar(&opts.pr, "pr", 0, "pull request number (default: from the event payload)")

	return cmd
}

func (a *app) runBadge(cmd *cobra.Command, opts *badgeOptions, reportPath, badgePath string) error {
	cfg := a.cfg

	metric, err := model.ParseMetric(firstNonEmpty(opts.metric, string(cfg.Metric)))
	if err != nil {
		return err
	}
	color, err := model.ParseBadgeColor(firstNonEmpty(opts.thresholds, cfg.Thresholds))
	if err != nil {
		return err
	}

	report, err := os.Open(reportPath)
	if err != nil {
		return fmt.Errorf("opening coverage report: %w", err)
	}
	defer report.Close()

	target, pr, err := a.target("")
	if err != nil {
		return err
	}
	if opts.pr > 0 {
		pr = opts.pr
	}

	var publisher driven.CheckPublisher
	if opts.comment {
		if publisher, err = a.publisher(); err != nil {
			return err
		}
	}

	store, closeStore, err := a.store(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	svc := application.NewCoverageService(coverage.NewExtractor, badge.NewRenderer(), publisher, store)
	result, err := svc.Badge(cmd.Context(), application.CoverageRequest{
		Format:   opts.format,
		Metric:   metric,
		Color:    color,
		Report:   report,
		Target:   target,
		PRNumber: pr,
		Comment:  opts.comment,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(badgePath, []byte(result.Badge.SVG), 0o644); err != nil {
		return fmt.Errorf("writing badge: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), badgeLine(result.Badge, result.Metric, badgePath))
	return nil
}
