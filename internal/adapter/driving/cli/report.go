package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/github"
	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/junit"
	"github.com/ericfisherdev/ciannotate/internal/application"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

type reportOptions struct {
	format        string
	root          string
	checkName     string
	vendorDirs    []string
	publish       bool
	sha           string
	failOnFailure bool
}

func newReportCommand(a *app) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report [flags] FILE...",
		Short: "Convert JUnit reports into check runs",
		Long: `Normalize one or more Jest or pytest JUnit XML reports. Each report becomes a
completed check run with one annotation per failing, erroring or skipped test.
Without --publish the result is printed only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", application.FormatAuto, "report format: auto, "+joinFormats())
	f.StringVar(&opts.root, "root", "", "directory stack trace paths are made relative to (default: workspace)")
	f.StringVar(&opts.checkName, "check-name", "", "check run name (default: config check name)")
	f.StringSliceVar(&opts.vendorDirs, "vendor-dir", nil, "directory names whose stack frames are skipped (default: config vendor dirs)")
	f.BoolVar(&opts.publish, "publish", false, "create the check runs on GitHub")
	f.StringVar(&opts.sha, "sha", "", "commit to attach the check runs to (default: pull request head or GITHUB_SHA)")
	f.BoolVar(&opts.failOnFailure, "fail-on-failure", false, "exit non-zero when a report has failures or errors")

	return cmd
}

func joinFormats() string {
	return strings.Join(junit.NewRegistry(junit.Options{}).Formats(), ", ")
}

func (a *app) runReport(cmd *cobra.Command, opts *reportOptions, paths []string) error {
	cfg := a.cfg

	files := make([]application.ReportFile, 0, len(paths))
	for _, path := range paths {
		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading report: %w", err)
		}
		files = append(files, application.ReportFile{Name: path, Doc: doc})
	}

	registry := junit.NewRegistry(junit.Options{
		RootDir:    firstNonEmpty(opts.root, cfg.Workspace),
		VendorDirs: firstNonEmptySlice(opts.vendorDirs, cfg.VendorDirs),
		CheckName:  firstNonEmpty(opts.checkName, cfg.CheckName),
	})

	target, _, err := a.target(opts.sha)
	if err != nil {
		return err
	}

	var publisher driven.CheckPublisher
	if opts.publish {
		if publisher, err = a.publisher(); err != nil {
			return err
		}
	}

	store, closeStore, err := a.store(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	svc := application.NewReportService(registry, publisher, store)
	results, err := svc.PublishAll(cmd.Context(), target, opts.format, files)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := false
	for _, res := range results {
		fmt.Fprintln(out, reportLine(res.Source, res.Report, res.CheckRun, res.CheckRunID))
		if !opts.publish && res.CheckRun.Output != nil {
			for _, ann := range res.CheckRun.Output.Annotations {
				fmt.Fprintln(out, annotationLine(ann))
			}
			if dropped := res.CheckRun.Output.Dropped; dropped > 0 {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("    ... %d more not attached", dropped)))
			}
		}
		if res.CheckRun.Conclusion == model.ConclusionFailure {
			failed = true
		}
	}

	if failed && opts.failOnFailure {
		return ErrTestsFailed
	}
	return nil
}

// target resolves the repository, commit and pull request the results belong
// to. The event payload supplies the pull request head, which differs from
// GITHUB_SHA (the merge commit) on pull_request events.
func (a *app) target(sha string) (application.Target, int, error) {
	cfg := a.cfg
	target := application.Target{Repository: cfg.Repository, HeadSHA: cfg.HeadSHA}
	pr := 0

	if cfg.EventPath != "" {
		ev, err := github.LoadEvent(cfg.EventPath)
		if err != nil {
			return target, 0, err
		}
		if ev.HeadSHA != "" {
			target.HeadSHA = ev.HeadSHA
		}
		if target.Repository == "" {
			target.Repository = ev.Repository
		}
		pr = ev.PRNumber
		slog.Debug("event payload loaded", "repo", ev.Repository, "pr", ev.PRNumber, "sha", ev.HeadSHA)
	}

	if sha != "" {
		target.HeadSHA = sha
	}
	return target, pr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
