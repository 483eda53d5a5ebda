package web

import (
	"fmt"
	"time"

	vm "github.com/ericfisherdev/ciannotate/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

const timeDisplayLayout = "2006-01-02 15:04:05 MST"

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeDisplayLayout)
}

func toRunSummaryViewModel(run model.ReportRun) vm.RunSummaryViewModel {
	return vm.RunSummaryViewModel{
		ID:          run.ID,
		HeadSHA:     shortSHA(run.HeadSHA),
		CheckName:   run.CheckName,
		Format:      run.Format,
		Conclusion:  string(run.Conclusion),
		Counts:      fmt.Sprintf("%d tests, %d failures, %d errors, %d skipped", run.Tests, run.Failures, run.Errors, run.Skipped),
		CompletedAt: displayTime(run.CompletedAt),
		DetailPath:  fmt.Sprintf("/runs/%d", run.ID),
	}
}

// toRunDetailViewModel converts a recorded run into the run page model. The
// digest is rendered through the markdown sanitizer.
func toRunDetailViewModel(run model.ReportRun) vm.RunDetailViewModel {
	d := vm.RunDetailViewModel{
		RunSummaryViewModel: toRunSummaryViewModel(run),
		Repository:          run.RepoFullName,
		RepoPath:            "/repos/" + run.RepoFullName,
		FullSHA:             run.HeadSHA,
		Title:               run.Title,
		Summary:             run.Summary,
		Duration:            model.FormatSeconds(run.Duration) + "s",
		Annotations:         run.Annotations,
		Dropped:             run.Dropped,
		DigestHTML:          RenderMarkdown(run.Text),
		ShowsDropped:        run.Dropped > 0,
	}
	d.HasDigest = d.DigestHTML != ""

	if run.CheckRunID > 0 && run.RepoFullName != "" {
		d.HasCheckRun = true
		d.CheckRunURL = fmt.Sprintf("https://github.com/%s/runs/%d", run.RepoFullName, run.CheckRunID)
	}

	return d
}

func toRunListViewModel(repoFullName string, runs []model.ReportRun) vm.RunListViewModel {
	items := make([]vm.RunSummaryViewModel, 0, len(runs))
	for _, run := range runs {
		items = append(items, toRunSummaryViewModel(run))
	}
	return vm.RunListViewModel{
		Repository: repoFullName,
		BadgePath:  "/badge/" + repoFullName + "/coverage.svg",
		Runs:       items,
	}
}
