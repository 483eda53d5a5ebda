package model

import "time"

// ReportRun is the persisted record of one normalized and published test report.
type ReportRun struct {
	ID           int64
	RepoFullName string
	HeadSHA      string
	Format       string
	CheckName    string
	CheckRunID   int64 // GitHub check run ID; zero when not published.
	Title        string
	Summary      string
	Text         string // Markdown digest of all outcomes.
	Conclusion   CheckRunConclusion
	Tests        int
	Failures     int
	Errors       int
	Skipped      int
	Duration     float64
	Annotations  int // Annotations attached to the check run.
	Dropped      int // Annotations discarded by the API cap.
	StartedAt    time.Time
	CompletedAt  time.Time
	CreatedAt    time.Time
}

// NewReportRun builds the history record for a check run produced from report.
func NewReportRun(repoFullName string, report *TestReport, run CheckRun, checkRunID int64) ReportRun {
	rr := ReportRun{
		RepoFullName: repoFullName,
		HeadSHA:      run.HeadSHA,
		Format:       report.Format,
		CheckName:    run.Name,
		CheckRunID:   checkRunID,
		Conclusion:   run.Conclusion,
		Tests:        report.Summary.Tests,
		Failures:     report.Summary.Failures,
		Errors:       report.Summary.Errors,
		Skipped:      report.Summary.Skipped,
		Duration:     report.Summary.Duration,
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
	}
	if run.Output != nil {
		rr.Title = run.Output.Title
		rr.Summary = run.Output.Summary
		rr.Text = run.Output.Text
		rr.Annotations = len(run.Output.Annotations)
		rr.Dropped = run.Output.Dropped
	}
	return rr
}
