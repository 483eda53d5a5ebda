package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a7f37")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d1242f")).Bold(true)
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#59636e"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func conclusionStyle(c model.CheckRunConclusion) lipgloss.Style {
	switch c {
	case model.ConclusionSuccess:
		return successStyle
	case model.ConclusionFailure:
		return failureStyle
	default:
		return neutralStyle
	}
}

// reportLine is the one-line result printed for a processed report file, e.g.
// "✓ success  jest tests  4 tests in 1.5s: 0 failures, 0 errors, 1 skipped  (junit.xml)".
func reportLine(source string, report *model.TestReport, run model.CheckRun, checkRunID int64) string {
	icon := "✓"
	if run.Conclusion == model.ConclusionFailure {
		icon = "✗"
	}

	var b strings.Builder
	b.WriteString(conclusionStyle(run.Conclusion).Render(icon + " " + string(run.Conclusion)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(report.Summary.Title))
	b.WriteString("  ")
	b.WriteString(report.Summary.SummaryLine())
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render("(" + source + ")"))
	if checkRunID > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" check run %d", checkRunID)))
	}
	return b.String()
}

// annotationLine lists one annotation below a dry-run report line.
func annotationLine(a model.Annotation) string {
	loc := fmt.Sprintf("%s:%d", a.Path, a.StartLine)
	return fmt.Sprintf("    %s %s %s", mutedStyle.Render(loc), string(a.Level), a.Title)
}

// badgeLine is the one-line result of the badge command.
func badgeLine(b model.Badge, metric model.Metric, path string) string {
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color.Code)).Bold(true)
	return fmt.Sprintf("%s %s  %s",
		swatch.Render(fmt.Sprintf("%d%%", b.RelativeCoverage)),
		labelStyle.Render(string(metric)+" coverage"),
		mutedStyle.Render(b.Color.Name+" -> "+path),
	)
}
