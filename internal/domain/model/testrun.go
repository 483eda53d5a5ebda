package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCheckName is the check run name used when none is configured.
const DefaultCheckName = "unit-tests"

// TestRunSummary is the aggregate result of one test report.
type TestRunSummary struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Tests     int
	Failures  int
	Errors    int
	Skipped   int
	Duration  float64 // Seconds, as reported by the framework.
}

// Validate checks the count and time invariants of the summary.
func (s TestRunSummary) Validate() error {
	if s.Tests < 0 || s.Failures < 0 || s.Errors < 0 || s.Skipped < 0 {
		return fmt.Errorf("negative test counts in %q", s.Title)
	}
	if s.Failures+s.Errors+s.Skipped > s.Tests {
		return fmt.Errorf("%d failures + %d errors + %d skipped exceed %d tests in %q",
			s.Failures, s.Errors, s.Skipped, s.Tests, s.Title)
	}
	if s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("end time %s before start time %s in %q", s.EndTime, s.StartTime, s.Title)
	}
	return nil
}

// SummaryLine returns the one-line human readable summary, e.g.
// "11 tests in 0.075s: 1 failures, 0 errors, 0 skipped".
func (s TestRunSummary) SummaryLine() string {
	return fmt.Sprintf("%d tests in %ss: %d failures, %d errors, %d skipped",
		s.Tests, FormatSeconds(s.Duration), s.Failures, s.Errors, s.Skipped)
}

// Conclusion returns the check run conclusion for this summary.
func (s TestRunSummary) Conclusion() CheckRunConclusion {
	return ConclusionFor(s.Failures, s.Errors)
}

// FormatSeconds prints a duration in the shortest form that round-trips,
// always keeping one fractional digit (5 -> "5.0", 0.075 -> "0.075").
func FormatSeconds(seconds float64) string {
	out := strconv.FormatFloat(seconds, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// OutcomeKind is the tag of a non-passing test case child element.
type OutcomeKind string

const (
	OutcomeFailure OutcomeKind = "failure"
	OutcomeError   OutcomeKind = "error"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeOther   OutcomeKind = "other"
)

// ParseOutcomeKind maps an element name to its outcome kind.
func ParseOutcomeKind(tag string) OutcomeKind {
	switch OutcomeKind(tag) {
	case OutcomeFailure, OutcomeError, OutcomeSkipped:
		return OutcomeKind(tag)
	}
	return OutcomeOther
}

// TestCaseOutcome is one non-passing child of a test case, before it has been
// located in the source tree.
type TestCaseOutcome struct {
	TestName string
	TestTime string // As written in the report; "-" when absent.
	Kind     OutcomeKind
	Message  string
	Text     string
}

// Title returns the annotation title, e.g. "adds numbers (0.011s)".
func (o TestCaseOutcome) Title() string {
	return fmt.Sprintf("%s (%ss)", o.TestName, o.TestTime)
}

// Annotation attaches the outcome to path:line at the given level.
func (o TestCaseOutcome) Annotation(path string, line int, level AnnotationLevel) (Annotation, error) {
	return NewAnnotation(path, line, line, level, o.Message,
		WithTitle(o.Title()),
		WithRawDetails(o.Text),
	)
}

// TestReport is a normalized test report: the run summary plus one
// annotation per non-passing outcome, in document order and uncapped.
type TestReport struct {
	Format      string
	CheckName   string
	Summary     TestRunSummary
	Annotations []Annotation
}

// CheckRun assembles the completed check run for the given commit. Only the
// first MaxAnnotationsPerRequest annotations are attached.
func (r *TestReport) CheckRun(headSHA string) CheckRun {
	name := r.CheckName
	if name == "" {
		name = DefaultCheckName
	}

	output := NewCheckRunOutput(r.Summary.Title, r.Summary.SummaryLine())
	for _, a := range r.Annotations {
		output.AddAnnotation(a)
	}
	output.Text = r.Digest()

	return CheckRun{
		Name:        name,
		HeadSHA:     headSHA,
		Status:      CheckRunCompleted,
		Conclusion:  r.Summary.Conclusion(),
		StartedAt:   r.Summary.StartTime,
		CompletedAt: r.Summary.EndTime,
		Output:      output,
	}
}

// Digest renders every annotation, including those beyond the API cap, as a
// markdown table. Returns "" when there is nothing to report.
func (r *TestReport) Digest() string {
	if len(r.Annotations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("| Test | Level | Location |\n")
	b.WriteString("|---|---|---|\n")
	for _, a := range r.Annotations {
		fmt.Fprintf(&b, "| %s | %s | `%s:%d` |\n", escapeCell(a.Title), a.Level, a.Path, a.StartLine)
	}

	if dropped := len(r.Annotations) - MaxAnnotationsPerRequest; dropped > 0 {
		fmt.Fprintf(&b, "\n_%d of %d outcomes are not attached as annotations (limit %d per check run)._\n",
			dropped, len(r.Annotations), MaxAnnotationsPerRequest)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
