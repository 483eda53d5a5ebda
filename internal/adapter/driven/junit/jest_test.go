package junit_test

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/junit"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	doc, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return doc
}

func TestJest_Normalize(t *testing.T) {
	j := junit.NewJest(junit.Options{RootDir: "/repo"})

	report, err := j.Normalize(readFixture(t, "jest.xml"))
	require.NoError(t, err)

	assert.Equal(t, "jest", report.Format)
	assert.Equal(t, "jest tests", report.Summary.Title)
	assert.Equal(t, 4, report.Summary.Tests)
	assert.Equal(t, 1, report.Summary.Failures)
	assert.Equal(t, 0, report.Summary.Errors)
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.InDelta(t, 1.5, report.Summary.Duration, 1e-9)

	// Earliest suite timestamp, naive timestamps read as UTC.
	wantStart := time.Date(2021, 12, 14, 10, 0, 1, 0, time.UTC)
	assert.Equal(t, wantStart, report.Summary.StartTime)
	assert.Equal(t, wantStart.Add(1500*time.Millisecond), report.Summary.EndTime)
	assert.Equal(t, "4 tests in 1.5s: 1 failures, 0 errors, 1 skipped", report.Summary.SummaryLine())

	require.Len(t, report.Annotations, 2)

	failure := report.Annotations[0]
	assert.Equal(t, "src/sum.test.js", failure.Path)
	assert.Equal(t, 12, failure.StartLine)
	assert.Equal(t, 12, failure.EndLine)
	assert.Equal(t, model.AnnotationWarning, failure.Level)
	assert.Equal(t, `Received: "12"`, failure.Message)
	assert.Equal(t, "sum rejects strings (0.011s)", failure.Title)
	assert.Contains(t, failure.RawDetails, "node_modules/expect")

	skipped := report.Annotations[1]
	assert.Equal(t, junit.SentinelPath, skipped.Path)
	assert.Equal(t, junit.SentinelLine, skipped.StartLine)
	assert.Equal(t, model.AnnotationFailure, skipped.Level)
	assert.Equal(t, junit.PlaceholderMessage, skipped.Message)
	assert.Equal(t, "sum handles floats (0s)", skipped.Title)
}

func TestJest_NormalizeNoSuitesUsesNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	j := junit.NewJest(junit.Options{Now: func() time.Time { return now }})

	doc := `<testsuites name="jest tests" tests="0" failures="0" errors="0" time="0"></testsuites>`
	report, err := j.Normalize([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, now, report.Summary.StartTime)
	assert.Equal(t, now, report.Summary.EndTime)
	assert.Empty(t, report.Annotations)
	assert.Equal(t, model.ConclusionSuccess, report.Summary.Conclusion())
}

func TestJest_NormalizeMissingSkippedDefaultsToZero(t *testing.T) {
	j := junit.NewJest(junit.Options{})

	doc := `<testsuites name="jest tests" tests="1" failures="0" errors="0" time="0.1">
  <testsuite name="a" timestamp="2022-01-01T00:00:00" tests="1"><testcase name="ok" time="0.1"/></testsuite>
</testsuites>`
	report, err := j.Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Skipped)
}

func TestJest_NormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "malformed", doc: `<testsuites name="jest tests"`},
		{name: "wrong root tag", doc: `<testsuite name="jest tests"/>`},
		{name: "wrong root name", doc: `<testsuites name="vitest" tests="0" failures="0" errors="0" time="0"/>`},
		{name: "missing tests", doc: `<testsuites name="jest tests" failures="0" errors="0" time="0"/>`},
		{name: "non numeric time", doc: `<testsuites name="jest tests" tests="0" failures="0" errors="0" time="soon"/>`},
		{name: "counts exceed tests", doc: `<testsuites name="jest tests" tests="1" failures="1" errors="1" time="0"/>`},
		{
			name: "bad suite timestamp",
			doc:  `<testsuites name="jest tests" tests="0" failures="0" errors="0" time="0"><testsuite timestamp="yesterday"/></testsuites>`,
		},
	}

	j := junit.NewJest(junit.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.Normalize([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrFormatMismatch)
		})
	}
}

// TestJest_CheckRunCapsAnnotations normalizes 73 failing test cases and
// checks that the check run carries only the first 50.
func TestJest_CheckRunCapsAnnotations(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<testsuites name="jest tests" tests="73" failures="73" errors="0" time="2">`)
	b.WriteString(`<testsuite name="big" timestamp="2022-01-01T00:00:00" skipped="0" tests="73">`)
	for i := 1; i <= 73; i++ {
		fmt.Fprintf(&b, `<testcase name="case %d" time="0.01"><failure>Error: case %d
    at Object.fn (/repo/src/big.test.js:%d:3)</failure></testcase>`, i, i, i)
	}
	b.WriteString(`</testsuite></testsuites>`)

	j := junit.NewJest(junit.Options{RootDir: "/repo", CheckName: "js-tests"})
	report, err := j.Normalize([]byte(b.String()))
	require.NoError(t, err)
	require.Len(t, report.Annotations, 73)

	run := report.CheckRun("abc123")
	assert.Equal(t, "js-tests", run.Name)
	assert.Equal(t, model.ConclusionFailure, run.Conclusion)
	require.Len(t, run.Output.Annotations, model.MaxAnnotationsPerRequest)
	assert.Equal(t, 23, run.Output.Dropped)
	assert.Equal(t, "case 1 (0.01s)", run.Output.Annotations[0].Title)
	assert.Equal(t, 50, run.Output.Annotations[49].StartLine)
	assert.Contains(t, run.Output.Text, "_23 of 73 outcomes are not attached")
}
