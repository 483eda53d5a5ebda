package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// fakeReport builds a report with the given number of failing outcomes.
func fakeReport(format string, failures int) *model.TestReport {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &model.TestReport{
		Format: format,
		Summary: model.TestRunSummary{
			Title:     format + " tests",
			StartTime: start,
			EndTime:   start.Add(time.Second),
			Tests:     failures + 1,
			Failures:  failures,
			Duration:  1,
		},
	}
	for i := 1; i <= failures; i++ {
		a, _ := model.NewAnnotation("src/a.js", i, i, model.AnnotationWarning, "boom",
			model.WithTitle(fmt.Sprintf("case %d (0.1s)", i)))
		r.Annotations = append(r.Annotations, a)
	}
	return r
}

func newTestRegistry() *mockRegistry {
	return &mockRegistry{normalizers: map[string]*mockNormalizer{
		"jest": {format: "jest", report: func(doc []byte) (*model.TestReport, error) {
			return fakeReport("jest", len(doc)-1), nil
		}},
		"pytest": {format: "pytest", report: func(_ []byte) (*model.TestReport, error) {
			return nil, fmt.Errorf("%w: bad pytest", model.ErrFormatMismatch)
		}},
	}}
}

func TestReportService_Normalize(t *testing.T) {
	svc := NewReportService(newTestRegistry(), nil, nil)

	report, err := svc.Normalize(FormatAuto, []byte("jxx"))
	require.NoError(t, err)
	assert.Equal(t, "jest", report.Format)
	assert.Len(t, report.Annotations, 2)

	report, err = svc.Normalize("jest", []byte("?x"))
	require.NoError(t, err)
	assert.Equal(t, "jest", report.Format)

	_, err = svc.Normalize("mocha", []byte("j"))
	assert.ErrorIs(t, err, model.ErrUnknownFormat)

	_, err = svc.Normalize("", []byte("?"))
	assert.ErrorIs(t, err, model.ErrFormatMismatch)
}

func TestReportService_PublishDryRun(t *testing.T) {
	svc := NewReportService(newTestRegistry(), nil, nil)

	res, err := svc.Publish(context.Background(), Target{}, FormatAuto, ReportFile{Name: "junit.xml", Doc: []byte("jx")})
	require.NoError(t, err)

	assert.Equal(t, "junit.xml", res.Source)
	assert.Zero(t, res.CheckRunID)
	assert.Zero(t, res.RunID)
	assert.Equal(t, model.ConclusionFailure, res.CheckRun.Conclusion)
	assert.Equal(t, model.DefaultCheckName, res.CheckRun.Name)
}

func TestReportService_PublishPostsAndRecords(t *testing.T) {
	pub := &mockPublisher{nextID: 41}
	store := &mockRunStore{}
	svc := NewReportService(newTestRegistry(), pub, store)

	target := Target{Repository: "owner/repo", HeadSHA: "abc123"}
	doc := make([]byte, 74)
	doc[0] = 'j'

	res, err := svc.Publish(context.Background(), target, FormatAuto, ReportFile{Name: "junit.xml", Doc: doc})
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.CheckRunID)
	assert.Equal(t, int64(1), res.RunID)

	require.Len(t, pub.runs, 1)
	assert.Equal(t, "owner/repo", pub.repos[0])
	assert.Equal(t, "abc123", pub.runs[0].HeadSHA)
	assert.Len(t, pub.runs[0].Output.Annotations, model.MaxAnnotationsPerRequest)

	require.Len(t, store.runs, 1)
	rec := store.runs[0]
	assert.Equal(t, int64(42), rec.CheckRunID)
	assert.Equal(t, "owner/repo", rec.RepoFullName)
	assert.Equal(t, 73, rec.Failures)
	assert.Equal(t, 50, rec.Annotations)
	assert.Equal(t, 23, rec.Dropped)
}

func TestReportService_PublishErrors(t *testing.T) {
	ctx := context.Background()
	target := Target{Repository: "owner/repo", HeadSHA: "abc123"}
	file := ReportFile{Name: "junit.xml", Doc: []byte("jx")}

	t.Run("missing target", func(t *testing.T) {
		svc := NewReportService(newTestRegistry(), &mockPublisher{}, nil)
		_, err := svc.Publish(ctx, Target{}, FormatAuto, file)
		assert.ErrorIs(t, err, ErrNoTarget)
	})

	t.Run("publisher failure", func(t *testing.T) {
		store := &mockRunStore{}
		svc := NewReportService(newTestRegistry(), &mockPublisher{err: errBoom}, store)
		_, err := svc.Publish(ctx, target, FormatAuto, file)
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, store.runs, "nothing is recorded when posting fails")
	})

	t.Run("store failure", func(t *testing.T) {
		svc := NewReportService(newTestRegistry(), nil, &mockRunStore{err: errBoom})
		_, err := svc.Publish(ctx, target, FormatAuto, file)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("normalize failure names the file", func(t *testing.T) {
		svc := NewReportService(newTestRegistry(), nil, nil)
		_, err := svc.Publish(ctx, target, "pytest", file)
		assert.ErrorIs(t, err, model.ErrFormatMismatch)
		assert.Contains(t, err.Error(), "junit.xml")
	})
}

func TestReportService_PublishAllKeepsOrder(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewReportService(newTestRegistry(), pub, nil)
	svc.workers = 3

	var files []ReportFile
	for i := 0; i < 8; i++ {
		doc := make([]byte, i+1)
		doc[0] = 'j'
		files = append(files, ReportFile{Name: fmt.Sprintf("junit-%d.xml", i), Doc: doc})
	}

	results, err := svc.PublishAll(context.Background(), Target{Repository: "owner/repo", HeadSHA: "sha"}, FormatAuto, files)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, res := range results {
		assert.Equal(t, files[i].Name, res.Source)
		assert.Len(t, res.Report.Annotations, i)
		assert.NotZero(t, res.CheckRunID)
	}
	assert.Len(t, pub.runs, len(files))
}

func TestReportService_PublishAllStopsOnError(t *testing.T) {
	svc := NewReportService(newTestRegistry(), nil, nil)

	files := []ReportFile{
		{Name: "ok.xml", Doc: []byte("j")},
		{Name: "bad.xml", Doc: []byte("?")},
	}

	results, err := svc.PublishAll(context.Background(), Target{}, FormatAuto, files)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, model.ErrFormatMismatch)
	assert.Contains(t, err.Error(), "bad.xml")
}

func TestReportService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("without store", func(t *testing.T) {
		svc := NewReportService(newTestRegistry(), nil, nil)

		runs, err := svc.Runs(ctx, "owner/repo", 10)
		require.NoError(t, err)
		assert.Empty(t, runs)

		_, err = svc.Run(ctx, 1)
		assert.ErrorIs(t, err, driven.ErrRunNotFound)
	})

	t.Run("with store", func(t *testing.T) {
		store := &mockRunStore{runs: []model.ReportRun{{HeadSHA: "a"}, {HeadSHA: "b"}}}
		svc := NewReportService(newTestRegistry(), nil, store)

		runs, err := svc.Runs(ctx, "owner/repo", 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)

		run, err := svc.Run(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "b", run.HeadSHA)
	})
}
