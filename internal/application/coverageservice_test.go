package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

func jestMetrics() []model.CoverageMetric {
	return []model.CoverageMetric{
		{Name: model.MetricStatements, Covered: 57, Total: 100},
		{Name: model.MetricLines, Covered: 56, Total: 100},
		{Name: model.MetricBranches, Covered: 0, Total: 0},
	}
}

func factoryFor(ext *mockExtractor) driven.CoverageExtractorFactory {
	return func(format string, metric model.Metric) (driven.CoverageExtractor, error) {
		if format != "jest" {
			return nil, model.ErrUnknownFormat
		}
		ext.format = format
		ext.metric = metric
		return ext, nil
	}
}

func TestCoverageService_Badge(t *testing.T) {
	color, err := model.ParseBadgeColor("90,80,70,60,50")
	require.NoError(t, err)

	svc := NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{}, nil, nil)

	res, err := svc.Badge(context.Background(), CoverageRequest{
		Format: "jest",
		Metric: model.MetricStatements,
		Color:  color,
		Report: strings.NewReader("{}"),
	})
	require.NoError(t, err)

	assert.Equal(t, 57, res.Badge.RelativeCoverage)
	assert.Equal(t, "orange", res.Badge.Color.Name)
	assert.Equal(t, "<svg>#fe7d37</svg>", res.Badge.SVG)
	assert.Zero(t, res.RecordID)
}

func TestCoverageService_BadgeDefaultThresholds(t *testing.T) {
	svc := NewCoverageService(factoryFor(&mockExtractor{metrics: []model.CoverageMetric{
		{Name: model.MetricLines, Covered: 95, Total: 100},
	}}), &mockRenderer{}, nil, nil)

	res, err := svc.Badge(context.Background(), CoverageRequest{
		Format: "jest", Metric: model.MetricLines, Report: strings.NewReader("{}"),
	})
	require.NoError(t, err)
	assert.Equal(t, "brightgreen", res.Badge.Color.Name)
}

func TestCoverageService_BadgeRecordsAndComments(t *testing.T) {
	pub := &mockPublisher{}
	store := &mockRunStore{}
	svc := NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{}, pub, store)

	res, err := svc.Badge(context.Background(), CoverageRequest{
		Format:   "jest",
		Metric:   model.MetricLines,
		Report:   strings.NewReader("{}"),
		Target:   Target{Repository: "owner/repo", HeadSHA: "abc"},
		PRNumber: 7,
		Comment:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RecordID)

	require.Len(t, store.coverage, 1)
	rec := store.coverage[0]
	assert.Equal(t, "owner/repo", rec.RepoFullName)
	assert.Equal(t, model.MetricLines, rec.Metric)
	assert.Equal(t, 56, rec.Covered)
	assert.Equal(t, 100, rec.Total)
	assert.Equal(t, 56, rec.Relative)
	assert.Equal(t, "#fe7d37", rec.ColorCode)

	require.Len(t, pub.comments, 1)
	assert.Contains(t, pub.comments[0], "### Coverage: 56% lines")
	assert.Contains(t, pub.comments[0], "| statements | 57 | 100 | 57% |")
	assert.Contains(t, pub.comments[0], "| branches | 0 | 0 | n/a |")
}

func TestCoverageService_CommentSkippedWithoutPR(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{}, pub, nil)

	_, err := svc.Badge(context.Background(), CoverageRequest{
		Format: "jest", Metric: model.MetricLines, Report: strings.NewReader("{}"),
		Target: Target{Repository: "owner/repo"}, Comment: true,
	})
	require.NoError(t, err)
	assert.Empty(t, pub.comments)
}

func TestCoverageService_BadgeErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		svc     *CoverageService
		req     CoverageRequest
		wantErr error
	}{
		{
			name:    "unknown format",
			svc:     NewCoverageService(factoryFor(&mockExtractor{}), &mockRenderer{}, nil, nil),
			req:     CoverageRequest{Format: "lcov", Metric: model.MetricLines, Report: strings.NewReader("")},
			wantErr: model.ErrUnknownFormat,
		},
		{
			name:    "parse failure",
			svc:     NewCoverageService(factoryFor(&mockExtractor{parseErr: model.ErrFormatMismatch}), &mockRenderer{}, nil, nil),
			req:     CoverageRequest{Format: "jest", Metric: model.MetricLines, Report: strings.NewReader("")},
			wantErr: model.ErrFormatMismatch,
		},
		{
			name:    "empty metric",
			svc:     NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{}, nil, nil),
			req:     CoverageRequest{Format: "jest", Metric: model.MetricBranches, Report: strings.NewReader("")},
			wantErr: model.ErrNoCoverageData,
		},
		{
			name:    "renderer failure",
			svc:     NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{err: errBoom}, nil, nil),
			req:     CoverageRequest{Format: "jest", Metric: model.MetricLines, Report: strings.NewReader("")},
			wantErr: errBoom,
		},
		{
			name: "comment failure",
			svc:  NewCoverageService(factoryFor(&mockExtractor{metrics: jestMetrics()}), &mockRenderer{}, &mockPublisher{commentErr: errBoom}, nil),
			req: CoverageRequest{Format: "jest", Metric: model.MetricLines, Report: strings.NewReader(""),
				Target: Target{Repository: "owner/repo"}, PRNumber: 3, Comment: true},
			wantErr: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.svc.Badge(ctx, tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCoverageService_LatestBadge(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing recorded", func(t *testing.T) {
		svc := NewCoverageService(factoryFor(&mockExtractor{}), &mockRenderer{}, nil, &mockRunStore{})
		b, err := svc.LatestBadge(ctx, "owner/repo")
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("renders stored color", func(t *testing.T) {
		store := &mockRunStore{latest: &model.CoverageRecord{Relative: 93, ColorName: "brightgreen", ColorCode: "#4c1"}}
		svc := NewCoverageService(factoryFor(&mockExtractor{}), &mockRenderer{}, nil, store)

		b, err := svc.LatestBadge(ctx, "owner/repo")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, 93, b.RelativeCoverage)
		assert.Equal(t, "<svg>#4c1</svg>", b.SVG)
	})

	t.Run("without store", func(t *testing.T) {
		svc := NewCoverageService(factoryFor(&mockExtractor{}), &mockRenderer{}, nil, nil)
		b, err := svc.LatestBadge(ctx, "owner/repo")
		require.NoError(t, err)
		assert.Nil(t, b)
	})
}
