package application

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// --- report normalizers ---

type mockNormalizer struct {
	format string
	report func(doc []byte) (*model.TestReport, error)
}

func (m *mockNormalizer) Format() string { return m.format }
func (m *mockNormalizer) Normalize(doc []byte) (*model.TestReport, error) {
	return m.report(doc)
}

// mockRegistry detects a document by its first byte: 'j' jest, 'p' pytest.
type mockRegistry struct {
	normalizers map[string]*mockNormalizer
}

func (m *mockRegistry) Lookup(format string) (driven.ReportNormalizer, error) {
	n, ok := m.normalizers[format]
	if !ok {
		return nil, model.ErrUnknownFormat
	}
	return n, nil
}

func (m *mockRegistry) Detect(doc []byte) (driven.ReportNormalizer, error) {
	if len(doc) > 0 {
		switch doc[0] {
		case 'j':
			return m.normalizers["jest"], nil
		case 'p':
			return m.normalizers["pytest"], nil
		}
	}
	return nil, model.ErrFormatMismatch
}

// --- publisher ---

type mockPublisher struct {
	mu         sync.Mutex
	runs       []model.CheckRun
	repos      []string
	comments   []string
	nextID     int64
	err        error
	commentErr error
}

func (m *mockPublisher) CreateCheckRun(_ context.Context, repoFullName string, run model.CheckRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	m.runs = append(m.runs, run)
	m.repos = append(m.repos, repoFullName)
	return m.nextID, nil
}

func (m *mockPublisher) CreateIssueComment(_ context.Context, _ string, _ int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commentErr != nil {
		return m.commentErr
	}
	m.comments = append(m.comments, body)
	return nil
}

// --- run store ---

type mockRunStore struct {
	mu       sync.Mutex
	runs     []model.ReportRun
	coverage []model.CoverageRecord
	latest   *model.CoverageRecord
	err      error
}

func (m *mockRunStore) SaveReportRun(_ context.Context, run model.ReportRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.runs = append(m.runs, run)
	return int64(len(m.runs)), nil
}

func (m *mockRunStore) GetReportRun(_ context.Context, id int64) (*model.ReportRun, error) {
	if id < 1 || int(id) > len(m.runs) {
		return nil, driven.ErrRunNotFound
	}
	run := m.runs[id-1]
	return &run, nil
}

func (m *mockRunStore) ListReportRuns(_ context.Context, _ string, limit int) ([]model.ReportRun, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunStore) SaveCoverage(_ context.Context, rec model.CoverageRecord) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.coverage = append(m.coverage, rec)
	return int64(len(m.coverage)), nil
}

func (m *mockRunStore) LatestCoverage(_ context.Context, _ string) (*model.CoverageRecord, error) {
	return m.latest, m.err
}

// --- coverage ---

type mockExtractor struct {
	format   string
	metric   model.Metric
	metrics  []model.CoverageMetric
	parseErr error
	parsed   bool
}

func (m *mockExtractor) Format() string       { return m.format }
func (m *mockExtractor) Metric() model.Metric { return m.metric }
func (m *mockExtractor) Parse(r io.Reader) error {
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	if m.parseErr != nil {
		return m.parseErr
	}
	m.parsed = true
	return nil
}

func (m *mockExtractor) RelativeCoverage() (int, error) { return m.CoverageFor(m.metric) }

func (m *mockExtractor) CoverageFor(metric model.Metric) (int, error) {
	if !m.parsed {
		return 0, model.ErrNotParsed
	}
	for _, c := range m.metrics {
		if c.Name == metric {
			return c.Relative()
		}
	}
	return 0, model.ErrUnsupportedMetric
}

func (m *mockExtractor) Metrics() []model.CoverageMetric { return m.metrics }

type mockRenderer struct {
	err error
}

func (m *mockRenderer) Render(_ context.Context, relative int, color model.PaletteEntry) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "<svg>" + color.Code + "</svg>", nil
}

var errBoom = errors.New("boom")
