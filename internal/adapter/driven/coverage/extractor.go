// Package coverage extracts relative coverage from istanbul (Jest) and
// coverage.py JSON summaries.
package coverage

import (
	"fmt"
	"sort"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// Format names accepted by NewExtractor.
const (
	FormatJest       = "jest"
	FormatCoveragePy = "coverage-py"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CoverageExtractor        = (*Istanbul)(nil)
	_ driven.CoverageExtractor        = (*CoveragePy)(nil)
	_ driven.CoverageExtractorFactory = NewExtractor
)

// supportedMetrics is the allow-list of metrics per format.
var supportedMetrics = map[string][]model.Metric{
	FormatJest:       {model.MetricStatements, model.MetricLines, model.MetricBranches, model.MetricFunctions},
	FormatCoveragePy: {model.MetricStatements, model.MetricLines, model.MetricBranches},
}

// Formats returns the known coverage formats, sorted.
func Formats() []string {
	names := make([]string, 0, len(supportedMetrics))
	for name := range supportedMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedMetrics returns the metrics a format tracks.
func SupportedMetrics(format string) ([]model.Metric, error) {
	metrics, ok := supportedMetrics[format]
	if !ok {
		return nil, fmt.Errorf("%w: coverage format %q (known: %v)", model.ErrUnknownFormat, format, Formats())
	}
	return append([]model.Metric(nil), metrics...), nil
}

// NewExtractor creates the extractor for format, reporting metric.
func NewExtractor(format string, metric model.Metric) (driven.CoverageExtractor, error) {
	metrics, err := SupportedMetrics(format)
	if err != nil {
		return nil, err
	}
	if !containsMetric(metrics, metric) {
		return nil, fmt.Errorf("%w: %s does not track %q (supported: %v)", model.ErrUnsupportedMetric, format, metric, metrics)
	}

	base := summary{format: format, metric: metric, supported: metrics}
	switch format {
	case FormatJest:
		return &Istanbul{summary: base}, nil
	default:
		return &CoveragePy{summary: base}, nil
	}
}

func containsMetric(metrics []model.Metric, m model.Metric) bool {
	for _, s := range metrics {
		if s == m {
			return true
		}
	}
	return false
}

// summary holds the parsed counts shared by both formats.
type summary struct {
	format    string
	metric    model.Metric
	supported []model.Metric
	counts    map[model.Metric]model.CoverageMetric
}

func (s *summary) Format() string { return s.format }

func (s *summary) Metric() model.Metric { return s.metric }

// RelativeCoverage returns the relative coverage of the configured metric.
func (s *summary) RelativeCoverage() (int, error) {
	return s.CoverageFor(s.metric)
}

// CoverageFor returns the relative coverage of any tracked metric.
func (s *summary) CoverageFor(metric model.Metric) (int, error) {
	if s.counts == nil {
		return 0, model.ErrNotParsed
	}
	if !containsMetric(s.supported, metric) {
		return 0, fmt.Errorf("%w: %s does not track %q", model.ErrUnsupportedMetric, s.format, metric)
	}
	return s.counts[metric].Relative()
}

// Metrics returns the parsed counts in display order, or nil before Parse.
func (s *summary) Metrics() []model.CoverageMetric {
	if s.counts == nil {
		return nil
	}
	out := make([]model.CoverageMetric, 0, len(s.supported))
	for _, m := range model.AllMetrics {
		if c, ok := s.counts[m]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *summary) set(counts ...model.CoverageMetric) error {
	parsed := make(map[model.Metric]model.CoverageMetric, len(counts))
	for _, c := range counts {
		if c.Covered < 0 || c.Total < 0 || c.Covered > c.Total {
			return fmt.Errorf("%w: %s %s covered %d of %d", model.ErrFormatMismatch, s.format, c.Name, c.Covered, c.Total)
		}
		parsed[c.Name] = c
	}
	s.counts = parsed
	return nil
}
