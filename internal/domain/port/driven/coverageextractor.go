package driven

import (
	"io"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// CoverageExtractor reads a coverage summary and reports relative coverage.
// The metric is chosen and validated when the extractor is constructed.
type CoverageExtractor interface {
	Format() string
	Metric() model.Metric
	// Parse reads the document and records covered/total counts for every
	// metric the format tracks.
	Parse(r io.Reader) error
	// RelativeCoverage returns the relative coverage of the configured metric.
	// Returns model.ErrNotParsed if Parse has not succeeded.
	RelativeCoverage() (int, error)
	// CoverageFor returns the relative coverage of any tracked metric.
	CoverageFor(metric model.Metric) (int, error)
	// Metrics returns the raw counts of every tracked metric in display order.
	Metrics() []model.CoverageMetric
}

// CoverageExtractorFactory builds extractors for a named format.
type CoverageExtractorFactory func(format string, metric model.Metric) (CoverageExtractor, error)
