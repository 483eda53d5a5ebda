package model

import "errors"

// Sentinel errors shared by the report, coverage and badge components.
// Callers match them with errors.Is; concrete failures wrap them with detail.
var (
	// ErrFormatMismatch indicates a document does not have the shape the
	// selected report or coverage variant expects.
	ErrFormatMismatch = errors.New("report format mismatch")

	// ErrUnknownFormat indicates no variant is registered under the requested name.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrUnsupportedMetric indicates the coverage variant does not track the metric.
	ErrUnsupportedMetric = errors.New("unsupported coverage metric")

	// ErrInvalidThresholds indicates the badge thresholds do not fit the palette.
	ErrInvalidThresholds = errors.New("invalid badge thresholds")

	// ErrInvalidAnnotation indicates an annotation violates the Checks API constraints.
	ErrInvalidAnnotation = errors.New("invalid annotation")

	// ErrNotParsed indicates coverage was requested before a document was parsed.
	ErrNotParsed = errors.New("coverage report not parsed")

	// ErrNoCoverageData indicates a metric has a total of zero.
	ErrNoCoverageData = errors.New("no coverage data for metric")
)
