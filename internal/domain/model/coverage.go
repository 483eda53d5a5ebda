package model

import (
	"fmt"
	"time"
)

// Metric names a coverage dimension.
type Metric string

const (
	MetricStatements Metric = "statements"
	MetricLines      Metric = "lines"
	MetricBranches   Metric = "branches"
	MetricFunctions  Metric = "functions"
)

// AllMetrics lists every metric in display order.
var AllMetrics = []Metric{MetricStatements, MetricLines, MetricBranches, MetricFunctions}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	for _, m := range AllMetrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of statements, lines, branches, functions", ErrUnsupportedMetric, s)
}

// CoverageMetric holds the covered and total counts of one metric.
type CoverageMetric struct {
	Name    Metric
	Covered int
	Total   int
}

// Relative returns floor(covered/total*100).
func (m CoverageMetric) Relative() (int, error) {
	if m.Covered < 0 || m.Total < 0 || m.Covered > m.Total {
		return 0, fmt.Errorf("%w: %s covered %d of %d", ErrFormatMismatch, m.Name, m.Covered, m.Total)
	}
	if m.Total == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoCoverageData, m.Name)
	}
	return m.Covered * 100 / m.Total, nil
}

// CoverageRecord is a persisted coverage measurement for one commit.
type CoverageRecord struct {
	ID           int64
	RepoFullName string
	HeadSHA      string
	Format       string
	Metric       Metric
	Covered      int
	Total        int
	Relative     int
	ColorName    string
	ColorCode    string
	CreatedAt    time.Time
}
