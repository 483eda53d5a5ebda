package coverage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// CoveragePy reads the JSON report written by "coverage json".
type CoveragePy struct {
	summary
}

type coveragePyTotals struct {
	CoveredLines    *int `json:"covered_lines"`
	NumStatements   *int `json:"num_statements"`
	ExcludedLines   *int `json:"excluded_lines"`
	NumBranches     *int `json:"num_branches"`
	CoveredBranches *int `json:"covered_branches"`
}

// Parse decodes the report. Statements are covered lines over statements;
// lines also count excluded lines in the total. Branch counts are only
// present when coverage ran with --branch and default to zero otherwise.
func (c *CoveragePy) Parse(r io.Reader) error {
	var doc struct {
		Totals *coveragePyTotals `json:"totals"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: decoding coverage.py report: %v", model.ErrFormatMismatch, err)
	}
	t := doc.Totals
	if t == nil {
		return fmt.Errorf("%w: coverage.py report has no \"totals\" record", model.ErrFormatMismatch)
	}
	if t.CoveredLines == nil || t.NumStatements == nil {
		return fmt.Errorf("%w: coverage.py totals lack covered_lines or num_statements", model.ErrFormatMismatch)
	}

	excluded := valueOr(t.ExcludedLines)
	return c.set(
		model.CoverageMetric{Name: model.MetricStatements, Covered: *t.CoveredLines, Total: *t.NumStatements},
		model.CoverageMetric{Name: model.MetricLines, Covered: *t.CoveredLines, Total: *t.NumStatements + excluded},
		model.CoverageMetric{Name: model.MetricBranches, Covered: valueOr(t.CoveredBranches), Total: valueOr(t.NumBranches)},
	)
}

func valueOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
