package coverage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// Istanbul reads the coverage-summary.json written by Jest's json-summary
// reporter. Only the "total" record is used; per-file records are ignored.
type Istanbul struct {
	summary
}

type istanbulCounts struct {
	Total   *int `json:"total"`
	Covered *int `json:"covered"`
}

type istanbulTotal struct {
	Lines      *istanbulCounts `json:"lines"`
	Statements *istanbulCounts `json:"statements"`
	Functions  *istanbulCounts `json:"functions"`
	Branches   *istanbulCounts `json:"branches"`
}

// Parse decodes the summary document.
func (i *Istanbul) Parse(r io.Reader) error {
	var doc struct {
		Total *istanbulTotal `json:"total"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: decoding istanbul summary: %v", model.ErrFormatMismatch, err)
	}
	if doc.Total == nil {
		return fmt.Errorf("%w: istanbul summary has no \"total\" record", model.ErrFormatMismatch)
	}

	var counts []model.CoverageMetric
	for _, f := range []struct {
		metric model.Metric
		counts *istanbulCounts
	}{
		{model.MetricStatements, doc.Total.Statements},
		{model.MetricLines, doc.Total.Lines},
		{model.MetricBranches, doc.Total.Branches},
		{model.MetricFunctions, doc.Total.Functions},
	} {
		if f.counts == nil || f.counts.Total == nil || f.counts.Covered == nil {
			return fmt.Errorf("%w: istanbul total has no %s counts", model.ErrFormatMismatch, f.metric)
		}
		counts = append(counts, model.CoverageMetric{Name: f.metric, Covered: *f.counts.Covered, Total: *f.counts.Total})
	}

	return i.set(counts...)
}
