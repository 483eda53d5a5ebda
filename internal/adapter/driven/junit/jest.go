package junit

import (
	"fmt"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// JestFormat is the registry name of the jest-junit variant.
const JestFormat = "jest"

const jestRootName = "jest tests"

// Jest normalizes jest-junit reports. The root <testsuites> carries the
// totals; each child <testsuite> carries its own timestamp and skip count.
type Jest struct {
	opts Options
}

// NewJest creates the jest-junit normalizer.
func NewJest(opts Options) *Jest {
	return &Jest{opts: opts.withDefaults()}
}

// Format returns "jest".
func (j *Jest) Format() string { return JestFormat }

func (j *Jest) match(root *node) error {
	if root.tag() != "testsuites" {
		return fmt.Errorf("%w: jest root element is <%s>, want <testsuites>", model.ErrFormatMismatch, root.tag())
	}
	if name, _ := root.attr("name"); name != jestRootName {
		return fmt.Errorf("%w: jest root name is %q, want %q", model.ErrFormatMismatch, name, jestRootName)
	}
	return nil
}

// Normalize parses a jest-junit document.
func (j *Jest) Normalize(doc []byte) (*model.TestReport, error) {
	root, err := decode(doc)
	if err != nil {
		return nil, err
	}
	if err := j.match(root); err != nil {
		return nil, err
	}

	summary, err := j.summary(root)
	if err != nil {
		return nil, err
	}

	report := &model.TestReport{
		Format:    JestFormat,
		CheckName: j.opts.CheckName,
		Summary:   summary,
	}

	for _, testCase := range root.descendants("testcase") {
		for _, outcome := range outcomes(testCase) {
			message, ok := ExtractJestMessage(outcome.Text)
			if !ok {
				message = PlaceholderMessage
			}
			loc, ok := ExtractJestLocation(outcome.Text, j.opts.RootDir, j.opts.VendorDirs)
			if !ok {
				loc = Unmatched
			}

			a, err := annotate(outcomeOf(testCase, outcome, message), jestLevels, loc)
			if err != nil {
				return nil, err
			}
			report.Annotations = append(report.Annotations, a)
		}
	}

	return report, nil
}

// summary aggregates the root totals with the per-suite timestamps and skip
// counts. The run starts at the earliest suite timestamp.
func (j *Jest) summary(root *node) (model.TestRunSummary, error) {
	s := model.TestRunSummary{Title: jestRootName}

	var err error
	if s.Tests, err = root.intAttr("tests"); err != nil {
		return s, err
	}
	if s.Failures, err = root.intAttr("failures"); err != nil {
		return s, err
	}
	if s.Errors, err = root.intAttr("errors"); err != nil {
		return s, err
	}
	if s.Duration, err = root.floatAttr("time"); err != nil {
		return s, err
	}

	suites := root.children("testsuite")
	if len(suites) == 0 {
		s.StartTime = j.opts.Now().UTC()
	}
	for i, suite := range suites {
		ts, err := suite.timeAttr("timestamp")
		if err != nil {
			return s, err
		}
		if i == 0 || ts.Before(s.StartTime) {
			s.StartTime = ts
		}
		if _, ok := suite.attr("skipped"); ok {
			skipped, err := suite.intAttr("skipped")
			if err != nil {
				return s, err
			}
			s.Skipped += skipped
		}
	}
	s.EndTime = s.StartTime.Add(seconds(s.Duration))

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%w: %v", model.ErrFormatMismatch, err)
	}
	return s, nil
}
