package junit

import (
	"fmt"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// PytestFormat is the registry name of the pytest variant.
const PytestFormat = "pytest"

const (
	pytestSuiteName = "pytest"
	pytestTitle     = "pytest tests"
)

// Pytest normalizes pytest --junitxml reports: a <testsuites> root holding
// exactly one <testsuite name="pytest"> that carries every total.
type Pytest struct {
	opts Options
}

// NewPytest creates the pytest normalizer.
func NewPytest(opts Options) *Pytest {
	return &Pytest{opts: opts.withDefaults()}
}

// Format returns "pytest".
func (p *Pytest) Format() string { return PytestFormat }

func (p *Pytest) match(root *node) error {
	_, err := p.suite(root)
	return err
}

// suite returns the single pytest suite below root.
func (p *Pytest) suite(root *node) (*node, error) {
	if root.tag() != "testsuites" {
		return nil, fmt.Errorf("%w: pytest root element is <%s>, want <testsuites>", model.ErrFormatMismatch, root.tag())
	}
	// Newer pytest releases name the root; older ones leave it unnamed.
	if name, ok := root.attr("name"); ok && name != pytestTitle {
		return nil, fmt.Errorf("%w: pytest root is named %q", model.ErrFormatMismatch, name)
	}
	suites := root.children("testsuite")
	if len(suites) != 1 {
		return nil, fmt.Errorf("%w: pytest report must hold exactly one <testsuite>, found %d", model.ErrFormatMismatch, len(suites))
	}
	if name, _ := suites[0].attr("name"); name != pytestSuiteName {
		return nil, fmt.Errorf("%w: pytest suite name is %q, want %q", model.ErrFormatMismatch, name, pytestSuiteName)
	}
	return suites[0], nil
}

// Normalize parses a pytest JUnit document.
func (p *Pytest) Normalize(doc []byte) (*model.TestReport, error) {
	root, err := decode(doc)
	if err != nil {
		return nil, err
	}
	suite, err := p.suite(root)
	if err != nil {
		return nil, err
	}

	summary, err := p.summary(suite)
	if err != nil {
		return nil, err
	}

	report := &model.TestReport{
		Format:    PytestFormat,
		CheckName: p.opts.CheckName,
		Summary:   summary,
	}

	for _, testCase := range suite.children("testcase") {
		for _, outcome := range outcomes(testCase) {
			message := outcome.attrOr("message", PlaceholderMessage)
			loc, ok := ExtractPytestLocation(outcome.Text)
			if !ok {
				loc = Unmatched
			}

			a, err := annotate(outcomeOf(testCase, outcome, message), pytestLevels, loc)
			if err != nil {
				return nil, err
			}
			report.Annotations = append(report.Annotations, a)
		}
	}

	return report, nil
}

func (p *Pytest) summary(suite *node) (model.TestRunSummary, error) {
	s := model.TestRunSummary{Title: pytestTitle}

	var err error
	if s.Tests, err = suite.intAttr("tests"); err != nil {
		return s, err
	}
	if s.Failures, err = suite.intAttr("failures"); err != nil {
		return s, err
	}
	if s.Errors, err = suite.intAttr("errors"); err != nil {
		return s, err
	}
	if s.Skipped, err = suite.intAttr("skipped"); err != nil {
		return s, err
	}
	if s.Duration, err = suite.floatAttr("time"); err != nil {
		return s, err
	}
	if s.StartTime, err = suite.timeAttr("timestamp"); err != nil {
		return s, err
	}
	s.EndTime = s.StartTime.Add(seconds(s.Duration))

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%w: %v", model.ErrFormatMismatch, err)
	}
	return s, nil
}
