package junit

import "github.com/ericfisherdev/ciannotate/internal/domain/model"

// levelTable maps an outcome kind to an annotation level. Each variant keeps
// its own table; kinds missing from a table map to failure.
type levelTable map[model.OutcomeKind]model.AnnotationLevel

func (t levelTable) level(kind model.OutcomeKind) model.AnnotationLevel {
	if l, ok := t[kind]; ok {
		return l
	}
	return model.AnnotationFailure
}

// Both frameworks report assertion failures as warnings and everything else
// (errors, skips, unknown outcomes) as failures.
var (
	jestLevels = levelTable{
		model.OutcomeFailure: model.AnnotationWarning,
		model.OutcomeError:   model.AnnotationFailure,
		model.OutcomeSkipped: model.AnnotationFailure,
		model.OutcomeOther:   model.AnnotationFailure,
	}
	pytestLevels = levelTable{
		model.OutcomeFailure: model.AnnotationWarning,
		model.OutcomeError:   model.AnnotationFailure,
		model.OutcomeSkipped: model.AnnotationFailure,
		model.OutcomeOther:   model.AnnotationFailure,
	}
)

// nonOutcomeTags are test case children that never describe an outcome.
var nonOutcomeTags = map[string]bool{
	"system-out": true,
	"system-err": true,
	"properties": true,
}

// outcomes returns the outcome children of a test case in document order.
// A test case with none passed.
func outcomes(testCase *node) []*node {
	var out []*node
	for i := range testCase.Children {
		c := &testCase.Children[i]
		if !nonOutcomeTags[c.tag()] {
			out = append(out, c)
		}
	}
	return out
}
