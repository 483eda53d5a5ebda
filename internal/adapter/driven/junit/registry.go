// Package junit normalizes JUnit XML test reports from Jest and pytest into
// check run annotations.
package junit

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ReportNormalizerRegistry = (*Registry)(nil)
	_ driven.ReportNormalizer         = (*Jest)(nil)
	_ driven.ReportNormalizer         = (*Pytest)(nil)
)

// Options configures the normalizers.
type Options struct {
	// RootDir is the absolute checkout directory that stack trace paths are
	// made relative to. Frames outside it are ignored.
	RootDir string
	// VendorDirs are directory names whose frames are never annotated.
	VendorDirs []string
	// CheckName overrides model.DefaultCheckName on produced reports.
	CheckName string
	// Now supplies the start time of reports that carry no timestamp.
	Now func() time.Time
}

// DefaultVendorDirs is used when Options.VendorDirs is empty.
var DefaultVendorDirs = []string{"node_modules"}

func (o Options) withDefaults() Options {
	if len(o.VendorDirs) == 0 {
		o.VendorDirs = DefaultVendorDirs
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// variant is a normalizer that can also recognize its own documents.
type variant interface {
	driven.ReportNormalizer
	match(root *node) error
}

// Registry holds the known report variants keyed by format name.
type Registry struct {
	variants map[string]variant
	order    []string
}

// NewRegistry creates a registry with the jest and pytest variants.
func NewRegistry(opts Options) *Registry {
	r := &Registry{variants: make(map[string]variant)}
	r.register(NewJest(opts))
	r.register(NewPytest(opts))
	return r
}

func (r *Registry) register(v variant) {
	r.variants[v.Format()] = v
	r.order = append(r.order, v.Format())
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Lookup returns the variant registered under format.
func (r *Registry) Lookup(format string) (driven.ReportNormalizer, error) {
	v, ok := r.variants[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", model.ErrUnknownFormat, format, r.Formats())
	}
	return v, nil
}

// Detect returns the variant whose root signature matches doc.
func (r *Registry) Detect(doc []byte) (driven.ReportNormalizer, error) {
	root, err := decode(doc)
	if err != nil {
		return nil, err
	}
	for _, name := range r.order {
		v := r.variants[name]
		if err := v.match(root); err == nil {
			slog.Debug("junit report detected", "format", name)
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: document matches none of %v", model.ErrFormatMismatch, r.Formats())
}

// outcomeOf reads the test case name and time the way both variants report them.
func outcomeOf(testCase, outcome *node, message string) model.TestCaseOutcome {
	return model.TestCaseOutcome{
		TestName: testCase.attrOr("name", "no name detected"),
		TestTime: testCase.attrOr("time", "-"),
		Kind:     model.ParseOutcomeKind(outcome.tag()),
		Message:  message,
		Text:     outcome.Text,
	}
}

// annotate locates an outcome and converts it with the variant's level table.
func annotate(o model.TestCaseOutcome, levels levelTable, loc Location) (model.Annotation, error) {
	a, err := o.Annotation(loc.Path, loc.Line, levels.level(o.Kind))
	if err != nil {
		return model.Annotation{}, fmt.Errorf("annotating test case %q: %w", o.TestName, err)
	}
	return a, nil
}
