package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// AnnotationLevel is the severity of a check run annotation.
type AnnotationLevel string

const (
	AnnotationNotice  AnnotationLevel = "notice"
	AnnotationWarning AnnotationLevel = "warning"
	AnnotationFailure AnnotationLevel = "failure"
)

// Valid reports whether the level is one the Checks API accepts.
func (l AnnotationLevel) Valid() bool {
	switch l {
	case AnnotationNotice, AnnotationWarning, AnnotationFailure:
		return true
	}
	return false
}

// CheckRunStatus is the lifecycle state of a check run.
type CheckRunStatus string

const (
	CheckRunQueued     CheckRunStatus = "queued"
	CheckRunInProgress CheckRunStatus = "in_progress"
	CheckRunCompleted  CheckRunStatus = "completed"
)

// CheckRunConclusion is the final classification of a completed check run.
type CheckRunConclusion string

const (
	ConclusionSuccess        CheckRunConclusion = "success"
	ConclusionFailure        CheckRunConclusion = "failure"
	ConclusionNeutral        CheckRunConclusion = "neutral"
	ConclusionCancelled      CheckRunConclusion = "cancelled" //nolint:misspell // GitHub API spelling.
	ConclusionSkipped        CheckRunConclusion = "skipped"
	ConclusionTimedOut       CheckRunConclusion = "timed_out"
	ConclusionActionRequired CheckRunConclusion = "action_required"
)

// Limits imposed by the GitHub Checks API.
const (
	MaxAnnotationsPerRequest = 50
	MaxAnnotationTextBytes   = 64 * 1024
	MaxAnnotationTitleChars  = 255
)

// Annotation is a file/line scoped note attached to a check run output.
// StartColumn and EndColumn are only meaningful when StartLine == EndLine.
type Annotation struct {
	Path        string
	StartLine   int
	EndLine     int
	StartColumn *int
	EndColumn   *int
	Level       AnnotationLevel
	Message     string
	Title       string // Optional.
	RawDetails  string // Optional.
}

// AnnotationOption sets an optional annotation field.
type AnnotationOption func(*Annotation)

// WithTitle sets the annotation title.
func WithTitle(title string) AnnotationOption {
	return func(a *Annotation) { a.Title = title }
}

// WithRawDetails sets the annotation raw details.
func WithRawDetails(details string) AnnotationOption {
	return func(a *Annotation) { a.RawDetails = details }
}

// WithColumns sets the start and end columns of a single-line annotation.
func WithColumns(start, end int) AnnotationOption {
	return func(a *Annotation) {
		a.StartColumn = &start
		a.EndColumn = &end
	}
}

// NewAnnotation builds a validated annotation. Oversized message, title and
// raw details are truncated to the API limits rather than rejected.
func NewAnnotation(path string, startLine, endLine int, level AnnotationLevel, message string, opts ...AnnotationOption) (Annotation, error) {
	a := Annotation{
		Path:      path,
		StartLine: startLine,
		EndLine:   endLine,
		Level:     level,
		Message:   message,
	}
	for _, opt := range opts {
		opt(&a)
	}

	if !a.Level.Valid() {
		return Annotation{}, fmt.Errorf("%w: level %q is not one of notice, warning, failure", ErrInvalidAnnotation, a.Level)
	}
	if a.Path == "" {
		return Annotation{}, fmt.Errorf("%w: path is required", ErrInvalidAnnotation)
	}
	if a.StartLine < 1 || a.EndLine < a.StartLine {
		return Annotation{}, fmt.Errorf("%w: invalid line range %d-%d", ErrInvalidAnnotation, a.StartLine, a.EndLine)
	}
	if (a.StartColumn != nil || a.EndColumn != nil) && a.StartLine != a.EndLine {
		return Annotation{}, fmt.Errorf("%w: columns are only allowed on single-line annotations", ErrInvalidAnnotation)
	}

	a.Message = truncateBytes(a.Message, MaxAnnotationTextBytes)
	a.RawDetails = truncateBytes(a.RawDetails, MaxAnnotationTextBytes)
	a.Title = truncateRunes(a.Title, MaxAnnotationTitleChars)

	return a, nil
}

// CheckRunOutput is the output payload of a check run. The annotation list is
// capped at MaxAnnotationsPerRequest; anything beyond is counted and discarded.
type CheckRunOutput struct {
	Title       string
	Summary     string
	Text        string // Optional markdown body.
	Annotations []Annotation
	Dropped     int // Annotations discarded by the cap. Not sent to the API.
}

// NewCheckRunOutput creates an output with its own empty annotation list.
func NewCheckRunOutput(title, summary string) *CheckRunOutput {
	return &CheckRunOutput{
		Title:       title,
		Summary:     summary,
		Annotations: make([]Annotation, 0, MaxAnnotationsPerRequest),
	}
}

// AddAnnotation appends the annotation if the cap has not been reached and
// reports whether it was kept.
func (o *CheckRunOutput) AddAnnotation(a Annotation) bool {
	if len(o.Annotations) >= MaxAnnotationsPerRequest {
		o.Dropped++
		return false
	}
	o.Annotations = append(o.Annotations, a)
	return true
}

// CheckRun is one automated check against a commit, ready to be posted to the
// Checks API. It is built once per report and not modified afterwards.
type CheckRun struct {
	Name        string
	HeadSHA     string
	Status      CheckRunStatus
	Conclusion  CheckRunConclusion
	StartedAt   time.Time
	CompletedAt time.Time
	DetailsURL  string // Optional.
	ExternalID  string // Optional.
	Output      *CheckRunOutput
}

// ConclusionFor derives the check run conclusion from failure and error counts.
func ConclusionFor(failures, errors int) CheckRunConclusion {
	if failures > 0 || errors > 0 {
		return ConclusionFailure
	}
	return ConclusionSuccess
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
