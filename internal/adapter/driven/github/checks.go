package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// CreateCheckRun posts a completed check run with its output and annotations
// and returns the ID GitHub assigned to it.
func (c *Client) CreateCheckRun(ctx context.Context, repoFullName string, run model.CheckRun) (int64, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return 0, err
	}

	created, resp, err := c.gh.Checks.CreateCheckRun(ctx, owner, repo, mapCheckRunOptions(run))
	if err != nil {
		return 0, fmt.Errorf("creating check run %q for %s@%s: %w", run.Name, repoFullName, run.HeadSHA, err)
	}

	logRateLimit(resp, repoFullName+"/check-runs")

	return created.GetID(), nil
}

// mapCheckRunOptions converts a domain CheckRun to the go-github request body.
// Optional fields that are unset in the domain are left nil so they are
// omitted from the JSON payload.
func mapCheckRunOptions(run model.CheckRun) gh.CreateCheckRunOptions {
	opts := gh.CreateCheckRunOptions{
		Name:        run.Name,
		HeadSHA:     run.HeadSHA,
		Status:      optString(string(run.Status)),
		Conclusion:  optString(string(run.Conclusion)),
		StartedAt:   optTimestamp(run.StartedAt),
		CompletedAt: optTimestamp(run.CompletedAt),
		DetailsURL:  optString(run.DetailsURL),
		ExternalID:  optString(run.ExternalID),
	}

	if run.Output != nil {
		out := &gh.CheckRunOutput{
			Title:       gh.Ptr(run.Output.Title),
			Summary:     gh.Ptr(run.Output.Summary),
			Text:        optString(run.Output.Text),
			Annotations: make([]*gh.CheckRunAnnotation, 0, len(run.Output.Annotations)),
		}
		for _, a := range run.Output.Annotations {
			out.Annotations = append(out.Annotations, mapAnnotation(a))
		}
		opts.Output = out
	}

	return opts
}

func mapAnnotation(a model.Annotation) *gh.CheckRunAnnotation {
	return &gh.CheckRunAnnotation{
		Path:            gh.Ptr(a.Path),
		StartLine:       gh.Ptr(a.StartLine),
		EndLine:         gh.Ptr(a.EndLine),
		StartColumn:     a.StartColumn,
		EndColumn:       a.EndColumn,
		AnnotationLevel: gh.Ptr(string(a.Level)),
		Message:         gh.Ptr(a.Message),
		Title:           optString(a.Title),
		RawDetails:      optString(a.RawDetails),
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return gh.Ptr(s)
}

func optTimestamp(t time.Time) *gh.Timestamp {
	if t.IsZero() {
		return nil
	}
	return &gh.Timestamp{Time: t.UTC()}
}
