package driven

import (
	"context"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// CheckPublisher defines the driven port for posting results to the hosting API.
type CheckPublisher interface {
	// CreateCheckRun posts the check run and returns the ID assigned by the API.
	CreateCheckRun(ctx context.Context, repoFullName string, run model.CheckRun) (int64, error)
	// CreateIssueComment adds a PR-level comment (via the Issues API).
	CreateIssueComment(ctx context.Context, repoFullName string, prNumber int, body string) error
}
