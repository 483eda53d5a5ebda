package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"
)

// CreateIssueComment creates a top-level (non-diff) comment on a pull request.
func (c *Client) CreateIssueComment(ctx context.Context, repoFullName string, prNumber int, body string) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}
	if prNumber <= 0 {
		return fmt.Errorf("creating issue comment on %s: invalid pull request number %d", repoFullName, prNumber)
	}

	_, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, prNumber, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating issue comment on %s#%d: %w", repoFullName, prNumber, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/issues/%d/comments", repoFullName, prNumber))

	return nil
}
