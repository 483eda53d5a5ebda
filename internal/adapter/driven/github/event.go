package github

import (
	"encoding/json"
	"fmt"
	"os"

	gh "github.com/google/go-github/v82/github"
)

// Event is the part of a workflow event payload needed to publish results.
type Event struct {
	Repository string // owner/repo; empty if the payload has no repository.
	PRNumber   int    // Zero when the event is not tied to a pull request.
	HeadSHA    string // Pull request head commit; empty for other events.
}

// LoadEvent reads the event payload written by GitHub Actions at
// GITHUB_EVENT_PATH. Pull request fields are read when present; other event
// types yield an Event with only the repository set.
func LoadEvent(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event payload: %w", err)
	}

	var payload gh.PullRequestEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding event payload %s: %w", path, err)
	}

	ev := &Event{Repository: payload.GetRepo().GetFullName()}
	if pr := payload.GetPullRequest(); pr != nil {
		ev.PRNumber = pr.GetNumber()
		if ev.PRNumber == 0 {
			ev.PRNumber = payload.GetNumber()
		}
		ev.HeadSHA = pr.GetHead().GetSHA()
	}
	return ev, nil
}
