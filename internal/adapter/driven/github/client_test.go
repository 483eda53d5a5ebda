package github_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	ghAdapter "github.com/ericfisherdev/ciannotate/internal/adapter/driven/github"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
		"test-token",
	)
	require.NoError(t, err)

	return client, server
}

// checkRunRequest mirrors the Checks API request body.
type checkRunRequest struct {
	Name        string          `json:"name"`
	HeadSHA     string          `json:"head_sha"`
	Status      string          `json:"status"`
	Conclusion  string          `json:"conclusion"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at"`
	DetailsURL  *string         `json:"details_url"`
	ExternalID  *string         `json:"external_id"`
	Output      json.RawMessage `json:"output"`
}

type outputRequest struct {
	Title       string                   `json:"title"`
	Summary     string                   `json:"summary"`
	Text        *string                  `json:"text"`
	Annotations []map[string]interface{} `json:"annotations"`
}

func sampleCheckRun(t *testing.T) model.CheckRun {
	t.Helper()

	a, err := model.NewAnnotation("tests/test_reports.py", 16, 16, model.AnnotationWarning,
		"AssertionError: assert 10 == 11", model.WithTitle("test_pytest_report (0.012s)"))
	require.NoError(t, err)

	out := model.NewCheckRunOutput("pytest tests", "11 tests in 0.075s: 1 failures, 0 errors, 0 skipped")
	out.AddAnnotation(a)

	start := time.Date(2021, 12, 16, 13, 4, 28, 0, time.UTC)
	return model.CheckRun{
		Name:        "unit-tests",
		HeadSHA:     "abc123",
		Status:      model.CheckRunCompleted,
		Conclusion:  model.ConclusionFailure,
		StartedAt:   start,
		CompletedAt: start.Add(75 * time.Millisecond),
		Output:      out,
	}
}

func TestCreateCheckRun(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth string
		gotBody                     []byte
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 4242, "name": "unit-tests"}`))
	})

	client, _ := newTestClient(t, handler)
	id, err := client.CreateCheckRun(context.Background(), "owner/repo", sampleCheckRun(t))

	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/repos/owner/repo/check-runs", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)

	var req checkRunRequest
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.Equal(t, "unit-tests", req.Name)
	assert.Equal(t, "abc123", req.HeadSHA)
	assert.Equal(t, "completed", req.Status)
	assert.Equal(t, "failure", req.Conclusion)
	assert.Equal(t, "2021-12-16T13:04:28Z", req.StartedAt)
	assert.Nil(t, req.DetailsURL, "unset optionals are omitted")
	assert.Nil(t, req.ExternalID)

	var out outputRequest
	require.NoError(t, json.Unmarshal(req.Output, &out))
	assert.Equal(t, "pytest tests", out.Title)
	assert.Nil(t, out.Text)
	require.Len(t, out.Annotations, 1)

	ann := out.Annotations[0]
	assert.Equal(t, "tests/test_reports.py", ann["path"])
	assert.EqualValues(t, 16, ann["start_line"])
	assert.EqualValues(t, 16, ann["end_line"])
	assert.Equal(t, "warning", ann["annotation_level"])
	assert.Equal(t, "test_pytest_report (0.012s)", ann["title"])
	assert.NotContains(t, ann, "raw_details")
	assert.NotContains(t, ann, "start_column")
}

func TestCreateCheckRun_APIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Resource not accessible by integration"}`))
	})

	client, _ := newTestClient(t, handler)
	_, err := client.CreateCheckRun(context.Background(), "owner/repo", sampleCheckRun(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating check run")
}

func TestCreateCheckRun_InvalidRepo(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	_, err := client.CreateCheckRun(context.Background(), "no-slash", sampleCheckRun(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected owner/repo")
}

func TestCreateIssueComment(t *testing.T) {
	var gotPath, gotBody string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Body string `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBody = body.Body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})

	client, _ := newTestClient(t, handler)
	err := client.CreateIssueComment(context.Background(), "owner/repo", 7, "coverage: 57%")

	require.NoError(t, err)
	assert.Equal(t, "/repos/owner/repo/issues/7/comments", gotPath)
	assert.Equal(t, "coverage: 57%", gotBody)
}

func TestCreateIssueComment_InvalidNumber(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())

	err := client.CreateIssueComment(context.Background(), "owner/repo", 0, "body")
	require.Error(t, err)
}

func TestLoadEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    ghAdapter.Event
	}{
		{
			name: "pull request",
			payload: `{"action": "synchronize", "number": 12,
				"pull_request": {"number": 12, "head": {"sha": "deadbeef", "ref": "feature"}},
				"repository": {"full_name": "owner/repo"}}`,
			want: ghAdapter.Event{Repository: "owner/repo", PRNumber: 12, HeadSHA: "deadbeef"},
		},
		{
			name:    "push",
			payload: `{"ref": "refs/heads/main", "after": "cafe", "repository": {"full_name": "owner/repo"}}`,
			want:    ghAdapter.Event{Repository: "owner/repo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "event.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.payload), 0o600))

			ev, err := ghAdapter.LoadEvent(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *ev)
		})
	}
}

func TestLoadEvent_Errors(t *testing.T) {
	_, err := ghAdapter.LoadEvent(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err = ghAdapter.LoadEvent(path)
	require.Error(t, err)
}
