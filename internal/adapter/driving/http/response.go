package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CheckRunResponse is the Checks API representation of a check run. Field
// names match the API request body; unset optionals are omitted.
type CheckRunResponse struct {
	Name        string          `json:"name"`
	HeadSHA     string          `json:"head_sha"`
	Status      string          `json:"status"`
	Conclusion  string          `json:"conclusion,omitempty"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
	DetailsURL  string          `json:"details_url,omitempty"`
	ExternalID  string          `json:"external_id,omitempty"`
	Output      *OutputResponse `json:"output,omitempty"`
}

// OutputResponse is the check run output object.
type OutputResponse struct {
	Title       string               `json:"title"`
	Summary     string               `json:"summary"`
	Text        string               `json:"text,omitempty"`
	Annotations []AnnotationResponse `json:"annotations"`
}

// AnnotationResponse is one check run annotation.
type AnnotationResponse struct {
	Path            string `json:"path"`
	StartLine       int    `json:"start_line"`
	EndLine         int    `json:"end_line"`
	StartColumn     *int   `json:"start_column,omitempty"`
	EndColumn       *int   `json:"end_column,omitempty"`
	AnnotationLevel string `json:"annotation_level"`
	Message         string `json:"message"`
	Title           string `json:"title,omitempty"`
	RawDetails      string `json:"raw_details,omitempty"`
}

// SubmitReportResponse is returned after an uploaded report is processed.
type SubmitReportResponse struct {
	RunID      int64            `json:"run_id,omitempty"`
	CheckRunID int64            `json:"check_run_id,omitempty"`
	Dropped    int              `json:"dropped_annotations"`
	CheckRun   CheckRunResponse `json:"check_run"`
}

// ReportRunResponse is the JSON representation of a recorded report run.
type ReportRunResponse struct {
	ID          int64   `json:"id"`
	Repository  string  `json:"repository"`
	HeadSHA     string  `json:"head_sha"`
	Format      string  `json:"format"`
	Name        string  `json:"name"`
	CheckRunID  int64   `json:"check_run_id,omitempty"`
	Conclusion  string  `json:"conclusion"`
	Title       string  `json:"title"`
	Summary     string  `json:"summary"`
	Text        string  `json:"text,omitempty"`
	Tests       int     `json:"tests"`
	Failures    int     `json:"failures"`
	Errors      int     `json:"errors"`
	Skipped     int     `json:"skipped"`
	Duration    float64 `json:"duration_seconds"`
	Annotations int     `json:"annotations"`
	Dropped     int     `json:"dropped_annotations"`
	StartedAt   string  `json:"started_at"`
	CompletedAt string  `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
}

// CoverageResponse is the JSON representation of a coverage record.
type CoverageResponse struct {
	Repository string `json:"repository"`
	HeadSHA    string `json:"head_sha"`
	Format     string `json:"format"`
	Metric     string `json:"metric"`
	Covered    int    `json:"covered"`
	Total      int    `json:"total"`
	Relative   int    `json:"relative_coverage"`
	Color      string `json:"color"`
	CreatedAt  string `json:"created_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toCheckRunResponse(run model.CheckRun) CheckRunResponse {
	resp := CheckRunResponse{
		Name:        run.Name,
		HeadSHA:     run.HeadSHA,
		Status:      string(run.Status),
		Conclusion:  string(run.Conclusion),
		StartedAt:   formatTime(run.StartedAt),
		CompletedAt: formatTime(run.CompletedAt),
		DetailsURL:  run.DetailsURL,
		ExternalID:  run.ExternalID,
	}

	if run.Output != nil {
		out := &OutputResponse{
			Title:       run.Output.Title,
			Summary:     run.Output.Summary,
			Text:        run.Output.Text,
			Annotations: make([]AnnotationResponse, 0, len(run.Output.Annotations)),
		}
		for _, a := range run.Output.Annotations {
			out.Annotations = append(out.Annotations, AnnotationResponse{
				Path:            a.Path,
				StartLine:       a.StartLine,
				EndLine:         a.EndLine,
				StartColumn:     a.StartColumn,
				EndColumn:       a.EndColumn,
				AnnotationLevel: string(a.Level),
				Message:         a.Message,
				Title:           a.Title,
				RawDetails:      a.RawDetails,
			})
		}
		resp.Output = out
	}

	return resp
}

func toReportRunResponse(run model.ReportRun) ReportRunResponse {
	return ReportRunResponse{
		ID:          run.ID,
		Repository:  run.RepoFullName,
		HeadSHA:     run.HeadSHA,
		Format:      run.Format,
		Name:        run.CheckName,
		CheckRunID:  run.CheckRunID,
		Conclusion:  string(run.Conclusion),
		Title:       run.Title,
		Summary:     run.Summary,
		Text:        run.Text,
		Tests:       run.Tests,
		Failures:    run.Failures,
		Errors:      run.Errors,
		Skipped:     run.Skipped,
		Duration:    run.Duration,
		Annotations: run.Annotations,
		Dropped:     run.Dropped,
		StartedAt:   formatTime(run.StartedAt),
		CompletedAt: formatTime(run.CompletedAt),
		CreatedAt:   formatTime(run.CreatedAt),
	}
}

func toCoverageResponse(rec model.CoverageRecord) CoverageResponse {
	return CoverageResponse{
		Repository: rec.RepoFullName,
		HeadSHA:    rec.HeadSHA,
		Format:     rec.Format,
		Metric:     string(rec.Metric),
		Covered:    rec.Covered,
		Total:      rec.Total,
		Relative:   rec.Relative,
		Color:      rec.ColorName,
		CreatedAt:  formatTime(rec.CreatedAt),
	}
}
