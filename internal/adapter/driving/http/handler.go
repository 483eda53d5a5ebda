package httphandler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/ciannotate/internal/application"
	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

const (
	healthPath = "/api/v1/health"

	// maxReportBytes caps uploaded report documents.
	maxReportBytes = 32 << 20
)

// Handler is the HTTP driving adapter that serves the REST API and badges.
type Handler struct {
	reportSvc   *application.ReportService
	coverageSvc *application.CoverageService
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	reportSvc *application.ReportService,
	coverageSvc *application.CoverageService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		reportSvc:   reportSvc,
		coverageSvc: coverageSvc,
		logger:      logger,
	}
}

// RegisterRoutes registers the API and badge routes on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET "+healthPath, h.Health)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/runs", h.ListRuns)
	mux.HandleFunc("POST /api/v1/repos/{owner}/{repo}/reports", h.SubmitReport)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/coverage", h.GetCoverage)
	mux.HandleFunc("GET /badge/{owner}/{repo}/coverage.svg", h.CoverageBadge)
}

// NewServeMux creates an http.Handler with all API routes registered and
// wrapped with logging and recovery middleware. extra registers further
// routes (e.g. the HTML pages) on the same mux.
func NewServeMux(h *Handler, logger *slog.Logger, extra ...func(*http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	for _, register := range extra {
		register(mux)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns returns the newest report runs of a repository.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.reportSvc.Runs(r.Context(), repoFullName, limit)
	if err != nil {
		h.logger.Error("failed to list runs", "repo", repoFullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ReportRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toReportRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns a single report run by ID.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.reportSvc.Run(r.Context(), id)
	if errors.Is(err, driven.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toReportRunResponse(*run))
}

// SubmitReport normalizes an uploaded JUnit document for the commit given by
// the "sha" query parameter, publishes it when a publisher is configured, and
// returns the check run payload.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")
	sha := r.URL.Query().Get("sha")
	if sha == "" {
		writeError(w, http.StatusBadRequest, "sha is required")
		return
	}
	format := r.URL.Query().Get("format")

	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "report too large")
		return
	}

	target := application.Target{Repository: repoFullName, HeadSHA: sha}
	result, err := h.reportSvc.Publish(r.Context(), target, format, application.ReportFile{Name: "upload", Doc: doc})
	switch {
	case errors.Is(err, model.ErrUnknownFormat), errors.Is(err, model.ErrFormatMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to process report", "repo", repoFullName, "sha", sha, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, SubmitReportResponse{
		RunID:      result.RunID,
		CheckRunID: result.CheckRunID,
		Dropped:    result.CheckRun.Output.Dropped,
		CheckRun:   toCheckRunResponse(result.CheckRun),
	})
}

// GetCoverage returns the newest coverage record of a repository.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	rec, err := h.coverageSvc.LatestCoverage(r.Context(), repoFullName)
	if err != nil {
		h.logger.Error("failed to get coverage", "repo", repoFullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no coverage recorded")
		return
	}

	writeJSON(w, http.StatusOK, toCoverageResponse(*rec))
}

// CoverageBadge serves the SVG badge for the newest coverage of a repository.
func (h *Handler) CoverageBadge(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	b, err := h.coverageSvc.LatestBadge(r.Context(), repoFullName)
	if err != nil {
		h.logger.Error("failed to render badge", "repo", repoFullName, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if b == nil {
		writeError(w, http.StatusNotFound, "no coverage recorded")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, max-age=0")
	w.Header().Set("ETag", fmt.Sprintf(`"%d-%s"`, b.RelativeCoverage, b.Color.Name))
	_, _ = io.WriteString(w, b.SVG)
}
