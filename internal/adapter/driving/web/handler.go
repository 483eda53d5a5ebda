// Package web implements the HTML driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/ciannotate/internal/application"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// runHistoryLimit is the number of runs shown on a repository page.
const runHistoryLimit = 50

// Handler is the web driving adapter that serves HTML via templ components.
type Handler struct {
	reportSvc *application.ReportService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(reportSvc *application.ReportService, logger *slog.Logger) *Handler {
	return &Handler{
		reportSvc: reportSvc,
		logger:    logger,
	}
}

// Run renders the page of a single recorded run.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.reportSvc.Run(r.Context(), id)
	if errors.Is(err, driven.ErrRunNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to load run", "id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	view := toRunDetailViewModel(*run)
	layout := Layout(view.CheckName+" #"+strconv.FormatInt(id, 10), RunPage(view))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render run page", "id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Runs renders the run history of a repository.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	repoFullName := r.PathValue("owner") + "/" + r.PathValue("repo")

	runs, err := h.reportSvc.Runs(r.Context(), repoFullName, runHistoryLimit)
	if err != nil {
		h.logger.Error("failed to list runs", "repo", repoFullName, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	layout := Layout(repoFullName, RunsPage(toRunListViewModel(repoFullName, runs)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render runs page", "repo", repoFullName, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
