package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"siteclone/internal/domain"
)

type createWebsiteRequest struct {
	URL string `json:"url"`
}

type websiteResponse struct {
	JobID       string `json:"job_id"`
	SourceURL   string `json:"source_url"`
	Status      string `json:"status,omitempty"`
	OriginalDir string `json:"original_dir,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func websiteFromJob(job *domain.CloneJob, includeStatus bool) websiteResponse {
	resp := websiteResponse{
		JobID:       job.ID,
		SourceURL:   job.SourceURL,
		OriginalDir: job.OutputDir,
	}
	if includeStatus {
		resp.Status = string(job.Status)
		resp.Error = job.ErrorDetail
		if !job.CreatedAt.IsZero() {
			resp.CreatedAt = job.CreatedAt.UTC().Format(time.RFC3339)
		}
	}
	if !job.CompletedAt.IsZero() {
		resp.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// WebsitesCreate clones the submitted URL synchronously and responds
// once the clone directory is on disk.
func (a *App) WebsitesCreate(w http.ResponseWriter, r *http.Request) {
	var req createWebsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	// Empty and malformed URLs are both the pipeline's call: it
	// classifies them as invalid_url without touching the browser.
	job, err := a.Pipeline.Run(r.Context(), req.URL)
	if err != nil {
		a.pipelineError(w, err)
		return
	}

	a.json(w, http.StatusOK, websiteFromJob(job, false))
}

// WebsiteGet reports a past job from the ledger.
func (a *App) WebsiteGet(w http.ResponseWriter, r *http.Request) {
	if a.Jobs == nil {
		a.error(w, http.StatusNotFound, "not_found", "job ledger disabled")
		return
	}
	id := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, websiteFromJob(job, true))
}

func (a *App) pipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		a.error(w, http.StatusBadRequest, "invalid_url", err.Error())
	case errors.Is(err, domain.ErrFetchFailed):
		a.error(w, http.StatusBadGateway, "fetch_failed", err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
	case errors.Is(err, domain.ErrStoreFailed):
		a.error(w, http.StatusInternalServerError, "store_failed", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("clone pipeline failed")
		a.error(w, http.StatusInternalServerError, "internal", "clone failed")
	}
}
