package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"siteclone/internal/clonestore"
	"siteclone/internal/domain"
	"siteclone/pkg/zip"
)

// WebsiteArchive streams a completed clone as a zip download.
func (a *App) WebsiteArchive(w http.ResponseWriter, r *http.Request) {
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
	if job.Status != domain.StatusComplete || job.OutputDir == "" {
		a.error(w, http.StatusNotFound, "not_found", "job has no clone output")
		return
	}

	ref, err := clonestore.ParseRef(job.OutputDir)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "clone not found")
		return
	}
	files, err := a.Store.Archive(ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "clone not found")
			return
		}
		a.Logger.Error().Err(err).Str("clone_id", string(ref)).Msg("archive read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read clone")
		return
	}

	entries := make([]zip.File, 0, len(files))
	for _, f := range files {
		entries = append(entries, zip.File{Name: f.Name, Data: f.Data})
	}
	data, err := zip.Archive(string(ref), entries)
	if err != nil {
		a.Logger.Error().Err(err).Str("clone_id", string(ref)).Msg("archive build failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+string(ref)+".zip\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
