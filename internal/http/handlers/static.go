package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"siteclone/internal/clonestore"
	"siteclone/internal/domain"
)

// Static serves files out of a clone directory. The path after the
// clone id is resolved by the store, which refuses anything outside
// the clone's own directory.
func (a *App) Static(w http.ResponseWriter, r *http.Request) {
	ref, err := clonestore.ParseRef(chi.URLParam(r, "cloneID"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "clone not found")
		return
	}

	path, err := a.Store.Resolve(ref, chi.URLParam(r, "*"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "file not found")
			return
		}
		a.Logger.Error().Err(err).Str("clone_id", string(ref)).Msg("static resolve failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to resolve file")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		a.Logger.Error().Err(err).Str("clone_id", string(ref)).Msg("static open failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to open file")
		return
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		a.Logger.Error().Err(err).Str("clone_id", string(ref)).Msg("static stat failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to open file")
		return
	}

	// ServeFile 301-redirects any request path ending in /index.html;
	// ServeContent serves the entry document at its literal path.
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
