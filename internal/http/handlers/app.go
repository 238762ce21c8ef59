package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"siteclone/internal/clonestore"
	"siteclone/internal/domain"
)

// PipelineRunner runs one synchronous clone job.
type PipelineRunner interface {
	Run(ctx context.Context, rawURL string) (*domain.CloneJob, error)
}

type App struct {
	Logger   zerolog.Logger
	Pipeline PipelineRunner
	Store    *clonestore.Store
	Jobs     domain.CloneJobRepository
}

func NewApp(logger zerolog.Logger, pipeline PipelineRunner, store *clonestore.Store, jobs domain.CloneJobRepository) *App {
	return &App{Logger: logger, Pipeline: pipeline, Store: store, Jobs: jobs}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
