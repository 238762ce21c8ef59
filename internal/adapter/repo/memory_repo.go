package repo

import (
	"context"
	"sync"
	"time"

	"siteclone/internal/domain"
)

// CloneJobRepositoryMem is an in-memory ledger used when no DATABASE_URL is
// configured, and by tests.
type CloneJobRepositoryMem struct {
	mu   sync.RWMutex
	jobs map[string]domain.CloneJob
}

// NewMemoryCloneJobRepository creates an empty in-memory ledger.
func NewMemoryCloneJobRepository() *CloneJobRepositoryMem {
	return &CloneJobRepositoryMem{jobs: make(map[string]domain.CloneJob)}
}

// Create stores a copy of the job.
func (r *CloneJobRepositoryMem) Create(ctx context.Context, job *domain.CloneJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

// UpdateStatus advances a job's status, stamping completion on terminal
// states.
func (r *CloneJobRepositoryMem) UpdateStatus(ctx context.Context, id string, status domain.CloneStatus, errDetail, outputDir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.ErrorDetail = errDetail
	job.OutputDir = outputDir
	if status == domain.StatusComplete || status == domain.StatusFailed {
		job.CompletedAt = time.Now().UTC()
	}
	r.jobs[id] = job
	return nil
}

// GetByID returns a copy of the job.
func (r *CloneJobRepositoryMem) GetByID(ctx context.Context, id string) (*domain.CloneJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

var _ domain.CloneJobRepository = (*CloneJobRepositoryMem)(nil)
