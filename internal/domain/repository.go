package domain

import "context"

// CloneJobRepository records clone jobs for observability. The pipeline does
// not depend on reads from it; implementations may be backed by Postgres or
// kept in memory.
type CloneJobRepository interface {
	Create(ctx context.Context, job *CloneJob) error
	UpdateStatus(ctx context.Context, id string, status CloneStatus, errDetail, outputDir string) error
	GetByID(ctx context.Context, id string) (*CloneJob, error)
}
